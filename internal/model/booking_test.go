package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionBy(t *testing.T) {
	student := Actor{ID: 1, Role: RoleStudent}
	teacher := Actor{ID: 2, Role: RoleTeacher}
	admin := Actor{ID: 3, Role: RoleAdmin}

	tests := []struct {
		name  string
		from  BookingStatus
		to    BookingStatus
		actor Actor
		want  bool
	}{
		{"teacher confirms pending", BookingStatusPending, BookingStatusConfirmed, teacher, true},
		{"teacher cancels pending", BookingStatusPending, BookingStatusCancelled, teacher, true},
		{"teacher cannot complete directly", BookingStatusPending, BookingStatusCompleted, teacher, false},
		{"teacher cannot touch confirmed", BookingStatusConfirmed, BookingStatusCancelled, teacher, false},
		{"teacher cannot revive cancelled", BookingStatusCancelled, BookingStatusConfirmed, teacher, false},
		{"teacher cannot touch completed", BookingStatusCompleted, BookingStatusCancelled, teacher, false},

		{"student cancels pending", BookingStatusPending, BookingStatusCancelled, student, true},
		{"student cannot confirm", BookingStatusPending, BookingStatusConfirmed, student, false},
		{"student cannot cancel confirmed", BookingStatusConfirmed, BookingStatusCancelled, student, false},

		{"admin cancels confirmed", BookingStatusConfirmed, BookingStatusCancelled, admin, true},
		{"admin completes confirmed", BookingStatusConfirmed, BookingStatusCompleted, admin, true},
		{"admin revives cancelled", BookingStatusCancelled, BookingStatusPending, admin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.from}
			assert.Equal(t, tt.want, b.CanTransitionBy(tt.actor, tt.to))
		})
	}
}

func TestValidBookingStatus(t *testing.T) {
	assert.True(t, ValidBookingStatus(BookingStatusPending))
	assert.True(t, ValidBookingStatus(BookingStatusCompleted))
	assert.False(t, ValidBookingStatus("unknown"))
	assert.False(t, ValidBookingStatus(""))
}

func TestAllowedSessionCounts(t *testing.T) {
	for _, n := range []int{6, 12, 24} {
		assert.True(t, AllowedSessionCounts[n], "count %d", n)
	}
	for _, n := range []int{0, 1, 5, 7, 10, 48} {
		assert.False(t, AllowedSessionCounts[n], "count %d", n)
	}
}

func TestCanPayoutTransition(t *testing.T) {
	tests := []struct {
		from, to PayoutStatus
		want     bool
	}{
		{PayoutStatusPendingPayment, PayoutStatusPaid, true},
		{PayoutStatusPendingPayment, PayoutStatusFailed, true},
		{PayoutStatusFailed, PayoutStatusPendingPayment, true},
		{PayoutStatusFailed, PayoutStatusPaid, true},
		{PayoutStatusPaid, PayoutStatusFailed, false},
		{PayoutStatusPaid, PayoutStatusPendingPayment, false},
		{PayoutStatusPendingPayment, PayoutStatusPendingPayment, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanPayoutTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
