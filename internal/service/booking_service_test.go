package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
)

func TestValidateInstants(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)

	t.Run("valid distinct future instants", func(t *testing.T) {
		instants := []time.Time{future, future.Add(time.Hour), future.Add(2 * time.Hour)}
		assert.NoError(t, validateInstants(instants))
	})

	t.Run("zero instant rejected", func(t *testing.T) {
		err := validateInstants([]time.Time{future, {}})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("past instant rejected", func(t *testing.T) {
		err := validateInstants([]time.Time{time.Now().Add(-time.Hour)})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("duplicate instant rejected", func(t *testing.T) {
		err := validateInstants([]time.Time{future, future.Add(time.Hour), future})
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}

type fakeBookingStore struct {
	bookingStore
	booking *model.Booking
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return f.booking, nil
}

type fakeCourseStore struct {
	courseStore
	course *model.Course
}

func (f *fakeCourseStore) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	return f.course, nil
}

type fakePaymentStore struct {
	bookingPaymentStore
	paid bool
}

func (f *fakePaymentStore) HasPaid(ctx context.Context, bookingID int64) (bool, error) {
	return f.paid, nil
}

func TestUpdateBookingStatusCancelGating(t *testing.T) {
	ctx := context.Background()
	student := model.Actor{ID: 3, Role: model.RoleStudent}

	newService := func(paid bool) *BookingService {
		bookings := &fakeBookingStore{booking: &model.Booking{
			ID:        42,
			StudentID: 3,
			CourseID:  1,
			Status:    model.BookingStatusPending,
		}}
		return NewBookingService(
			nil, nil,
			&fakeCourseStore{course: &model.Course{ID: 1, TeacherID: 9}},
			bookings, nil,
			&fakePaymentStore{paid: paid},
			nil, nil, nil,
			zap.NewNop(),
		)
	}

	// Принятый платёж блокирует отмену
	t.Run("paid booking cannot be cancelled", func(t *testing.T) {
		svc := newService(true)
		_, err := svc.UpdateBookingStatus(ctx, student, 42, model.BookingStatusCancelled)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		svc := newService(false)
		_, err := svc.UpdateBookingStatus(ctx, student, 42, model.BookingStatus("frozen"))
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("foreign booking rejected", func(t *testing.T) {
		svc := newService(false)
		other := model.Actor{ID: 8, Role: model.RoleStudent}
		_, err := svc.UpdateBookingStatus(ctx, other, 42, model.BookingStatusCancelled)
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	})
}

func TestSubmitOverallReportStatusGuard(t *testing.T) {
	ctx := context.Background()
	teacher := model.Actor{ID: 9, Role: model.RoleTeacher}

	newService := func(status model.BookingStatus) *BookingService {
		bookings := &fakeBookingStore{booking: &model.Booking{
			ID:       42,
			CourseID: 1,
			Status:   status,
		}}
		return NewBookingService(
			nil, nil,
			&fakeCourseStore{course: &model.Course{ID: 1, TeacherID: 9}},
			bookings, nil, nil, nil, nil, nil,
			zap.NewNop(),
		)
	}

	t.Run("cancelled booking cannot be completed", func(t *testing.T) {
		err := newService(model.BookingStatusCancelled).SubmitOverallReport(ctx, teacher, 42, "done")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
	})

	t.Run("completed booking cannot be completed twice", func(t *testing.T) {
		err := newService(model.BookingStatusCompleted).SubmitOverallReport(ctx, teacher, 42, "done")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
	})

	t.Run("empty report rejected", func(t *testing.T) {
		err := newService(model.BookingStatusConfirmed).SubmitOverallReport(ctx, teacher, 42, "")
		require.Error(t, err)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})
}
