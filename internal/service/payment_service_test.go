package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnlockTarget(t *testing.T) {
	tests := []struct {
		name              string
		totalSessions     int
		paidInstallments  int
		totalInstallments int
		want              int
	}{
		{"nothing paid", 12, 0, 2, 0},
		{"half paid of two", 12, 1, 2, 6},
		{"fully paid of two", 12, 2, 2, 12},
		{"full payment single installment", 24, 1, 1, 24},
		{"six sessions four installments first", 6, 1, 4, 1},
		{"six sessions four installments second", 6, 2, 4, 3},
		{"six sessions four installments third", 6, 3, 4, 4},
		{"final installment unlocks everything", 6, 4, 4, 6},
		{"24 sessions five installments", 24, 2, 5, 9},
		{"overpaid caps at total", 12, 3, 2, 12},
		{"zero total installments", 12, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnlockTarget(tt.totalSessions, tt.paidInstallments, tt.totalInstallments)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Цель разблокировки не убывает с каждым следующим платежом
func TestUnlockTargetMonotonic(t *testing.T) {
	for _, totalSessions := range []int{6, 12, 24} {
		for totalInstallments := 1; totalInstallments <= totalSessions; totalInstallments++ {
			prev := 0
			for paid := 0; paid <= totalInstallments; paid++ {
				got := UnlockTarget(totalSessions, paid, totalInstallments)
				assert.GreaterOrEqual(t, got, prev,
					"sessions=%d installments=%d paid=%d", totalSessions, totalInstallments, paid)
				prev = got
			}
			assert.Equal(t, totalSessions, prev,
				"last installment must unlock all: sessions=%d installments=%d", totalSessions, totalInstallments)
		}
	}
}
