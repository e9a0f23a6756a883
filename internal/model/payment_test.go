package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitInstallments(t *testing.T) {
	tests := []struct {
		name         string
		total        int64
		installments int
		want         []int64
	}{
		{
			name:         "full payment single share",
			total:        900000,
			installments: 1,
			want:         []int64{900000},
		},
		{
			name:         "even split in two",
			total:        1200000,
			installments: 2,
			want:         []int64{600000, 600000},
		},
		{
			name:         "even split in three",
			total:        1200000,
			installments: 3,
			want:         []int64{400000, 400000, 400000},
		},
		{
			name:         "remainder goes to last installment",
			total:        1000000,
			installments: 3,
			want:         []int64{333333, 333333, 333334},
		},
		{
			name:         "remainder with two installments",
			total:        999999,
			installments: 2,
			want:         []int64{499999, 500000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitInstallments(tt.total, tt.installments)
			require.Equal(t, tt.want, got)

			// Сумма долей всегда точно равна итогу
			var sum int64
			for _, a := range got {
				sum += a
			}
			assert.Equal(t, tt.total, sum)
		})
	}
}

func TestCanPaymentTransition(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusFailed, PaymentStatusPaid, true},
		{PaymentStatusPaid, PaymentStatusRefunded, true},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanPaymentTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
