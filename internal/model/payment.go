package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// CanPaymentTransition описывает допустимые переходы статуса платежа.
// refunded - административная коррекция уже оплаченного платежа.
func CanPaymentTransition(from, to PaymentStatus) bool {
	switch from {
	case PaymentStatusPending:
		return to == PaymentStatusPaid || to == PaymentStatusFailed
	case PaymentStatusFailed:
		return to == PaymentStatusPending || to == PaymentStatusPaid
	case PaymentStatusPaid:
		return to == PaymentStatusRefunded
	}
	return false
}

type Payment struct {
	ID                int64         `json:"id"`
	BookingID         int64         `json:"booking_id"`
	InstallmentNumber int           `json:"installment_number"` // 1..N, при полной оплате всегда 1
	Amount            int64         `json:"amount"`
	Status            PaymentStatus `json:"status"`
	ProofURL          *string       `json:"proof_url,omitempty"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// SplitInstallments делит итоговую сумму на равные доли.
// Последняя доля поглощает остаток, поэтому сумма долей всегда точно равна total.
func SplitInstallments(total int64, installments int) []int64 {
	if installments <= 1 {
		return []int64{total}
	}
	share := total / int64(installments)
	amounts := make([]int64, installments)
	for i := 0; i < installments-1; i++ {
		amounts[i] = share
	}
	amounts[installments-1] = total - share*int64(installments-1)
	return amounts
}
