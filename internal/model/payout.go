package model

import "time"

type PayoutStatus string

const (
	PayoutStatusPendingPayment PayoutStatus = "pending_payment"
	PayoutStatusPaid           PayoutStatus = "paid" // терминальный статус
	PayoutStatusFailed         PayoutStatus = "failed"
)

func ValidPayoutStatus(s PayoutStatus) bool {
	switch s {
	case PayoutStatusPendingPayment, PayoutStatusPaid, PayoutStatusFailed:
		return true
	}
	return false
}

func CanPayoutTransition(from, to PayoutStatus) bool {
	if from == PayoutStatusPaid {
		return false
	}
	return from != to
}

type TeacherPayout struct {
	ID                   int64        `json:"id"`
	TeacherID            int64        `json:"teacher_id"`
	PeriodStart          time.Time    `json:"period_start"`
	PeriodEnd            time.Time    `json:"period_end"`
	TotalSessions        int          `json:"total_sessions"`
	GrossAmount          int64        `json:"gross_amount"`
	HonorariumAmount     int64        `json:"honorarium_amount"`
	ServiceFeePercentage float64      `json:"service_fee_percentage"` // снимок комиссии на момент расчёта
	Status               PayoutStatus `json:"status"`
	PaymentReference     *string      `json:"payment_reference,omitempty"`
	ProofURL             *string      `json:"proof_url,omitempty"`
	PaidAt               *time.Time   `json:"paid_at,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}
