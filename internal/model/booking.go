package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает подтверждения учителя
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCancelled BookingStatus = "cancelled" // Отменено
	BookingStatusCompleted BookingStatus = "completed" // Курс завершён
)

// ValidBookingStatus проверяет что строка - известный статус бронирования
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodFull        PaymentMethod = "full"
	PaymentMethodInstallment PaymentMethod = "installment"
)

// Допустимое количество занятий в бронировании
var AllowedSessionCounts = map[int]bool{6: true, 12: true, 24: true}

type Booking struct {
	ID                   int64         `json:"id"`
	StudentID            int64         `json:"student_id"`
	CourseID             int64         `json:"course_id"`
	Status               BookingStatus `json:"status"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	TotalInstallments    int           `json:"total_installments"` // 1 при полной оплате
	PricePerSession      int64         `json:"price_per_session"`  // снимок цены курса на момент брони
	TotalAmount          int64         `json:"total_amount"`
	CourseCompletionDate *time.Time    `json:"course_completion_date,omitempty"`
	OverallReport        *string       `json:"overall_report,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Course   *Course    `json:"course,omitempty"`
	Student  *User      `json:"student,omitempty"`
	Sessions []*Session `json:"sessions,omitempty"`
	Payments []*Payment `json:"payments,omitempty"`
}

// CanTransitionBy проверяет допустим ли переход статуса для данной роли.
// Оплаченные платежи проверяются отдельно (запрет отмены при наличии paid).
func (b *Booking) CanTransitionBy(actor Actor, to BookingStatus) bool {
	if actor.IsAdmin() {
		return true
	}
	switch actor.Role {
	case RoleStudent:
		return b.Status == BookingStatusPending && to == BookingStatusCancelled
	case RoleTeacher:
		if b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled {
			return false
		}
		return b.Status == BookingStatusPending &&
			(to == BookingStatusConfirmed || to == BookingStatusCancelled)
	}
	return false
}
