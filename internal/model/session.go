package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
)

type Session struct {
	ID              int64         `json:"id"`
	BookingID       int64         `json:"booking_id"`
	SessionDate     time.Time     `json:"session_date"`
	Status          SessionStatus `json:"status"`
	IsUnlocked      bool          `json:"is_unlocked"` // открыто ли занятие по оплате
	TeacherReport   *string       `json:"teacher_report,omitempty"`
	StudentAttended *bool         `json:"student_attended,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	PayoutID        *int64        `json:"payout_id,omitempty"` // выставляется один раз при выплате
	CreatedAt       time.Time     `json:"created_at"`
}
