package model

import "time"

// TeacherUnavailableDate - вручную заблокированный учителем момент времени.
// Удалить блокировку может только её владелец.
type TeacherUnavailableDate struct {
	ID        int64     `json:"id"`
	TeacherID int64     `json:"teacher_id"`
	BlockedAt time.Time `json:"blocked_at"`
	CreatedAt time.Time `json:"created_at"`
}
