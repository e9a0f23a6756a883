package model

import "time"

// Conversation - ресурс чата между студентом и учителем.
// Создаётся лениво при подтверждении бронирования, доставка сообщений - внешняя система.
type Conversation struct {
	ID        int64     `json:"id"`
	BookingID int64     `json:"booking_id"`
	StudentID int64     `json:"student_id"`
	TeacherID int64     `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}
