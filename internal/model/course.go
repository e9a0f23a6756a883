package model

import "time"

type Course struct {
	ID          int64     `json:"id"`
	TeacherID   int64     `json:"teacher_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // цена одного занятия, в копейках/центах
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
