package model

import "time"

// Notification - запись в истории уведомлений.
// Realtime-доставка (очередь, telegram) идёт поверх этой записи.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Content     string    `json:"content"`
	Link        string    `json:"link"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}
