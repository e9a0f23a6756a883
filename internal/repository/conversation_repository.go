package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// CreateIfAbsentTx лениво создаёт чат бронирования внутри транзакции.
// Повторный вызов для того же бронирования ничего не меняет.
func (r *ConversationRepository) CreateIfAbsentTx(ctx context.Context, q base.Querier, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (booking_id, student_id, teacher_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (booking_id) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, conv.BookingID, conv.StudentID, conv.TeacherID); err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}

	return nil
}

// GetByBookingID получает чат бронирования
func (r *ConversationRepository) GetByBookingID(ctx context.Context, bookingID int64) (*model.Conversation, error) {
	query := `
		SELECT id, booking_id, student_id, teacher_id, created_at
		FROM conversations
		WHERE booking_id = $1
	`

	var conv model.Conversation
	err := r.pool.QueryRow(ctx, query, bookingID).Scan(
		&conv.ID,
		&conv.BookingID,
		&conv.StudentID,
		&conv.TeacherID,
		&conv.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation by booking: %w", err)
	}

	return &conv, nil
}
