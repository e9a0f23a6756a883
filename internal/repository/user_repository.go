package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, role, full_name, email, phone, telegram_chat_id, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Role,
		&user.FullName,
		&user.Email,
		&user.Phone,
		&user.TelegramChatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

// GetAdmins получает всех администраторов (для служебных уведомлений)
func (r *UserRepository) GetAdmins(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT id, role, full_name, email, phone, telegram_chat_id, created_at, updated_at
		FROM users
		WHERE role = 'admin'
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get admins: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID,
			&user.Role,
			&user.FullName,
			&user.Email,
			&user.Phone,
			&user.TelegramChatID,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, nil
}

// UpdateContactTx обновляет контактные данные студента внутри транзакции
func (r *UserRepository) UpdateContactTx(ctx context.Context, q base.Querier, id int64, phone, email string) error {
	query := `
		UPDATE users
		SET phone = $1, email = $2, updated_at = now()
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, phone, email, id)
	if err != nil {
		return fmt.Errorf("update user contact: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
