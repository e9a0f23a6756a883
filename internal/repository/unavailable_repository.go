package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UnavailableRepository struct {
	pool *pgxpool.Pool
}

func NewUnavailableRepository(pool *pgxpool.Pool) *UnavailableRepository {
	return &UnavailableRepository{pool: pool}
}

// Create создаёт блокировку момента времени
func (r *UnavailableRepository) Create(ctx context.Context, date *model.TeacherUnavailableDate) error {
	query := `
		INSERT INTO teacher_unavailable_dates (teacher_id, blocked_at)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, date.TeacherID, date.BlockedAt).
		Scan(&date.ID, &date.CreatedAt)

	if err != nil {
		return fmt.Errorf("create unavailable date: %w", err)
	}

	return nil
}

// GetByID получает блокировку по ID
func (r *UnavailableRepository) GetByID(ctx context.Context, id int64) (*model.TeacherUnavailableDate, error) {
	query := `
		SELECT id, teacher_id, blocked_at, created_at
		FROM teacher_unavailable_dates
		WHERE id = $1
	`

	var date model.TeacherUnavailableDate
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&date.ID,
		&date.TeacherID,
		&date.BlockedAt,
		&date.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unavailable date by id: %w", err)
	}

	return &date, nil
}

// GetByTeacherID получает все блокировки учителя
func (r *UnavailableRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.TeacherUnavailableDate, error) {
	query := `
		SELECT id, teacher_id, blocked_at, created_at
		FROM teacher_unavailable_dates
		WHERE teacher_id = $1
		ORDER BY blocked_at ASC
	`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get unavailable dates by teacher: %w", err)
	}
	defer rows.Close()

	var dates []*model.TeacherUnavailableDate
	for rows.Next() {
		var date model.TeacherUnavailableDate
		err := rows.Scan(&date.ID, &date.TeacherID, &date.BlockedAt, &date.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan unavailable date: %w", err)
		}
		dates = append(dates, &date)
	}

	return dates, nil
}

// GetBlockedAt возвращает моменты из candidates, заблокированные учителем вручную
func (r *UnavailableRepository) GetBlockedAt(ctx context.Context, teacherID int64, candidates []time.Time) ([]time.Time, error) {
	query := `
		SELECT blocked_at
		FROM teacher_unavailable_dates
		WHERE teacher_id = $1 AND blocked_at = ANY($2)
	`

	rows, err := r.pool.Query(ctx, query, teacherID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get blocked instants: %w", err)
	}
	defer rows.Close()

	var blocked []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan instant: %w", err)
		}
		blocked = append(blocked, t)
	}

	return blocked, nil
}

// Delete удаляет блокировку
func (r *UnavailableRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM teacher_unavailable_dates WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete unavailable date: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unavailable date not found")
	}

	return nil
}
