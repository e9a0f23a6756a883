package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateBatchTx создаёт занятия бронирования одной транзакцией
func (r *SessionRepository) CreateBatchTx(ctx context.Context, q base.Querier, sessions []*model.Session) error {
	query := `
		INSERT INTO sessions (booking_id, session_date, status, is_unlocked)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	for _, session := range sessions {
		err := q.QueryRow(
			ctx, query,
			session.BookingID,
			session.SessionDate,
			session.Status,
			session.IsUnlocked,
		).Scan(&session.ID, &session.CreatedAt)

		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
	}

	return nil
}

// GetByID получает занятие по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	query := `
		SELECT id, booking_id, session_date, status, is_unlocked, teacher_report,
		       student_attended, completed_at, payout_id, created_at
		FROM sessions
		WHERE id = $1
	`

	var session model.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.BookingID,
		&session.SessionDate,
		&session.Status,
		&session.IsUnlocked,
		&session.TeacherReport,
		&session.StudentAttended,
		&session.CompletedAt,
		&session.PayoutID,
		&session.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return &session, nil
}

// GetByBookingID получает занятия бронирования в хронологическом порядке
func (r *SessionRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Session, error) {
	return r.getByBookingID(ctx, r.pool, bookingID)
}

// GetByBookingIDTx то же самое внутри транзакции
func (r *SessionRepository) GetByBookingIDTx(ctx context.Context, q base.Querier, bookingID int64) ([]*model.Session, error) {
	return r.getByBookingID(ctx, q, bookingID)
}

func (r *SessionRepository) getByBookingID(ctx context.Context, q base.Querier, bookingID int64) ([]*model.Session, error) {
	query := `
		SELECT id, booking_id, session_date, status, is_unlocked, teacher_report,
		       student_attended, completed_at, payout_id, created_at
		FROM sessions
		WHERE booking_id = $1
		ORDER BY session_date ASC
	`

	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get sessions by booking: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var session model.Session
		err := rows.Scan(
			&session.ID,
			&session.BookingID,
			&session.SessionDate,
			&session.Status,
			&session.IsUnlocked,
			&session.TeacherReport,
			&session.StudentAttended,
			&session.CompletedAt,
			&session.PayoutID,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, nil
}

// GetTeacherBusyAt возвращает моменты из candidates, занятые существующими занятиями учителя.
// Занятия отменённых бронирований и уже завершённые занятия не считаются занятыми.
func (r *SessionRepository) GetTeacherBusyAt(ctx context.Context, teacherID int64, candidates []time.Time) ([]time.Time, error) {
	query := `
		SELECT s.session_date
		FROM sessions s
		JOIN bookings b ON b.id = s.booking_id
		JOIN courses c ON c.id = b.course_id
		WHERE c.teacher_id = $1
		  AND s.session_date = ANY($2)
		  AND b.status <> 'cancelled'
		  AND s.status <> 'completed'
	`

	rows, err := r.pool.Query(ctx, query, teacherID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get teacher busy instants: %w", err)
	}
	defer rows.Close()

	var busy []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan instant: %w", err)
		}
		busy = append(busy, t)
	}

	return busy, nil
}

// UnlockFirstTx открывает первые limit занятий бронирования по возрастанию даты.
// Уже открытые занятия остаются открытыми, так что открытие монотонно.
func (r *SessionRepository) UnlockFirstTx(ctx context.Context, q base.Querier, bookingID int64, limit int) (int64, error) {
	query := `
		UPDATE sessions
		SET is_unlocked = true
		WHERE id IN (
			SELECT id FROM sessions
			WHERE booking_id = $1
			ORDER BY session_date ASC
			LIMIT $2
		)
	`

	tag, err := q.Exec(ctx, query, bookingID, limit)
	if err != nil {
		return 0, fmt.Errorf("unlock sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// UnlockAllTx открывает все занятия бронирования
func (r *SessionRepository) UnlockAllTx(ctx context.Context, q base.Querier, bookingID int64) (int64, error) {
	query := `UPDATE sessions SET is_unlocked = true WHERE booking_id = $1`

	tag, err := q.Exec(ctx, query, bookingID)
	if err != nil {
		return 0, fmt.Errorf("unlock all sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CompleteWithReport помечает занятие завершённым и сохраняет отчёт учителя
func (r *SessionRepository) CompleteWithReport(ctx context.Context, id int64, report string, completedAt time.Time) error {
	query := `
		UPDATE sessions
		SET status = 'completed', teacher_report = $1, completed_at = $2
		WHERE id = $3
	`

	tag, err := r.pool.Exec(ctx, query, report, completedAt, id)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// SetAttendance сохраняет отметку студента о посещении
func (r *SessionRepository) SetAttendance(ctx context.Context, id int64, attended bool) error {
	query := `UPDATE sessions SET student_attended = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, attended, id)
	if err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// CompletedUnclaimed - завершённое занятие, ещё не включённое ни в одну выплату
type CompletedUnclaimed struct {
	SessionID int64
	TeacherID int64
	Price     int64 // цена занятия из снимка в бронировании
}

// GetCompletedUnclaimed выбирает завершённые занятия без выплаты за период [from, to)
func (r *SessionRepository) GetCompletedUnclaimed(ctx context.Context, from, to time.Time) ([]CompletedUnclaimed, error) {
	query := `
		SELECT s.id, c.teacher_id, b.price_per_session
		FROM sessions s
		JOIN bookings b ON b.id = s.booking_id
		JOIN courses c ON c.id = b.course_id
		WHERE s.status = 'completed'
		  AND s.payout_id IS NULL
		  AND s.completed_at >= $1
		  AND s.completed_at < $2
		ORDER BY c.teacher_id, s.completed_at
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("get completed unclaimed sessions: %w", err)
	}
	defer rows.Close()

	var result []CompletedUnclaimed
	for rows.Next() {
		var cu CompletedUnclaimed
		if err := rows.Scan(&cu.SessionID, &cu.TeacherID, &cu.Price); err != nil {
			return nil, fmt.Errorf("scan completed session: %w", err)
		}
		result = append(result, cu)
	}

	return result, nil
}

// ClaimForPayoutTx проставляет payout_id на занятиях внутри транзакции выплаты.
// Условие payout_id IS NULL повторяется в UPDATE: параллельный расчёт не сможет
// забрать те же занятия, и несовпадение счётчика строк видно вызывающему.
func (r *SessionRepository) ClaimForPayoutTx(ctx context.Context, q base.Querier, payoutID int64, sessionIDs []int64) (int64, error) {
	query := `
		UPDATE sessions
		SET payout_id = $1
		WHERE id = ANY($2) AND payout_id IS NULL
	`

	tag, err := q.Exec(ctx, query, payoutID, sessionIDs)
	if err != nil {
		return 0, fmt.Errorf("claim sessions for payout: %w", err)
	}

	return tag.RowsAffected(), nil
}
