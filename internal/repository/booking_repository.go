package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateTx создаёт бронирование внутри транзакции
func (r *BookingRepository) CreateTx(ctx context.Context, q base.Querier, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (student_id, course_id, status, payment_method, total_installments, price_per_session, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		booking.StudentID,
		booking.CourseID,
		booking.Status,
		booking.PaymentMethod,
		booking.TotalInstallments,
		booking.PricePerSession,
		booking.TotalAmount,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return r.getByID(ctx, r.pool, id)
}

// GetByIDTx получает бронирование внутри транзакции
func (r *BookingRepository) GetByIDTx(ctx context.Context, q base.Querier, id int64) (*model.Booking, error) {
	return r.getByID(ctx, q, id)
}

func (r *BookingRepository) getByID(ctx context.Context, q base.Querier, id int64) (*model.Booking, error) {
	query := `
		SELECT id, student_id, course_id, status, payment_method, total_installments,
		       price_per_session, total_amount, course_completion_date, overall_report, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var booking model.Booking
	err := q.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.StudentID,
		&booking.CourseID,
		&booking.Status,
		&booking.PaymentMethod,
		&booking.TotalInstallments,
		&booking.PricePerSession,
		&booking.TotalAmount,
		&booking.CourseCompletionDate,
		&booking.OverallReport,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &booking, nil
}

// GetByStudentID получает все бронирования студента
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT id, student_id, course_id, status, payment_method, total_installments,
		       price_per_session, total_amount, course_completion_date, overall_report, created_at, updated_at
		FROM bookings
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, studentID)
}

// GetByTeacherID получает все бронирования на курсы учителя
func (r *BookingRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.Booking, error) {
	query := `
		SELECT b.id, b.student_id, b.course_id, b.status, b.payment_method, b.total_installments,
		       b.price_per_session, b.total_amount, b.course_completion_date, b.overall_report, b.created_at, b.updated_at
		FROM bookings b
		JOIN courses c ON c.id = b.course_id
		WHERE c.teacher_id = $1
		ORDER BY b.created_at DESC
	`

	return r.list(ctx, query, teacherID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.StudentID,
			&booking.CourseID,
			&booking.Status,
			&booking.PaymentMethod,
			&booking.TotalInstallments,
			&booking.PricePerSession,
			&booking.TotalAmount,
			&booking.CourseCompletionDate,
			&booking.OverallReport,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, &booking)
	}

	return bookings, nil
}

// UpdateStatusTx обновляет статус бронирования внутри транзакции
func (r *BookingRepository) UpdateStatusTx(ctx context.Context, q base.Querier, id int64, status model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	tag, err := q.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// SetCompletionDateTx выставляет дату завершения курса, только если она ещё не выставлена
func (r *BookingRepository) SetCompletionDateTx(ctx context.Context, q base.Querier, id int64, completedAt time.Time) error {
	query := `
		UPDATE bookings
		SET course_completion_date = $1, updated_at = now()
		WHERE id = $2 AND course_completion_date IS NULL
	`

	// Ноль затронутых строк здесь допустим: дата уже была выставлена ранее
	if _, err := q.Exec(ctx, query, completedAt, id); err != nil {
		return fmt.Errorf("set completion date: %w", err)
	}

	return nil
}

// SetOverallReportTx сохраняет итоговый отчёт учителя по курсу
func (r *BookingRepository) SetOverallReportTx(ctx context.Context, q base.Querier, id int64, report string) error {
	query := `
		UPDATE bookings
		SET overall_report = $1, updated_at = now()
		WHERE id = $2
	`

	if _, err := q.Exec(ctx, query, report, id); err != nil {
		return fmt.Errorf("set overall report: %w", err)
	}

	return nil
}

// Delete удаляет бронирование (занятия и платежи удаляются каскадно)
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}
