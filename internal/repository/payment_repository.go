package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreateBatchTx создаёт платежи бронирования внутри транзакции
func (r *PaymentRepository) CreateBatchTx(ctx context.Context, q base.Querier, payments []*model.Payment) error {
	query := `
		INSERT INTO payments (booking_id, installment_number, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	for _, payment := range payments {
		err := q.QueryRow(
			ctx, query,
			payment.BookingID,
			payment.InstallmentNumber,
			payment.Amount,
			payment.Status,
		).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)

		if err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
	}

	return nil
}

// GetByID получает платёж по ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	query := `
		SELECT id, booking_id, installment_number, amount, status, proof_url, paid_at, created_at, updated_at
		FROM payments
		WHERE id = $1
	`

	var payment model.Payment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.InstallmentNumber,
		&payment.Amount,
		&payment.Status,
		&payment.ProofURL,
		&payment.PaidAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}

	return &payment, nil
}

// GetByBookingID получает платежи бронирования по номеру взноса
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) ([]*model.Payment, error) {
	query := `
		SELECT id, booking_id, installment_number, amount, status, proof_url, paid_at, created_at, updated_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY installment_number ASC
	`

	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get payments by booking: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		var payment model.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.BookingID,
			&payment.InstallmentNumber,
			&payment.Amount,
			&payment.Status,
			&payment.ProofURL,
			&payment.PaidAt,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, &payment)
	}

	return payments, nil
}

// UpdateStatusTx обновляет статус платежа внутри транзакции
func (r *PaymentRepository) UpdateStatusTx(ctx context.Context, q base.Querier, id int64, status model.PaymentStatus, paidAt *time.Time) error {
	query := `
		UPDATE payments
		SET status = $1, paid_at = COALESCE($2, paid_at), updated_at = now()
		WHERE id = $3
	`

	tag, err := q.Exec(ctx, query, status, paidAt, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}

// CountPaidTx считает оплаченные взносы бронирования внутри транзакции
func (r *PaymentRepository) CountPaidTx(ctx context.Context, q base.Querier, bookingID int64) (int, error) {
	query := `SELECT count(*) FROM payments WHERE booking_id = $1 AND status = 'paid'`

	var count int
	if err := q.QueryRow(ctx, query, bookingID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count paid payments: %w", err)
	}

	return count, nil
}

// HasPaid проверяет есть ли у бронирования хотя бы один оплаченный платёж
func (r *PaymentRepository) HasPaid(ctx context.Context, bookingID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM payments WHERE booking_id = $1 AND status = 'paid')`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, bookingID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check paid payments: %w", err)
	}

	return exists, nil
}

// SetProofURL сохраняет ссылку на подтверждение оплаты
func (r *PaymentRepository) SetProofURL(ctx context.Context, id int64, url string) error {
	query := `UPDATE payments SET proof_url = $1, updated_at = now() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("set proof url: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment not found")
	}

	return nil
}
