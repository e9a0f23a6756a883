package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PayoutRepository struct {
	pool *pgxpool.Pool
}

func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

// CreateTx создаёт выплату внутри транзакции (вместе с простановкой payout_id на занятиях)
func (r *PayoutRepository) CreateTx(ctx context.Context, q base.Querier, payout *model.TeacherPayout) error {
	query := `
		INSERT INTO teacher_payouts (teacher_id, period_start, period_end, total_sessions,
		                             gross_amount, honorarium_amount, service_fee_percentage, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		payout.TeacherID,
		payout.PeriodStart,
		payout.PeriodEnd,
		payout.TotalSessions,
		payout.GrossAmount,
		payout.HonorariumAmount,
		payout.ServiceFeePercentage,
		payout.Status,
	).Scan(&payout.ID, &payout.CreatedAt, &payout.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}

	return nil
}

// GetByID получает выплату по ID
func (r *PayoutRepository) GetByID(ctx context.Context, id int64) (*model.TeacherPayout, error) {
	query := `
		SELECT id, teacher_id, period_start, period_end, total_sessions, gross_amount,
		       honorarium_amount, service_fee_percentage, status, payment_reference,
		       proof_url, paid_at, created_at, updated_at
		FROM teacher_payouts
		WHERE id = $1
	`

	var payout model.TeacherPayout
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&payout.ID,
		&payout.TeacherID,
		&payout.PeriodStart,
		&payout.PeriodEnd,
		&payout.TotalSessions,
		&payout.GrossAmount,
		&payout.HonorariumAmount,
		&payout.ServiceFeePercentage,
		&payout.Status,
		&payout.PaymentReference,
		&payout.ProofURL,
		&payout.PaidAt,
		&payout.CreatedAt,
		&payout.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payout by id: %w", err)
	}

	return &payout, nil
}

// GetByTeacherID получает выплаты учителя
func (r *PayoutRepository) GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.TeacherPayout, error) {
	query := `
		SELECT id, teacher_id, period_start, period_end, total_sessions, gross_amount,
		       honorarium_amount, service_fee_percentage, status, payment_reference,
		       proof_url, paid_at, created_at, updated_at
		FROM teacher_payouts
		WHERE teacher_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get payouts by teacher: %w", err)
	}
	defer rows.Close()

	var payouts []*model.TeacherPayout
	for rows.Next() {
		var payout model.TeacherPayout
		err := rows.Scan(
			&payout.ID,
			&payout.TeacherID,
			&payout.PeriodStart,
			&payout.PeriodEnd,
			&payout.TotalSessions,
			&payout.GrossAmount,
			&payout.HonorariumAmount,
			&payout.ServiceFeePercentage,
			&payout.Status,
			&payout.PaymentReference,
			&payout.ProofURL,
			&payout.PaidAt,
			&payout.CreatedAt,
			&payout.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, &payout)
	}

	return payouts, nil
}

// UpdateStatus обновляет статус выплаты вместе с реквизитами оплаты
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id int64, status model.PayoutStatus, reference, proofURL *string, paidAt *time.Time) error {
	query := `
		UPDATE teacher_payouts
		SET status = $1,
		    payment_reference = COALESCE($2, payment_reference),
		    proof_url = COALESCE($3, proof_url),
		    paid_at = COALESCE($4, paid_at),
		    updated_at = now()
		WHERE id = $5
	`

	tag, err := r.pool.Exec(ctx, query, status, reference, proofURL, paidAt, id)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payout not found")
	}

	return nil
}
