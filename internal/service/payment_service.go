package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/filestore"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PaymentService struct {
	pool        *pgxpool.Pool
	paymentRepo *repository.PaymentRepository
	bookingRepo *repository.BookingRepository
	sessionRepo *repository.SessionRepository
	files       *filestore.Store
	notifier    *NotificationService
	logger      *zap.Logger
}

func NewPaymentService(
	pool *pgxpool.Pool,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	sessionRepo *repository.SessionRepository,
	files *filestore.Store,
	notifier *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		pool:        pool,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		sessionRepo: sessionRepo,
		files:       files,
		notifier:    notifier,
		logger:      logger,
	}
}

// UnlockTarget считает сколько занятий должно быть открыто после paidInstallments
// оплаченных взносов. Пропорциональное накопление: деление нацело не требуется,
// к последнему взносу открывается всё.
func UnlockTarget(totalSessions, paidInstallments, totalInstallments int) int {
	if totalInstallments <= 0 || paidInstallments <= 0 {
		return 0
	}

	if paidInstallments >= totalInstallments {
		return totalSessions
	}

	return totalSessions * paidInstallments / totalInstallments
}

// SetPaymentStatus переводит платёж в новый статус. Переход в paid в той же
// транзакции открывает занятия по накопленной оплате.
func (s *PaymentService) SetPaymentStatus(ctx context.Context, actor model.Actor, paymentID int64, newStatus model.PaymentStatus) (*model.Payment, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Unauthorized("only admins can change payment status")
	}

	if !model.ValidPaymentStatus(newStatus) {
		return nil, apperror.Validation("unknown payment status %q", newStatus)
	}

	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, apperror.Internal(err, "get payment")
	}

	if payment == nil {
		return nil, apperror.NotFound("payment %d not found", paymentID)
	}

	if !model.CanPaymentTransition(payment.Status, newStatus) {
		return nil, apperror.InvalidState("cannot move payment from %s to %s", payment.Status, newStatus)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return nil, apperror.NotFound("booking %d not found", payment.BookingID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var paidAt *time.Time
	if newStatus == model.PaymentStatusPaid {
		now := time.Now()
		paidAt = &now
	}

	if err := s.paymentRepo.UpdateStatusTx(ctx, tx, paymentID, newStatus, paidAt); err != nil {
		return nil, apperror.Internal(err, "update payment status")
	}

	unlocked := 0
	if newStatus == model.PaymentStatusPaid {
		unlocked, err = s.unlockSessionsTx(ctx, tx, booking)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.Internal(err, "commit transaction")
	}

	s.logger.Info("Payment status updated",
		zap.Int64("payment_id", paymentID),
		zap.Int64("booking_id", booking.ID),
		zap.String("from", string(payment.Status)),
		zap.String("to", string(newStatus)),
		zap.Int("sessions_unlocked", unlocked),
	)

	payment.Status = newStatus
	payment.PaidAt = paidAt

	if newStatus == model.PaymentStatusPaid {
		s.notifier.Notify(booking.StudentID,
			fmt.Sprintf("Payment %d/%d confirmed", payment.InstallmentNumber, booking.TotalInstallments),
			fmt.Sprintf("/bookings/%d", booking.ID))
	}

	return payment, nil
}

// unlockSessionsTx открывает занятия по накопленной оплате внутри транзакции платежа.
// Открытие монотонно: уже открытые занятия не закрываются, даже если
// следующий взнос позже сорвётся.
func (s *PaymentService) unlockSessionsTx(ctx context.Context, tx base.Querier, booking *model.Booking) (int, error) {
	if booking.PaymentMethod == model.PaymentMethodFull {
		affected, err := s.sessionRepo.UnlockAllTx(ctx, tx, booking.ID)
		if err != nil {
			return 0, apperror.Internal(err, "unlock all sessions")
		}
		return int(affected), nil
	}

	// Считаем оплаченные взносы уже после обновления статуса в этой транзакции
	paidCount, err := s.paymentRepo.CountPaidTx(ctx, tx, booking.ID)
	if err != nil {
		return 0, apperror.Internal(err, "count paid payments")
	}

	sessions, err := s.sessionRepo.GetByBookingIDTx(ctx, tx, booking.ID)
	if err != nil {
		return 0, apperror.Internal(err, "get sessions")
	}

	target := UnlockTarget(len(sessions), paidCount, booking.TotalInstallments)
	if target == 0 {
		return 0, nil
	}

	// Открываем первые target занятий по возрастанию даты, строго по хронологии
	if _, err := s.sessionRepo.UnlockFirstTx(ctx, tx, booking.ID, target); err != nil {
		return 0, apperror.Internal(err, "unlock sessions")
	}

	return target, nil
}

// UploadProofOfPayment сохраняет подтверждение оплаты и привязывает ссылку к платежу
func (s *PaymentService) UploadProofOfPayment(ctx context.Context, actor model.Actor, paymentID int64, filename string, file io.Reader) (string, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return "", apperror.Internal(err, "get payment")
	}

	if payment == nil {
		return "", apperror.NotFound("payment %d not found", paymentID)
	}

	booking, err := s.bookingRepo.GetByID(ctx, payment.BookingID)
	if err != nil {
		return "", apperror.Internal(err, "get booking")
	}

	if booking == nil {
		return "", apperror.NotFound("booking %d not found", payment.BookingID)
	}

	if !actor.IsAdmin() && booking.StudentID != actor.ID {
		return "", apperror.Unauthorized("payment belongs to another student")
	}

	url, err := s.files.Save(ctx, "payment-proofs", filename, file)
	if err != nil {
		return "", apperror.Internal(err, "save proof file")
	}

	if err := s.paymentRepo.SetProofURL(ctx, paymentID, url); err != nil {
		return "", apperror.Internal(err, "set proof url")
	}

	s.logger.Info("Proof of payment uploaded",
		zap.Int64("payment_id", paymentID),
		zap.String("url", url),
	)

	return url, nil
}
