package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"go.uber.org/zap"
)

type payoutSessionStore interface {
	GetCompletedUnclaimed(ctx context.Context, from, to time.Time) ([]repository.CompletedUnclaimed, error)
	ClaimForPayoutTx(ctx context.Context, q base.Querier, payoutID int64, sessionIDs []int64) (int64, error)
}

type payoutStore interface {
	CreateTx(ctx context.Context, q base.Querier, payout *model.TeacherPayout) error
	GetByID(ctx context.Context, id int64) (*model.TeacherPayout, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.TeacherPayout, error)
	UpdateStatus(ctx context.Context, id int64, status model.PayoutStatus, reference, proofURL *string, paidAt *time.Time) error
}

// feeSource отдаёт текущую комиссию платформы
type feeSource interface {
	ServiceFeePercentage(ctx context.Context) float64
}

type PayoutService struct {
	pool        txBeginner
	sessionRepo payoutSessionStore
	payoutRepo  payoutStore
	settings    feeSource
	notifier    notifySink
	logger      *zap.Logger
}

func NewPayoutService(
	pool txBeginner,
	sessionRepo payoutSessionStore,
	payoutRepo payoutStore,
	settings feeSource,
	notifier notifySink,
	logger *zap.Logger,
) *PayoutService {
	return &PayoutService{
		pool:        pool,
		sessionRepo: sessionRepo,
		payoutRepo:  payoutRepo,
		settings:    settings,
		notifier:    notifier,
		logger:      logger,
	}
}

// PreviousWeekWindow возвращает предыдущую полную календарную неделю [пн 00:00, пн 00:00)
func PreviousWeekWindow(now time.Time) (time.Time, time.Time) {
	// Понедельник текущей недели
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -daysSinceMonday)

	return weekStart.AddDate(0, 0, -7), weekStart
}

// teacherGroup - накопитель по одному учителю за период
type teacherGroup struct {
	teacherID  int64
	sessionIDs []int64
	gross      int64
	honorarium int64
}

// groupSessions группирует завершённые занятия по учителям и считает гонорар.
// Гонорар каждого занятия округляется до целой минимальной единицы.
func groupSessions(sessions []repository.CompletedUnclaimed, feePercentage float64) []*teacherGroup {
	byTeacher := make(map[int64]*teacherGroup)
	var order []int64

	for _, s := range sessions {
		g, ok := byTeacher[s.TeacherID]
		if !ok {
			g = &teacherGroup{teacherID: s.TeacherID}
			byTeacher[s.TeacherID] = g
			order = append(order, s.TeacherID)
		}
		g.sessionIDs = append(g.sessionIDs, s.SessionID)
		g.gross += s.Price
		g.honorarium += SessionHonorarium(s.Price, feePercentage)
	}

	groups := make([]*teacherGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, byTeacher[id])
	}
	return groups
}

// SessionHonorarium - гонорар за одно занятие после вычета комиссии платформы
func SessionHonorarium(price int64, feePercentage float64) int64 {
	return int64(math.Round(float64(price) * (1 - feePercentage)))
}

// RunPayoutCalculation рассчитывает выплаты за окно [start, end).
// Создание выплаты и простановка payout_id на её занятиях идут одной транзакцией
// на каждого учителя: занятие не может быть учтено дважды.
func (s *PayoutService) RunPayoutCalculation(ctx context.Context, start, end time.Time) ([]*model.TeacherPayout, error) {
	if !end.After(start) {
		return nil, apperror.Validation("payout window end must be after start")
	}

	sessions, err := s.sessionRepo.GetCompletedUnclaimed(ctx, start, end)
	if err != nil {
		return nil, apperror.Internal(err, "get completed sessions")
	}

	if len(sessions) == 0 {
		return nil, nil
	}

	// Комиссия снимается один раз на запуск и снимком пишется в каждую выплату
	feePercentage := s.settings.ServiceFeePercentage(ctx)

	var payouts []*model.TeacherPayout
	for _, group := range groupSessions(sessions, feePercentage) {
		// Учителей с нулевым гонораром пропускаем
		if group.honorarium == 0 {
			continue
		}

		payout, err := s.createPayoutForGroup(ctx, group, start, end, feePercentage)
		if err != nil {
			s.logger.Error("Failed to create payout",
				zap.Int64("teacher_id", group.teacherID),
				zap.Error(err))
			continue
		}

		if payout != nil {
			payouts = append(payouts, payout)
			s.notifier.Notify(payout.TeacherID,
				fmt.Sprintf("Honorarium for %s - %s is ready for payment",
					start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02")),
				fmt.Sprintf("/payouts/%d", payout.ID))
		}
	}

	s.logger.Info("Payout calculation finished",
		zap.Time("period_start", start),
		zap.Time("period_end", end),
		zap.Int("sessions", len(sessions)),
		zap.Int("payouts_created", len(payouts)),
	)

	return payouts, nil
}

// createPayoutForGroup атомарно создаёт выплату и забирает её занятия.
// Возвращает nil без ошибки, если занятия успел забрать параллельный запуск.
func (s *PayoutService) createPayoutForGroup(ctx context.Context, group *teacherGroup, start, end time.Time, feePercentage float64) (*model.TeacherPayout, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	payout := &model.TeacherPayout{
		TeacherID:            group.teacherID,
		PeriodStart:          start,
		PeriodEnd:            end,
		TotalSessions:        len(group.sessionIDs),
		GrossAmount:          group.gross,
		HonorariumAmount:     group.honorarium,
		ServiceFeePercentage: feePercentage,
		Status:               model.PayoutStatusPendingPayment,
	}

	if err := s.payoutRepo.CreateTx(ctx, tx, payout); err != nil {
		return nil, fmt.Errorf("create payout: %w", err)
	}

	claimed, err := s.sessionRepo.ClaimForPayoutTx(ctx, tx, payout.ID, group.sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("claim sessions: %w", err)
	}

	// Часть занятий уже забрал другой запуск - откатываемся, их учтёт он
	if claimed != int64(len(group.sessionIDs)) {
		s.logger.Warn("Payout claim mismatch, rolling back",
			zap.Int64("teacher_id", group.teacherID),
			zap.Int64("claimed", claimed),
			zap.Int("expected", len(group.sessionIDs)),
		)
		return nil, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.logger.Info("Payout created",
		zap.Int64("payout_id", payout.ID),
		zap.Int64("teacher_id", group.teacherID),
		zap.Int("sessions", payout.TotalSessions),
		zap.Int64("honorarium", payout.HonorariumAmount),
		zap.Float64("service_fee", feePercentage),
	)

	return payout, nil
}

// UpdatePayoutStatus переводит выплату в новый статус (только администратор).
// Переход в paid терминален и уведомляет учителя с указанием периода.
func (s *PayoutService) UpdatePayoutStatus(ctx context.Context, actor model.Actor, payoutID int64, newStatus model.PayoutStatus, reference, proofURL *string) (*model.TeacherPayout, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Unauthorized("only admins can update payout status")
	}

	if !model.ValidPayoutStatus(newStatus) {
		return nil, apperror.Validation("unknown payout status %q", newStatus)
	}

	payout, err := s.payoutRepo.GetByID(ctx, payoutID)
	if err != nil {
		return nil, apperror.Internal(err, "get payout")
	}

	if payout == nil {
		return nil, apperror.NotFound("payout %d not found", payoutID)
	}

	if !model.CanPayoutTransition(payout.Status, newStatus) {
		return nil, apperror.InvalidState("cannot move payout from %s to %s", payout.Status, newStatus)
	}

	var paidAt *time.Time
	if newStatus == model.PayoutStatusPaid {
		now := time.Now()
		paidAt = &now
	}

	if err := s.payoutRepo.UpdateStatus(ctx, payoutID, newStatus, reference, proofURL, paidAt); err != nil {
		return nil, apperror.Internal(err, "update payout status")
	}

	s.logger.Info("Payout status updated",
		zap.Int64("payout_id", payoutID),
		zap.String("from", string(payout.Status)),
		zap.String("to", string(newStatus)),
	)

	if newStatus == model.PayoutStatusPaid {
		s.notifier.Notify(payout.TeacherID,
			fmt.Sprintf("Honorarium for %s - %s has been paid",
				payout.PeriodStart.Format("2006-01-02"),
				payout.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02")),
			fmt.Sprintf("/payouts/%d", payoutID))
	}

	payout.Status = newStatus
	payout.PaidAt = paidAt

	return payout, nil
}

// GetTeacherPayouts возвращает выплаты учителя
func (s *PayoutService) GetTeacherPayouts(ctx context.Context, actor model.Actor, teacherID int64) ([]*model.TeacherPayout, error) {
	if !actor.IsAdmin() && actor.ID != teacherID {
		return nil, apperror.Unauthorized("no access to another teacher's payouts")
	}

	return s.payoutRepo.GetByTeacherID(ctx, teacherID)
}
