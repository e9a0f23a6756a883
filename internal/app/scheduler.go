package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	payoutService *service.PayoutService
	logger        *zap.Logger
	stopChan      chan struct{}

	lastPeriodEnd time.Time // конец последнего рассчитанного недельного окна
}

// NewScheduler создаёт новый планировщик
func NewScheduler(payoutService *service.PayoutService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		payoutService: payoutService,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")

	// Запускаем еженедельный расчёт выплат
	go s.runPayoutTask(ctx)
}

// Stop останавливает фоновые задачи
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runPayoutTask периодически запускает расчёт выплат учителям
func (s *Scheduler) runPayoutTask(ctx context.Context) {
	// Первый запуск сразу при старте: догоняем окно, пропущенное пока сервис лежал.
	// Повторный расчёт безопасен - занятия с payout_id в выборку не попадают.
	s.runWeeklyPayout(ctx)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runWeeklyPayout(ctx)
		case <-s.stopChan:
			s.logger.Info("Payout task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Payout task cancelled")
			return
		}
	}
}

// runWeeklyPayout рассчитывает выплаты за предыдущую полную календарную неделю
func (s *Scheduler) runWeeklyPayout(ctx context.Context) {
	start, end := service.PreviousWeekWindow(time.Now())

	// Окно этой недели уже рассчитано в этом процессе
	if s.lastPeriodEnd.Equal(end) {
		return
	}

	s.logger.Info("Starting weekly payout calculation",
		zap.Time("period_start", start),
		zap.Time("period_end", end),
	)

	payouts, err := s.payoutService.RunPayoutCalculation(ctx, start, end)
	if err != nil {
		s.logger.Error("Failed to calculate payouts", zap.Error(err))
		return
	}

	s.lastPeriodEnd = end

	s.logger.Info("Weekly payout calculation completed",
		zap.Int("payouts_created", len(payouts)),
	)
}
