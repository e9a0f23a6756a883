package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository/base"
	"go.uber.org/zap"
)

// Conflict описывает первый найденный конфликт расписания
type Conflict struct {
	Instant time.Time `json:"instant"`
	Reason  string    `json:"reason"`
}

type busyStore interface {
	GetTeacherBusyAt(ctx context.Context, teacherID int64, candidates []time.Time) ([]time.Time, error)
}

type unavailableStore interface {
	Create(ctx context.Context, date *model.TeacherUnavailableDate) error
	GetByID(ctx context.Context, id int64) (*model.TeacherUnavailableDate, error)
	GetByTeacherID(ctx context.Context, teacherID int64) ([]*model.TeacherUnavailableDate, error)
	GetBlockedAt(ctx context.Context, teacherID int64, candidates []time.Time) ([]time.Time, error)
	Delete(ctx context.Context, id int64) error
}

// AvailabilityService проверяет расписание учителя на конфликты.
// Сравнение идёт по точному совпадению момента времени: занятия не несут
// длительности, поэтому окна пересечения здесь считать не из чего.
type AvailabilityService struct {
	sessionRepo     busyStore
	unavailableRepo unavailableStore
	logger          *zap.Logger
}

func NewAvailabilityService(
	sessionRepo busyStore,
	unavailableRepo unavailableStore,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		sessionRepo:     sessionRepo,
		unavailableRepo: unavailableRepo,
		logger:          logger,
	}
}

// FindConflicts ищет первый конфликт среди кандидатов. nil - все моменты свободны.
// Вызывающий отклоняет бронирование целиком при любом конфликте.
func (s *AvailabilityService) FindConflicts(ctx context.Context, teacherID int64, candidates []time.Time) (*Conflict, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	busy, err := s.sessionRepo.GetTeacherBusyAt(ctx, teacherID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get busy instants: %w", err)
	}

	blocked, err := s.unavailableRepo.GetBlockedAt(ctx, teacherID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get blocked instants: %w", err)
	}

	return matchConflict(candidates, busy, blocked), nil
}

// matchConflict сопоставляет кандидатов с занятыми и заблокированными моментами.
// Возвращает первый конфликт в порядке следования кандидатов.
func matchConflict(candidates, busy, blocked []time.Time) *Conflict {
	busySet := make(map[int64]bool, len(busy))
	for _, t := range busy {
		busySet[t.UnixNano()] = true
	}

	blockedSet := make(map[int64]bool, len(blocked))
	for _, t := range blocked {
		blockedSet[t.UnixNano()] = true
	}

	for _, t := range candidates {
		if busySet[t.UnixNano()] {
			return &Conflict{Instant: t, Reason: "teacher already has a session at this time"}
		}
		if blockedSet[t.UnixNano()] {
			return &Conflict{Instant: t, Reason: "teacher has blocked this time"}
		}
	}

	return nil
}

// GetUnavailableSlots возвращает блокировки учителя
func (s *AvailabilityService) GetUnavailableSlots(ctx context.Context, teacherID int64) ([]*model.TeacherUnavailableDate, error) {
	return s.unavailableRepo.GetByTeacherID(ctx, teacherID)
}

// AddUnavailableDate блокирует момент времени в расписании учителя.
// Учитель блокирует только своё расписание, администратор - любое
// (teacherID == 0 означает расписание самого инициатора).
func (s *AvailabilityService) AddUnavailableDate(ctx context.Context, actor model.Actor, teacherID int64, blockedAt time.Time) (*model.TeacherUnavailableDate, error) {
	if !actor.IsTeacher() && !actor.IsAdmin() {
		return nil, apperror.Unauthorized("only teachers can block time slots")
	}

	if teacherID == 0 {
		teacherID = actor.ID
	}

	if !actor.IsAdmin() && teacherID != actor.ID {
		return nil, apperror.Unauthorized("cannot block another teacher's time")
	}

	date := &model.TeacherUnavailableDate{
		TeacherID: teacherID,
		BlockedAt: blockedAt,
	}

	if err := s.unavailableRepo.Create(ctx, date); err != nil {
		if base.IsUniqueViolation(err) {
			return nil, apperror.Conflict("time slot %s is already blocked", blockedAt.Format(time.RFC3339))
		}
		return nil, apperror.Internal(err, "create unavailable date")
	}

	s.logger.Info("Time slot blocked",
		zap.Int64("teacher_id", teacherID),
		zap.Time("blocked_at", blockedAt),
	)

	return date, nil
}

// RemoveUnavailableDate снимает блокировку. Разрешено только её владельцу.
func (s *AvailabilityService) RemoveUnavailableDate(ctx context.Context, actor model.Actor, id int64) error {
	date, err := s.unavailableRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.Internal(err, "get unavailable date")
	}

	if date == nil {
		return apperror.NotFound("unavailable date %d not found", id)
	}

	if date.TeacherID != actor.ID {
		return apperror.Unauthorized("only the owner can remove this block")
	}

	if err := s.unavailableRepo.Delete(ctx, id); err != nil {
		return apperror.Internal(err, "delete unavailable date")
	}

	s.logger.Info("Time slot unblocked",
		zap.Int64("teacher_id", actor.ID),
		zap.Int64("date_id", id),
	)

	return nil
}
