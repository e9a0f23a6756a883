package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const settingsCacheTTL = 5 * time.Minute

// SettingsService - key-value настройки приложения с кешем в redis.
// Комиссия платформы читается при каждом расчёте выплат, кеш снимает
// эти чтения с базы.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	rdb          *redis.Client // nil - кеш выключен
	defaultFee   float64
	logger       *zap.Logger
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, rdb *redis.Client, defaultFee float64, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		rdb:          rdb,
		defaultFee:   defaultFee,
		logger:       logger,
	}
}

// ServiceFeePercentage возвращает комиссию платформы.
// Незаданная или испорченная настройка даёт сконфигурированный дефолт.
func (s *SettingsService) ServiceFeePercentage(ctx context.Context) float64 {
	cacheKey := "settings:" + model.SettingServiceFeePercentage

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			if fee, err := strconv.ParseFloat(cached, 64); err == nil {
				return fee
			}
		}
	}

	setting, err := s.settingsRepo.Get(ctx, model.SettingServiceFeePercentage)
	if err != nil {
		s.logger.Error("Failed to read service fee setting, using default",
			zap.Float64("default", s.defaultFee),
			zap.Error(err))
		return s.defaultFee
	}

	fee := s.defaultFee
	if setting != nil {
		parsed, err := strconv.ParseFloat(setting.Value, 64)
		if err != nil || parsed < 0 || parsed >= 1 {
			s.logger.Warn("Invalid service fee setting, using default",
				zap.String("value", setting.Value),
				zap.Float64("default", s.defaultFee))
		} else {
			fee = parsed
		}
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, strconv.FormatFloat(fee, 'f', -1, 64), settingsCacheTTL).Err(); err != nil {
			s.logger.Warn("Failed to cache service fee", zap.Error(err))
		}
	}

	return fee
}

// SetServiceFeePercentage записывает комиссию платформы и сбрасывает кеш
func (s *SettingsService) SetServiceFeePercentage(ctx context.Context, actor model.Actor, fee float64) error {
	if !actor.IsAdmin() {
		return apperror.Unauthorized("only admins can change the service fee")
	}

	if fee < 0 || fee >= 1 {
		return apperror.Validation("service fee must be in [0, 1), got %v", fee)
	}

	value := strconv.FormatFloat(fee, 'f', -1, 64)
	if err := s.settingsRepo.Set(ctx, model.SettingServiceFeePercentage, value); err != nil {
		return apperror.Internal(err, "set service fee")
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, "settings:"+model.SettingServiceFeePercentage).Err(); err != nil {
			s.logger.Warn("Failed to invalidate service fee cache", zap.Error(err))
		}
	}

	s.logger.Info("Service fee updated", zap.Float64("fee", fee))

	return nil
}
