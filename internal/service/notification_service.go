package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_marketplace/internal/apperror"
	"github.com/Freeeeeet/tutor_marketplace/internal/model"
	"github.com/Freeeeeet/tutor_marketplace/internal/queue"
	"github.com/Freeeeeet/tutor_marketplace/internal/repository"
	"github.com/go-telegram/bot"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// NotificationService - сток уведомлений: durable-запись в историю плюс
// realtime-доставка через очередь и (опционально) telegram.
// Вызывается только после коммита породившей транзакции и никогда её не блокирует.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	userRepo         *repository.UserRepository
	publisher        *queue.Publisher // nil - публикация выключена
	tgBot            *bot.Bot         // nil - telegram-релей выключен
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	publisher *queue.Publisher,
	tgBot *bot.Bot,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		tgBot:            tgBot,
		logger:           logger,
	}
}

// Notify отправляет уведомление получателю. Fire-and-forget: работает в отдельной
// горутине со своим таймаутом, ошибки только логируются.
func (s *NotificationService) Notify(recipientID int64, content, link string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n := &model.Notification{
			RecipientID: recipientID,
			Content:     content,
			Link:        link,
		}

		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to store notification",
				zap.Int64("recipient_id", recipientID),
				zap.Error(err))
			return
		}

		s.publishEvent(ctx, n)
		s.relayTelegram(ctx, n)
	}()
}

// List возвращает последние уведомления пользователя
func (s *NotificationService) List(ctx context.Context, actor model.Actor, limit int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	return s.notificationRepo.GetByRecipientID(ctx, actor.ID, limit)
}

// MarkRead помечает уведомление пользователя прочитанным
func (s *NotificationService) MarkRead(ctx context.Context, actor model.Actor, id int64) error {
	if err := s.notificationRepo.MarkRead(ctx, id, actor.ID); err != nil {
		return apperror.NotFound("notification %d not found", id)
	}

	return nil
}

// publishEvent публикует событие в очередь с ограниченным числом повторов
func (s *NotificationService) publishEvent(ctx context.Context, n *model.Notification) {
	if s.publisher == nil {
		return
	}

	event := queue.NotificationEvent{
		RecipientID: n.RecipientID,
		Content:     n.Content,
		Link:        n.Link,
		CreatedAt:   n.CreatedAt,
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.publisher.Publish(ctx, event); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to publish notification event",
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err))
	}
}

// relayTelegram дублирует уведомление в telegram, если у получателя привязан чат
func (s *NotificationService) relayTelegram(ctx context.Context, n *model.Notification) {
	if s.tgBot == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, n.RecipientID)
	if err != nil || user == nil || user.TelegramChatID == nil {
		return
	}

	text := n.Content
	if n.Link != "" {
		text = fmt.Sprintf("%s\n%s", n.Content, n.Link)
	}

	_, err = s.tgBot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		s.logger.Error("Failed to relay notification to telegram",
			zap.Int64("recipient_id", n.RecipientID),
			zap.Error(err))
	}
}
