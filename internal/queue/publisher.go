package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const notificationQueue = "notifications.realtime"

// NotificationEvent - событие для realtime-доставки (сокеты, пуши)
type NotificationEvent struct {
	RecipientID int64     `json:"recipient_id"`
	Content     string    `json:"content"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

// Publisher публикует события уведомлений в RabbitMQ.
// Очередь durable, сообщения persistent - доставка at-least-once.
type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

// NewPublisher подключается к брокеру и объявляет очередь
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Объявление идемпотентно, durable - сообщения переживают рестарт брокера
	_, err = ch.QueueDeclare(notificationQueue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, logger: logger}, nil
}

// Publish отправляет событие в очередь
func (p *Publisher) Publish(ctx context.Context, event NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",                // default exchange
		notificationQueue, // routing key = имя очереди
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}

// Close закрывает канал и соединение
func (p *Publisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
