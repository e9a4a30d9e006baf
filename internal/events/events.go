// Package events публикует уведомления об изменениях продаж в RabbitMQ.
//
// Событие отправляется после фиксации транзакции. Ошибка публикации
// логируется вызывающей стороной и не отменяет саму операцию.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
	"github.com/magabrotheeeer/sales-tracker/internal/rabbitmq"
)

// Ключи маршрутизации событий.
const (
	SaleCreated     = "sale.created"
	PaymentRecorded = "sale.payment_recorded"
	SaleCompleted   = "sale.completed"
	SaleDeleted     = "sale.deleted"
)

// SaleEvent тело сообщения.
type SaleEvent struct {
	Type            string               `json:"type"`
	SaleID          string               `json:"saleId"`
	ClientName      string               `json:"clientName,omitempty"`
	UserID          string               `json:"userId,omitempty"`
	Amount          *decimal.Decimal     `json:"amount,omitempty"`
	RemainingAmount decimal.Decimal      `json:"remainingAmount"`
	PaymentStatus   models.PaymentStatus `json:"paymentStatus,omitempty"`
	OccurredAt      time.Time            `json:"occurredAt"`
}

// NewSaleEvent собирает событие по текущему состоянию продажи.
func NewSaleEvent(eventType string, sale *models.Sale, amount *decimal.Decimal, at time.Time) SaleEvent {
	return SaleEvent{
		Type:            eventType,
		SaleID:          sale.ID,
		ClientName:      sale.ClientName,
		UserID:          sale.User.ID,
		Amount:          amount,
		RemainingAmount: sale.RemainingAmount,
		PaymentStatus:   sale.PaymentStatus,
		OccurredAt:      at,
	}
}

// Publisher отправляет события.
type Publisher interface {
	Publish(ctx context.Context, event SaleEvent) error
	Close() error
}

// Noop используется, когда брокер не настроен.
type Noop struct{}

func (Noop) Publish(context.Context, SaleEvent) error { return nil }
func (Noop) Close() error                             { return nil }

// AMQPPublisher публикует события в exchange, ключ маршрутизации равен типу события.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// New возвращает Noop при пустом URL, иначе подключается к брокеру.
func New(cfg config.RabbitMQ) (Publisher, error) {
	const op = "events.New"
	if cfg.URL == "" {
		return Noop{}, nil
	}

	conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Publish отправляет событие. Канал AMQP не рассчитан на конкурентную публикацию.
func (p *AMQPPublisher) Publish(ctx context.Context, event SaleEvent) error {
	const op = "events.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := rabbitmq.PublishMessage(p.ch, p.exchange, event.Type, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
