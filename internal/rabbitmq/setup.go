package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// ExchangeKind тип exchange для событий продаж. Ключи вида sale.<событие>
// позволяют потребителю подписаться на все события шаблоном "sale.*".
const ExchangeKind = amqp.ExchangeTopic

// SetupChannel открывает канал и объявляет durable topic exchange для событий продаж.
func SetupChannel(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	if exchange == "" {
		return nil, fmt.Errorf("%s: exchange name is empty", op)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = ch.ExchangeDeclare(exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: declare %q: %w", op, exchange, err)
	}
	return ch, nil
}
