package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// AppID проставляется в свойство app_id каждого сообщения.
const AppID = "sales-tracker"

// newPublishing собирает persistent-сообщение. Тип сообщения совпадает с ключом
// маршрутизации, чтобы потребитель различал события без разбора тела.
func newPublishing(routingKey string, body []byte, at time.Time) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    at.UTC(),
		Type:         routingKey,
		AppId:        AppID,
		Body:         body,
	}
}

// PublishMessage сериализует message в JSON и публикует его с ключом routingKey.
func PublishMessage(ch *amqp.Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = ch.Publish(exchange, routingKey, false, false, newPublishing(routingKey, body, time.Now())); err != nil {
		return fmt.Errorf("%s: %s: %w", op, routingKey, err)
	}
	return nil
}
