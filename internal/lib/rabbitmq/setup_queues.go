package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Ключи маршрутизации событий.
const (
	RoutingGradingCompleted    = "grading.completed"
	RoutingSubscriptionExpired = "subscription.expired"
)

// QueueConfig описывает очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// EventQueues возвращает очереди для событий проверки и подписок.
func EventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "testprep.grading", RoutingKey: RoutingGradingCompleted},
		{QueueName: "testprep.subscriptions", RoutingKey: RoutingSubscriptionExpired},
	}
}

// SetupChannel открывает канал, объявляет direct-обменник и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: set qos: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: bind queue %s with key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}
	return ch, nil
}
