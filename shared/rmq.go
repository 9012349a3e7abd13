package shared

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RMQueue struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
	Queue      amqp.Queue
}

func NewRMQueue(Url string, QueueName string) (*RMQueue, error) {
	q := &RMQueue{}
	var err error
	q.Connection, err = amqp.Dial(Url)
	if err != nil {
		return q, err
	}
	return q, q.open(QueueName)
}

// NewRMQueueOnConnection declares another queue over an existing connection
// with its own channel.
func NewRMQueueOnConnection(conn *amqp.Connection, QueueName string) (*RMQueue, error) {
	q := &RMQueue{Connection: conn}
	return q, q.open(QueueName)
}

func (q *RMQueue) open(QueueName string) error {
	var err error
	q.Channel, err = q.Connection.Channel()
	if err != nil {
		return err
	}
	q.Queue, err = q.Channel.QueueDeclare(QueueName, false, false, false, false, nil)
	return err
}

func (q *RMQueue) Close() {
	q.Channel.Close()
	q.Connection.Close()
}

func (q *RMQueue) Publish(ctx context.Context, body []byte) error {
	return q.Channel.PublishWithContext(ctx, "", q.Queue.Name, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

func (q *RMQueue) PublishJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return q.Publish(ctx, body)
}
