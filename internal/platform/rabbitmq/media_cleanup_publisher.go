package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"travel-journal/internal/media"
)

// MediaCleanupPublisher queues orphaned media for removal by the cleanup
// worker.
type MediaCleanupPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewMediaCleanupPublisher(conn *amqp.Connection, queueName string) *MediaCleanupPublisher {
	return &MediaCleanupPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *MediaCleanupPublisher) Schedule(ctx context.Context, req media.CleanupRequest) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal cleanup request failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Timestamp:    req.RequestedAt,
		},
	); err != nil {
		return fmt.Errorf("publish cleanup request failed: %w", err)
	}
	return nil
}

var _ media.Cleaner = (*MediaCleanupPublisher)(nil)
