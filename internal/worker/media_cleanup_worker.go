package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"travel-journal/internal/media"
	"travel-journal/internal/platform/rabbitmq"
)

// MediaRemover deletes the objects behind storage references.
type MediaRemover interface {
	Remove(ctx context.Context, refs ...string) error
}

// MediaCleanupWorker consumes cleanup requests and deletes the listed media.
// Failed removals are requeued once; a request that fails again is dropped
// and logged.
type MediaCleanupWorker struct {
	conn      *amqp.Connection
	remover   MediaRemover
	queueName string
	logger    *zap.SugaredLogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewMediaCleanupWorker(conn *amqp.Connection, remover MediaRemover, queueName string, logger *zap.SugaredLogger) *MediaCleanupWorker {
	return &MediaCleanupWorker{
		conn:      conn,
		remover:   remover,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *MediaCleanupWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker prefetch failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.dispatch(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *MediaCleanupWorker) dispatch(ctx context.Context, d amqp.Delivery) {
	err := w.Handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}

	requeue := !d.Redelivered && !isDecodeError(err)
	w.logger.Errorw("media cleanup failed",
		"queue", w.queueName,
		"requeue", requeue,
		"error", err,
	)
	_ = d.Nack(false, requeue)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode cleanup request failed: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// Handle processes one encoded media.CleanupRequest.
func (w *MediaCleanupWorker) Handle(ctx context.Context, body []byte) error {
	var req media.CleanupRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return &decodeError{err: err}
	}
	if len(req.Refs) == 0 {
		return nil
	}
	if err := w.remover.Remove(ctx, req.Refs...); err != nil {
		return err
	}
	w.logger.Infow("media removed", "refs", req.Refs, "reason", req.Reason)
	return nil
}

func (w *MediaCleanupWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
