package celery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-scene-backend/internal/domain/ports/adapter"
	"ai-scene-backend/internal/infra/metrics"
)

// Broker pushes one encoded message onto a named queue. Ordering contract:
// payloads pushed by calls A then B are observed by a FIFO-draining consumer
// in order A, B. The broker does not retry; transport errors surface here.
type Broker interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
}

// Ensure interface compliance:
var _ adapter.TaskProducer = (*Producer)(nil)

// Producer is the task-dispatch producer: it assigns a fresh message id,
// merges correlation context into the headers, encodes the message and pushes
// it onto the single shared queue. One push per call, no deduplication;
// idempotence is the orchestration layer's job via its stage gates.
type Producer struct {
	broker Broker
	queue  string
	log    *zerolog.Logger
}

func NewProducer(broker Broker, queue string, logger *zerolog.Logger) *Producer {
	return &Producer{broker: broker, queue: queue, log: logger}
}

func (p *Producer) Submit(ctx context.Context, task adapter.Task, corr adapter.Correlation) (string, error) {
	taskID := uuid.NewString()
	requestID := corr.RequestID
	if requestID == "" {
		// never omit request_id from the headers
		requestID = uuid.NewString()
	}

	msg := Message{
		TaskName:     task.Name(),
		Args:         task.Args(),
		ID:           taskID,
		RequestID:    requestID,
		UserID:       corr.UserID,
		ExtraHeaders: task.Headers(),
		Queue:        p.queue,
		ReplyTo:      uuid.NewString(),
		DeliveryTag:  uuid.NewString(),
	}

	payload, err := Encode(msg)
	if err != nil {
		metrics.IncTaskSubmitted(task.Name(), "encode_error")
		return "", err
	}
	if err := p.broker.Enqueue(ctx, p.queue, payload); err != nil {
		metrics.IncTaskSubmitted(task.Name(), "transport_error")
		return "", fmt.Errorf("enqueue %s: %w", task.Name(), err)
	}
	metrics.IncTaskSubmitted(task.Name(), "ok")

	p.log.Info().
		Str("task", task.Name()).
		Str("task_id", taskID).
		Str("request_id", requestID).
		Str("queue", p.queue).
		Msg("task submitted")
	return taskID, nil
}
