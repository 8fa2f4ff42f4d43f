package redis

import (
	"context"
	"fmt"
)

// ListBroker appends messages to the head of a Redis list. The worker fleet
// drains from the tail (BRPOP), which gives per-producer FIFO delivery.
// No consumption, no acknowledgement tracking, no retries: a transport error
// is returned to the caller as-is.
type ListBroker struct {
	cli RedisClient
}

func NewListBroker(cli RedisClient) *ListBroker {
	return &ListBroker{cli: cli}
}

func (b *ListBroker) Enqueue(ctx context.Context, queue string, payload []byte) error {
	if err := b.cli.LPush(ctx, queue, payload); err != nil {
		return fmt.Errorf("lpush %s: %w", queue, err)
	}
	return nil
}

// Depth reports how many messages are currently waiting on the queue.
func (b *ListBroker) Depth(ctx context.Context, queue string) (int64, error) {
	n, err := b.cli.LLen(ctx, queue)
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", queue, err)
	}
	return n, nil
}
