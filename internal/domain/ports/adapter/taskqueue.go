package adapter

import "context"

// Task is a single job invocation destined for the external worker fleet.
// Implementations are immutable value types, one per task kind.
type Task interface {
	// Name is the fully qualified task name registered on the worker side.
	Name() string
	// Args is the positional argument list, in worker signature order.
	Args() []any
	// Headers returns task-specific correlation fields (project_id, asset_id)
	// merged into the message headers last, shadowing generic defaults.
	Headers() map[string]any
}

// Correlation is the request-scoped context threaded into every dispatched
// message so worker-side logs can be tied back to the originating request.
// It is passed by value; there is no ambient carrier.
type Correlation struct {
	RequestID string
	UserID    string
}

// TaskProducer hands a job off to the worker fleet through the shared broker.
// Exactly one push per call, no deduplication and no internal retries; the
// returned message id is exposed to callers for tracing.
type TaskProducer interface {
	Submit(ctx context.Context, task Task, corr Correlation) (messageID string, err error)
}
