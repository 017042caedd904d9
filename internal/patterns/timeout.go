package patterns

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single upstream HTTP call.
const DefaultTimeout = 3 * time.Second

// DefaultBulkheadWait is how long a caller queues for a bulkhead slot.
const DefaultBulkheadWait = 1 * time.Second

// WithTimeout derives a context that fails fast after d. A zero d means
// DefaultTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(parent, d)
}
