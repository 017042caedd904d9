package patterns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ashendes/welcome-home/internal/metrics"
)

// ErrBulkheadFull is returned when no slot frees up in time.
var ErrBulkheadFull = errors.New("bulkhead full")

// Bulkhead caps concurrent calls to one dependency.
type Bulkhead struct {
	semaphore chan struct{}
	wait      time.Duration
	name      string
	service   string
}

// NewBulkhead creates a bulkhead with size slots. Callers wait at most wait
// for a slot.
func NewBulkhead(size int, wait time.Duration, name, service string) *Bulkhead {
	return &Bulkhead{
		semaphore: make(chan struct{}, size),
		wait:      wait,
		name:      name,
		service:   service,
	}
}

// Execute runs fn once a slot is free, or fails when the wait elapses or ctx
// ends first.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	timer := time.NewTimer(b.wait)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Inc()
		defer func() {
			<-b.semaphore
			metrics.BulkheadActiveRequests.WithLabelValues(b.service, b.name).Dec()
		}()
		return fn()

	case <-timer.C:
		metrics.BulkheadRejectedRequests.WithLabelValues(b.service, b.name).Inc()
		return fmt.Errorf("bulkhead %s: %w", b.name, ErrBulkheadFull)

	case <-ctx.Done():
		return ctx.Err()
	}
}
