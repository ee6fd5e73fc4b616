// Package notify delivers order notifications outside the request path.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// Dispatcher fans a notification out to its sinks on a goroutine. Sink
// errors are logged and dropped.
type Dispatcher struct {
	sinks   []domain.NotificationSink
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, sinks ...domain.NotificationSink) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sinks: sinks, timeout: timeout}
}

// Dispatch returns immediately. Each delivery gets its own deadline.
func (d *Dispatcher) Dispatch(n domain.Notification) {
	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		log.Warn().Str("recipient", n.Recipient).Msg("notification dropped, dispatcher closed")
		return
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("notification sink panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		for _, s := range d.sinks {
			if err := s.Send(ctx, n); err != nil {
				log.Warn().Err(err).Str("sink", fmt.Sprintf("%T", s)).Msg("notification failed")
			}
		}
	}()
}

// Close stops accepting notifications and waits for in-flight ones until
// ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
