package usecase

import (
	"context"
	"sync"
)

// Subscription is a live snapshot stream. Unsubscribe blocks until the stream
// has stopped, so no callback runs after it returns. It must not be called
// from inside the stream's own callback.
type Subscription interface {
	Unsubscribe()
	Done() <-chan struct{}
	Err() error
}

type streamSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

func newStreamSubscription(cancel context.CancelFunc) *streamSubscription {
	return &streamSubscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (s *streamSubscription) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)
}

func (s *streamSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *streamSubscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the stream ended on its own; nil after Unsubscribe.
func (s *streamSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SubscriptionHandle owns at most one Subscription for a caller, e.g. the
// open conversation of a websocket client.
type SubscriptionHandle struct {
	mu      sync.Mutex
	current Subscription
}

// Replace cancels the current subscription, waits for it to stop, then
// installs next. Concurrent calls are serialized.
func (h *SubscriptionHandle) Replace(next Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Unsubscribe()
	}
	h.current = next
}

func (h *SubscriptionHandle) Close() {
	h.Replace(nil)
}

func (h *SubscriptionHandle) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current != nil
}
