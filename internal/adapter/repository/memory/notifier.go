package memory

import (
	"context"
	"sync"
)

// notifier wakes watchers after every mutation. Signals coalesce: a watcher
// that is busy re-reads the full state once it gets to the channel.
type notifier struct {
	mu       sync.Mutex
	watchers map[chan struct{}]struct{}
}

func newNotifier() *notifier {
	return &notifier{watchers: make(map[chan struct{}]struct{})}
}

func (n *notifier) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.watchers[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.watchers, ch)
	n.mu.Unlock()
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// watch delivers snapshot() once and again after each change until ctx is done.
func (n *notifier) watch(ctx context.Context, deliver func()) error {
	ch := n.subscribe()
	defer n.unsubscribe(ch)

	deliver()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			if ctx.Err() != nil {
				return nil
			}
			deliver()
		}
	}
}
