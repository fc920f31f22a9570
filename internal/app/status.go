package app

import (
	"context"
	"sync"

	"learnquest-service/internal/domain"
)

// StatusSource produces the current offline status.
type StatusSource interface {
	Status(ctx context.Context) (domain.OfflineStatus, error)
}

// StatusHub fans offline status snapshots out to subscribers.
type StatusHub struct {
	mu          sync.RWMutex
	last        domain.OfflineStatus
	hasLast     bool
	subscribers map[chan domain.OfflineStatus]struct{}
}

func NewStatusHub() *StatusHub {
	return &StatusHub{
		subscribers: make(map[chan domain.OfflineStatus]struct{}),
	}
}

// Refresh reads a snapshot from source and publishes it.
func (h *StatusHub) Refresh(ctx context.Context, source StatusSource) (domain.OfflineStatus, error) {
	status, err := source.Status(ctx)
	if err != nil {
		return domain.OfflineStatus{}, err
	}
	h.Publish(status)
	return status, nil
}

// Publish stores status as the latest snapshot and sends it to every subscriber.
func (h *StatusHub) Publish(status domain.OfflineStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = status
	h.hasLast = true
	for ch := range h.subscribers {
		select {
		case ch <- status:
		default:
			// Slow subscriber: replace the stale snapshot with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

// Last returns the most recent snapshot, if any was published.
func (h *StatusHub) Last() (domain.OfflineStatus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.hasLast
}

// Subscribe returns a channel of snapshots, primed with the latest one when available.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *StatusHub) Subscribe() (<-chan domain.OfflineStatus, func()) {
	ch := make(chan domain.OfflineStatus, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	if h.hasLast {
		ch <- h.last
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports how many channels are attached.
func (h *StatusHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
