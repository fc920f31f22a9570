// Package connectivity tracks whether the service can reach the outside world.
package connectivity

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor holds the current online flag and notifies listeners on transitions.
type Monitor struct {
	online atomic.Bool

	probeURL string
	client   *http.Client

	mu        sync.RWMutex
	listeners []func(online bool)
}

// NewMonitor starts in the given state. probeURL may be empty, in which case
// Probe keeps the current state and only Set changes it.
func NewMonitor(initialOnline bool, probeURL string, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	m := &Monitor{
		probeURL: probeURL,
		client:   &http.Client{Timeout: timeout},
	}
	m.online.Store(initialOnline)
	return m
}

// Online reports the last known state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// OnChange registers fn to run after every transition.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Set records the state and reports whether it changed. Listeners run synchronously.
func (m *Monitor) Set(online bool) bool {
	if m.online.Swap(online) == online {
		return false
	}
	if online {
		log.Printf("connectivity: online")
	} else {
		log.Printf("connectivity: offline")
	}

	m.mu.RLock()
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(online)
	}
	return true
}

// Probe issues a GET to the probe URL; any response below 500 counts as online.
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.probeURL == "" {
		return m.Online()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		log.Printf("connectivity probe: %v", err)
		m.Set(false)
		return false
	}
	resp, err := m.client.Do(req)
	if err != nil {
		m.Set(false)
		return false
	}
	resp.Body.Close()
	online := resp.StatusCode < http.StatusInternalServerError
	m.Set(online)
	return online
}
