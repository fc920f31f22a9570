package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnquest-service/internal/app"
	"learnquest-service/internal/domain"
	"learnquest-service/internal/infra/memory"
)

type brokenSource struct{}

func (brokenSource) Status(context.Context) (domain.OfflineStatus, error) {
	return domain.OfflineStatus{}, errors.New("store unavailable")
}

func TestStatusHubPrimesNewSubscribers(t *testing.T) {
	hub := app.NewStatusHub()
	if _, ok := hub.Last(); ok {
		t.Fatalf("expected no snapshot before the first publish")
	}

	hub.Publish(domain.OfflineStatus{Unsynced: 3})
	ch, cancel := hub.Subscribe()
	defer cancel()

	select {
	case status := <-ch:
		if status.Unsynced != 3 {
			t.Fatalf("expected primed snapshot, got %+v", status)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected primed snapshot")
	}
}

func TestStatusHubDropsStaleSnapshots(t *testing.T) {
	hub := app.NewStatusHub()
	ch, cancel := hub.Subscribe()

	// Never read: the buffer fills and the hub keeps replacing the oldest entry.
	for i := 1; i <= 50; i++ {
		hub.Publish(domain.OfflineStatus{Unsynced: i})
	}

	var last domain.OfflineStatus
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Unsynced != 50 {
		t.Fatalf("expected latest snapshot to be delivered, got %+v", last)
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestStatusHubRefresh(t *testing.T) {
	ctx := context.Background()
	hub := app.NewStatusHub()
	manager := app.NewOfflineManager(memory.NewCollectionStore(), nil, nil)
	_ = manager.SaveOfflineProgress(ctx, domain.OfflineProgress{GameID: "g1"})

	status, err := hub.Refresh(ctx, manager)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !status.Online || status.Unsynced != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if last, ok := hub.Last(); !ok || last.Unsynced != 1 {
		t.Fatalf("expected refresh to publish, got %+v", last)
	}

	if _, err := hub.Refresh(ctx, brokenSource{}); err == nil {
		t.Fatalf("expected source error")
	}
	if last, _ := hub.Last(); last.Unsynced != 1 {
		t.Fatalf("failed refresh must keep the previous snapshot")
	}
}
