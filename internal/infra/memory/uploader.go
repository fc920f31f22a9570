package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"learnquest-service/internal/domain"
)

// DelayUploader stands in for a remote upload: it waits a fixed delay and always succeeds.
// Delivered batches are kept so callers can inspect them.
type DelayUploader struct {
	delay time.Duration

	mu      sync.Mutex
	batches []domain.SyncBatch
}

func NewDelayUploader(delay time.Duration) *DelayUploader {
	return &DelayUploader{delay: delay}
}

func (u *DelayUploader) Upload(ctx context.Context, batch domain.SyncBatch) error {
	if u.delay > 0 {
		timer := time.NewTimer(u.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	u.mu.Lock()
	u.batches = append(u.batches, batch)
	u.mu.Unlock()
	log.Printf("uploaded batch %s with %d records", batch.ID, len(batch.Records))
	return nil
}

// Batches returns the batches delivered so far.
func (u *DelayUploader) Batches() []domain.SyncBatch {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]domain.SyncBatch, len(u.batches))
	copy(out, u.batches)
	return out
}
