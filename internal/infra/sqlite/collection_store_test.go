package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestCollectionStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "learnquest.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(ctx, "learnquest_offline_progress", []byte(`[{"gameId":"g1"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "learnquest_offline_progress", []byte(`[{"gameId":"g2"}]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	data, err := reopened.Get(ctx, "learnquest_offline_progress")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `[{"gameId":"g2"}]` {
		t.Fatalf("expected latest value, got %q", data)
	}
}

func TestCollectionStoreMissingAndUsage(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "lq.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	data, err := store.Get(ctx, "missing")
	if err != nil || data != nil {
		t.Fatalf("expected missing collection, got %q err=%v", data, err)
	}

	usage, err := store.Usage(ctx)
	if err != nil || usage != 0 {
		t.Fatalf("expected zero usage, got %d err=%v", usage, err)
	}

	_ = store.Put(ctx, "abc", []byte(`"🎯"`))
	usage, _ = store.Usage(ctx)
	if usage != 6 {
		t.Fatalf("expected 6 characters, got %d", usage)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	usage, _ = store.Usage(ctx)
	if usage != 0 {
		t.Fatalf("expected zero usage after delete, got %d", usage)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
