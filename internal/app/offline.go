package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"learnquest-service/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	// GamesCollection holds the cached games.
	GamesCollection = "learnquest_offline_games"
	// ProgressCollection holds the offline progress queue.
	ProgressCollection = "learnquest_offline_progress"

	DefaultCacheTTL = 7 * 24 * time.Hour
	DefaultQuotaMB  = 5.0

	bytesPerMB = 1024 * 1024
)

// Connectivity reports whether the platform currently has network access.
type Connectivity interface {
	Online() bool
}

// ProgressUploader delivers a batch of offline progress to the system of record.
type ProgressUploader interface {
	Upload(ctx context.Context, batch domain.SyncBatch) error
}

// GameCatalog loads downloadable game content.
type GameCatalog interface {
	GetGame(ctx context.Context, gameID string) (domain.OfflineGame, error)
}

// OfflineOption customizes an OfflineManager.
type OfflineOption func(*OfflineManager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) OfflineOption {
	return func(m *OfflineManager) { m.now = now }
}

// WithCacheTTL sets how long a cached game stays readable.
func WithCacheTTL(ttl time.Duration) OfflineOption {
	return func(m *OfflineManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithQuotaMB sets the storage ceiling used by StorageUsage.
func WithQuotaMB(quota float64) OfflineOption {
	return func(m *OfflineManager) {
		if quota > 0 {
			m.quotaMB = quota
		}
	}
}

// WithCatalog enables DownloadGame.
func WithCatalog(catalog GameCatalog) OfflineOption {
	return func(m *OfflineManager) { m.catalog = catalog }
}

// OfflineManager maintains the cached-games and offline-progress collections.
type OfflineManager struct {
	store    CollectionStore
	conn     Connectivity
	uploader ProgressUploader
	catalog  GameCatalog
	now      func() time.Time
	ttl      time.Duration
	quotaMB  float64
	tracer   trace.Tracer

	// mu serializes read-modify-write cycles on the collections.
	mu sync.Mutex
	sf singleflight.Group
}

func NewOfflineManager(store CollectionStore, conn Connectivity, uploader ProgressUploader, opts ...OfflineOption) *OfflineManager {
	m := &OfflineManager{
		store:    store,
		conn:     conn,
		uploader: uploader,
		now:      time.Now,
		ttl:      DefaultCacheTTL,
		quotaMB:  DefaultQuotaMB,
		tracer:   otel.Tracer("learnquest-service/offline"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CacheGame upserts game by id and stamps its cache time.
func (m *OfflineManager) CacheGame(ctx context.Context, game domain.OfflineGame) error {
	if game.ID == "" {
		return domain.ErrMissingGameID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	games, err := m.loadCachedGames(ctx)
	if err != nil {
		log.Printf("cache game %s: %v", game.ID, err)
		return err
	}
	updated := make([]domain.OfflineGame, 0, len(games)+1)
	for _, g := range games {
		if g.ID != game.ID {
			updated = append(updated, g)
		}
	}
	game.CachedAt = m.now().UTC()
	updated = append(updated, game)

	if err := saveCollection(ctx, m.store, GamesCollection, updated); err != nil {
		log.Printf("cache game %s: %v", game.ID, err)
		return err
	}
	return nil
}

// CachedGames returns the games whose cache entry has not expired. Storage is not rewritten.
func (m *OfflineManager) CachedGames(ctx context.Context) ([]domain.OfflineGame, error) {
	games, err := m.loadCachedGames(ctx)
	if err != nil {
		log.Printf("get cached games: %v", err)
		return nil, err
	}
	return games, nil
}

// CachedGame looks up one unexpired cached game.
func (m *OfflineManager) CachedGame(ctx context.Context, gameID string) (domain.OfflineGame, error) {
	games, err := m.CachedGames(ctx)
	if err != nil {
		return domain.OfflineGame{}, err
	}
	for _, game := range games {
		if game.ID == gameID {
			return game, nil
		}
	}
	return domain.OfflineGame{}, domain.ErrGameNotCached
}

// ClearExpiredCache rewrites the games collection without expired entries and
// reports how many were dropped.
func (m *OfflineManager) ClearExpiredCache(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := loadCollection[domain.OfflineGame](ctx, m.store, GamesCollection)
	if err != nil {
		log.Printf("clear expired cache: %v", err)
		return 0, err
	}
	fresh := m.unexpired(all)
	if err := saveCollection(ctx, m.store, GamesCollection, fresh); err != nil {
		log.Printf("clear expired cache: %v", err)
		return 0, err
	}
	return len(all) - len(fresh), nil
}

// ClearCache drops every cached game. Offline progress is kept.
func (m *OfflineManager) ClearCache(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(ctx, GamesCollection); err != nil {
		err = &domain.StorageError{Op: "delete", Collection: GamesCollection, Err: err}
		log.Printf("clear cache: %v", err)
		return err
	}
	return nil
}

// DownloadGame fetches a game from the catalog and caches it.
func (m *OfflineManager) DownloadGame(ctx context.Context, gameID string) (domain.OfflineGame, error) {
	if m.catalog == nil {
		return domain.OfflineGame{}, fmt.Errorf("download game %s: %w", gameID, domain.ErrGameNotFound)
	}
	game, err := m.catalog.GetGame(ctx, gameID)
	if err != nil {
		return domain.OfflineGame{}, err
	}
	if err := m.CacheGame(ctx, game); err != nil {
		return domain.OfflineGame{}, err
	}
	return m.CachedGame(ctx, gameID)
}

// SaveOfflineProgress upserts progress by game id.
func (m *OfflineManager) SaveOfflineProgress(ctx context.Context, progress domain.OfflineProgress) error {
	if progress.GameID == "" {
		return domain.ErrMissingGameID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, err := loadCollection[domain.OfflineProgress](ctx, m.store, ProgressCollection)
	if err != nil {
		log.Printf("save offline progress %s: %v", progress.GameID, err)
		return err
	}
	updated := make([]domain.OfflineProgress, 0, len(existing)+1)
	for _, p := range existing {
		if p.GameID != progress.GameID {
			updated = append(updated, p)
		}
	}
	if progress.CompletedAt.IsZero() {
		progress.CompletedAt = m.now()
	}
	progress.CompletedAt = progress.CompletedAt.UTC()
	updated = append(updated, progress)

	if err := saveCollection(ctx, m.store, ProgressCollection, updated); err != nil {
		log.Printf("save offline progress %s: %v", progress.GameID, err)
		return err
	}
	return nil
}

// OfflineProgress returns every stored progress record.
func (m *OfflineManager) OfflineProgress(ctx context.Context) ([]domain.OfflineProgress, error) {
	progress, err := loadCollection[domain.OfflineProgress](ctx, m.store, ProgressCollection)
	if err != nil {
		log.Printf("get offline progress: %v", err)
		return nil, err
	}
	return progress, nil
}

// UnsyncedProgress returns the records not yet delivered.
func (m *OfflineManager) UnsyncedProgress(ctx context.Context) ([]domain.OfflineProgress, error) {
	all, err := m.OfflineProgress(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.OfflineProgress, 0, len(all))
	for _, p := range all {
		if !p.Synced {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

// MarkProgressSynced flags the record for gameID as delivered. Unknown ids are ignored.
func (m *OfflineManager) MarkProgressSynced(ctx context.Context, gameID string) error {
	_, err := m.markSynced(ctx, func(p domain.OfflineProgress) bool { return p.GameID == gameID })
	if err != nil {
		log.Printf("mark progress synced %s: %v", gameID, err)
	}
	return err
}

// IsOnline reports the connectivity signal; without one the manager assumes it is online.
func (m *OfflineManager) IsOnline() bool {
	if m.conn == nil {
		return true
	}
	return m.conn.Online()
}

// SyncWhenOnline uploads the unsynced queue and marks the delivered records.
// It does nothing while offline or when the queue is empty. Concurrent calls share
// one in-flight sync; cancelling ctx only abandons this caller's wait.
func (m *OfflineManager) SyncWhenOnline(ctx context.Context) (int, error) {
	flight := context.WithoutCancel(ctx)
	ch := m.sf.DoChan("sync", func() (interface{}, error) {
		return m.sync(flight)
	})
	select {
	case res := <-ch:
		if res.Shared {
			log.Printf("sync: result shared between concurrent callers")
		}
		if res.Err != nil {
			return 0, res.Err
		}
		return res.Val.(int), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (m *OfflineManager) sync(ctx context.Context) (int, error) {
	if !m.IsOnline() {
		return 0, nil
	}
	pending, err := m.UnsyncedProgress(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	batch := domain.SyncBatch{
		ID:        uuid.NewString(),
		Records:   pending,
		CreatedAt: m.now().UTC(),
	}
	ctx, span := m.tracer.Start(ctx, "offline.sync", trace.WithAttributes(
		attribute.String("sync.batch_id", batch.ID),
		attribute.Int("sync.records", len(pending)),
	))
	defer span.End()

	log.Printf("syncing %d offline progress records (batch %s)", len(pending), batch.ID)
	if m.uploader == nil {
		return 0, errors.New("sync: no uploader configured")
	}
	if err := m.uploader.Upload(ctx, batch); err != nil {
		span.RecordError(err)
		log.Printf("sync batch %s failed: %v", batch.ID, err)
		return 0, fmt.Errorf("upload batch %s: %w", batch.ID, err)
	}

	// A record replaced or rescored while the upload was running keeps its newer, undelivered state.
	delivered := make(map[string]domain.OfflineProgress, len(pending))
	for _, p := range pending {
		delivered[p.GameID] = p
	}
	marked, err := m.markSynced(ctx, func(p domain.OfflineProgress) bool {
		sent, ok := delivered[p.GameID]
		return ok && sent.Score == p.Score && sent.CompletedAt.Equal(p.CompletedAt)
	})
	if err != nil {
		span.RecordError(err)
		log.Printf("sync batch %s: mark synced: %v", batch.ID, err)
		return 0, err
	}
	log.Printf("offline progress synced (batch %s, %d records)", batch.ID, marked)
	return marked, nil
}

// HandleConnectivityChange runs a sync when the platform comes back online.
func (m *OfflineManager) HandleConnectivityChange(ctx context.Context, online bool) {
	if !online {
		return
	}
	if _, err := m.SyncWhenOnline(ctx); err != nil {
		log.Printf("auto sync after reconnect: %v", err)
	}
}

// StorageUsage estimates used and remaining space in megabytes against the quota.
// Available goes negative once the quota is exceeded.
func (m *OfflineManager) StorageUsage(ctx context.Context) (domain.StorageUsage, error) {
	chars, err := m.store.Usage(ctx)
	if err != nil {
		err = &domain.StorageError{Op: "usage", Collection: "*", Err: err}
		log.Printf("get storage usage: %v", err)
		return domain.StorageUsage{}, err
	}
	used := float64(chars) / bytesPerMB
	return domain.StorageUsage{Used: used, Available: m.quotaMB - used}, nil
}

// Status summarizes connectivity, queue length, cache size and storage usage.
func (m *OfflineManager) Status(ctx context.Context) (domain.OfflineStatus, error) {
	pending, err := m.UnsyncedProgress(ctx)
	if err != nil {
		return domain.OfflineStatus{}, err
	}
	games, err := m.CachedGames(ctx)
	if err != nil {
		return domain.OfflineStatus{}, err
	}
	usage, err := m.StorageUsage(ctx)
	if err != nil {
		return domain.OfflineStatus{}, err
	}
	return domain.OfflineStatus{
		Online:      m.IsOnline(),
		Unsynced:    len(pending),
		CachedGames: len(games),
		Storage:     usage,
		UpdatedAt:   m.now().UTC(),
	}, nil
}

func (m *OfflineManager) loadCachedGames(ctx context.Context) ([]domain.OfflineGame, error) {
	games, err := loadCollection[domain.OfflineGame](ctx, m.store, GamesCollection)
	if err != nil {
		return nil, err
	}
	return m.unexpired(games), nil
}

func (m *OfflineManager) unexpired(games []domain.OfflineGame) []domain.OfflineGame {
	now := m.now()
	fresh := make([]domain.OfflineGame, 0, len(games))
	for _, game := range games {
		if now.Sub(game.CachedAt) < m.ttl {
			fresh = append(fresh, game)
		}
	}
	return fresh
}

func (m *OfflineManager) markSynced(ctx context.Context, match func(domain.OfflineProgress) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	progress, err := loadCollection[domain.OfflineProgress](ctx, m.store, ProgressCollection)
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range progress {
		if !progress[i].Synced && match(progress[i]) {
			progress[i].Synced = true
			marked++
		}
	}
	if marked == 0 {
		return 0, nil
	}
	if err := saveCollection(ctx, m.store, ProgressCollection, progress); err != nil {
		return 0, err
	}
	return marked, nil
}
