package memory

import (
	"context"
	"sync"
	"time"

	"learnquest-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// GameLoader fetches downloadable game content, usually from Postgres.
type GameLoader interface {
	LoadGame(ctx context.Context, gameID string) (domain.OfflineGame, error)
}

// GameRepository is the process-local catalog used when Redis is not configured.
// A downloaded game is served from memory for exactly ttl; a non-positive ttl disables caching.
type GameRepository struct {
	loader  GameLoader
	ttl     time.Duration
	clock   func() time.Time
	loading singleflight.Group

	mu      sync.RWMutex
	entries map[string]catalogEntry
}

type catalogEntry struct {
	game      domain.OfflineGame
	expiresAt time.Time
}

func NewGameRepository(loader GameLoader, ttl time.Duration) *GameRepository {
	return &GameRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]catalogEntry),
	}
}

func (r *GameRepository) GetGame(ctx context.Context, gameID string) (domain.OfflineGame, error) {
	if game, ok := r.fresh(gameID); ok {
		return game, nil
	}
	v, err, _ := r.loading.Do(gameID, func() (interface{}, error) {
		if game, ok := r.fresh(gameID); ok {
			return game, nil
		}
		game, err := r.loader.LoadGame(ctx, gameID)
		if err != nil {
			return domain.OfflineGame{}, err
		}
		if r.ttl > 0 {
			r.mu.Lock()
			r.entries[gameID] = catalogEntry{game: game, expiresAt: r.clock().Add(r.ttl)}
			r.mu.Unlock()
		}
		return game, nil
	})
	if err != nil {
		return domain.OfflineGame{}, err
	}
	return v.(domain.OfflineGame), nil
}

func (r *GameRepository) fresh(gameID string) (domain.OfflineGame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[gameID]
	if !ok || !r.clock().Before(entry.expiresAt) {
		return domain.OfflineGame{}, false
	}
	return entry.game, true
}

// StaticGameLoader serves a fixed set of games; the CLI seeds it when no database is configured.
type StaticGameLoader struct {
	games map[string]domain.OfflineGame
}

func NewStaticGameLoader(games map[string]domain.OfflineGame) *StaticGameLoader {
	return &StaticGameLoader{games: games}
}

func (l *StaticGameLoader) LoadGame(_ context.Context, gameID string) (domain.OfflineGame, error) {
	game, ok := l.games[gameID]
	if !ok {
		return domain.OfflineGame{}, domain.ErrGameNotFound
	}
	return game, nil
}
