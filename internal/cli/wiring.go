package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"learnquest-service/internal/app"
	"learnquest-service/internal/config"
	"learnquest-service/internal/domain"
	"learnquest-service/internal/infra/connectivity"
	"learnquest-service/internal/infra/memory"
	pgstore "learnquest-service/internal/infra/postgres"
	redisstore "learnquest-service/internal/infra/redis"
	"learnquest-service/internal/infra/sqlite"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "learnquest:"
	defaultSQLitePath  = "data/learnquest.db"
)

// services is the object graph shared by every command.
type services struct {
	store       app.CollectionStore
	monitor     *connectivity.Monitor
	offline     *app.OfflineManager
	progression *app.ProgressionService
	hub         *app.StatusHub

	closers []func() error
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	s := &services{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, redisClient.Close)
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
	}

	store, err := s.openStore(cfg, redisClient)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store

	var loader memory.GameLoader = memory.NewStaticGameLoader(sampleGames())
	if pool != nil {
		loader = pgstore.NewGameLoader(pool)
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.GameCatalog
	if redisClient != nil {
		catalog = redisstore.NewGameRepository(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewGameRepository(loader, catalogTTL)
	}

	var uploader app.ProgressUploader = memory.NewDelayUploader(config.TTLDuration(cfg.Offline.SyncDelay, time.Second))
	if pool != nil {
		uploader = pgstore.NewProgressUploader(pool)
	}

	s.monitor = connectivity.NewMonitor(
		cfg.Online(),
		cfg.Connectivity.ProbeURL,
		config.TTLDuration(cfg.Connectivity.ProbeTimeout, 3*time.Second),
	)
	s.offline = app.NewOfflineManager(store, s.monitor, uploader,
		app.WithCacheTTL(config.TTLDuration(cfg.Offline.CacheTTL, app.DefaultCacheTTL)),
		app.WithQuotaMB(cfg.Offline.QuotaMB),
		app.WithCatalog(catalog),
	)
	s.progression = app.NewProgressionService(store)
	s.hub = app.NewStatusHub()
	return s, nil
}

func (s *services) openStore(cfg config.Config, redisClient *redis.Client) (app.CollectionStore, error) {
	switch driver := cfg.StorageDriver(); driver {
	case config.StorageMemory:
		log.Printf("storage: in-memory collections (not persisted)")
		return memory.NewCollectionStore(), nil
	case config.StorageRedis:
		if redisClient == nil {
			return nil, errors.New("storage driver redis requires redis.addr")
		}
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = defaultRedisPrefix
		}
		return redisstore.NewCollectionStore(redisClient, prefix), nil
	case config.StorageSQLite:
		path := cfg.Storage.SQLitePath
		if path == "" {
			path = defaultSQLitePath
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		log.Printf("storage: sqlite at %s", path)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// Close releases connections in reverse order of creation.
func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
	s.closers = nil
}

// sampleGames seeds the catalog when no Postgres catalog is configured.
func sampleGames() map[string]domain.OfflineGame {
	return map[string]domain.OfflineGame{
		"math-fractions-1": {
			ID:         "math-fractions-1",
			Name:       "Fraction Frenzy",
			Subject:    app.SubjectMathematics,
			Difficulty: domain.DifficultyEasy,
			Questions: []domain.OfflineQuestion{
				{Question: "What is 1/2 + 1/4?", Options: []string{"3/4", "2/6", "1/8", "2/4"}, Correct: 0, Explanation: "1/2 is 2/4, and 2/4 + 1/4 = 3/4."},
				{Question: "Which fraction is largest?", Options: []string{"1/3", "2/5", "3/8", "1/2"}, Correct: 3, Explanation: "1/2 = 0.5 is larger than the others."},
			},
		},
		"science-cells-1": {
			ID:         "science-cells-1",
			Name:       "Cell Explorer",
			Subject:    app.SubjectScience,
			Difficulty: domain.DifficultyMedium,
			Questions: []domain.OfflineQuestion{
				{Question: "Which organelle produces energy for the cell?", Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Vacuole"}, Correct: 1, Explanation: "Mitochondria convert nutrients into ATP."},
			},
		},
	}
}
