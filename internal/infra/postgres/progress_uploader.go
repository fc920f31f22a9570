package postgres

import (
	"context"
	"fmt"

	"learnquest-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ProgressUploader writes sync batches into the synced_progress table.
// Re-delivering a record (same game and completion time) overwrites the stored score.
type ProgressUploader struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

func NewProgressUploader(pool *pgxpool.Pool) *ProgressUploader {
	return &ProgressUploader{
		pool:   pool,
		tracer: otel.Tracer("learnquest-service/postgres"),
	}
}

func (u *ProgressUploader) Upload(ctx context.Context, batch domain.SyncBatch) error {
	ctx, span := u.tracer.Start(ctx, "postgres.upload_progress", trace.WithAttributes(
		attribute.String("sync.batch_id", batch.ID),
	))
	defer span.End()

	err := u.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, record := range batch.Records {
			b.Queue(`INSERT INTO synced_progress (batch_id, game_id, score, completed_at, received_at)
				VALUES ($1, $2, $3, $4, now())
				ON CONFLICT (game_id, completed_at) DO UPDATE
				SET score = excluded.score, batch_id = excluded.batch_id, received_at = excluded.received_at`,
				batch.ID, record.GameID, record.Score, record.CompletedAt)
		}
		results := tx.SendBatch(ctx, b)
		for range batch.Records {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert synced progress: %w", err)
	}
	return nil
}
