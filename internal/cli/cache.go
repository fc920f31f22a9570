package cli

import (
	"context"

	"learnquest-service/internal/config"

	"github.com/spf13/cobra"
)

// NewCacheCmd groups maintenance commands for the offline game cache.
func NewCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the offline game cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "compact",
		Short: "Remove expired cached games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services) error {
				removed, err := svc.offline.ClearExpiredCache(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("removed %d expired games\n", removed)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "usage",
		Short: "Show estimated storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services) error {
				status, err := svc.offline.Status(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("cached games: %d\nunsynced records: %d\nused: %.4f MB\navailable: %.4f MB\n",
					status.CachedGames, status.Unsynced, status.Storage.Used, status.Storage.Available)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached game (offline progress is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services) error {
				if err := svc.offline.ClearCache(ctx); err != nil {
					return err
				}
				cmd.Println("offline cache cleared")
				return nil
			})
		},
	})
	return cmd
}

func withServices(ctx context.Context, configPath string, fn func(context.Context, *services) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}
