package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewSyncCmd uploads the pending offline progress once and exits.
func NewSyncCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload unsynced offline progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services) error {
				if !svc.monitor.Probe(ctx) {
					cmd.Println("offline: nothing uploaded")
					return nil
				}
				synced, err := svc.offline.SyncWhenOnline(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("synced %d records\n", synced)
				return nil
			})
		},
	}
}
