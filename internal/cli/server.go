package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnquest-service/internal/config"
	"learnquest-service/internal/scheduler"
	"learnquest-service/internal/telemetry"
	transport "learnquest-service/internal/transport/http"

	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the LearnQuest API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, false); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = "learnquest-service"
	}
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if removed, err := svc.offline.ClearExpiredCache(ctx); err != nil {
		log.Printf("startup cache compaction: %v", err)
	} else if removed > 0 {
		log.Printf("startup cache compaction removed %d expired games", removed)
	}

	svc.monitor.OnChange(func(online bool) {
		go func() {
			svc.offline.HandleConnectivityChange(ctx, online)
			if _, err := svc.hub.Refresh(ctx, svc.offline); err != nil {
				log.Printf("publish status: %v", err)
			}
		}()
	})

	jobs := scheduler.New(ctx)
	for _, job := range backgroundJobs(cfg, svc) {
		if err := jobs.Add(job); err != nil {
			return err
		}
	}
	jobs.Start()
	defer jobs.Stop()

	mux := http.NewServeMux()
	transport.NewAPIHandler(svc.progression, svc.offline, svc.hub, svc.monitor).Register(mux)
	mux.HandleFunc("GET /ws/status", transport.NewWSHandler(svc.offline, svc.hub).ServeStatus)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting learnquest service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
			cancelRun()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// backgroundJobs lists the periodic maintenance tasks of a running server.
func backgroundJobs(cfg config.Config, svc *services) []scheduler.Job {
	probeInterval := config.TTLDuration(cfg.Connectivity.ProbeInterval, 10*time.Second)
	if cfg.Connectivity.ProbeURL == "" {
		probeInterval = 0
	}
	return []scheduler.Job{
		{
			Name:     "cache-compaction",
			Interval: config.TTLDuration(cfg.Offline.CompactInterval, time.Hour),
			Run: func(ctx context.Context) error {
				removed, err := svc.offline.ClearExpiredCache(ctx)
				if removed > 0 {
					log.Printf("cache compaction removed %d expired games", removed)
				}
				return err
			},
		},
		{
			Name:     "connectivity-probe",
			Interval: probeInterval,
			Run: func(ctx context.Context) error {
				svc.monitor.Probe(ctx)
				return nil
			},
		},
		{
			Name:     "sync-retry",
			Interval: config.TTLDuration(cfg.Offline.SyncInterval, 30*time.Second),
			Run: func(ctx context.Context) error {
				_, err := svc.offline.SyncWhenOnline(ctx)
				return err
			},
		},
		{
			Name:     "status-refresh",
			Interval: config.TTLDuration(cfg.Offline.StatusInterval, 5*time.Second),
			Run: func(ctx context.Context) error {
				_, err := svc.hub.Refresh(ctx, svc.offline)
				return err
			},
		},
	}
}
