package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brown-csci1660/vaultbox/internal/client"
	"github.com/brown-csci1660/vaultbox/internal/httpapi"
	"github.com/brown-csci1660/vaultbox/internal/logger"
	"github.com/brown-csci1660/vaultbox/internal/metrics"
	"github.com/brown-csci1660/vaultbox/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vaultbox HTTP API server",
	Long: `Run the HTTP API server over the configured dataserver and
keyserver backends. The server shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry and profiling are opt-in; both init to no-ops when
	// disabled.
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "vaultbox",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", logger.KeyError, err.Error())
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "vaultbox",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Warn("profiling shutdown failed", logger.KeyError, err.Error())
		}
	}()

	// Metrics must initialize before the facade so the facade's
	// collectors register.
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	store, dir, closer, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	c := client.New(store, dir, client.WithMetrics(metrics.NewFacadeMetrics()))
	sessions := httpapi.NewSessionService(cfg.Session.Secret, cfg.Session.TTL)
	server := httpapi.NewServer(cfg.Server, c, sessions)

	if metricsServer := metrics.NewServer(cfg.Metrics.Port); metricsServer != nil {
		go func() {
			logger.Info("metrics server listening", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logger.KeyError, err.Error())
			}
		}()
		defer metricsServer.Close()
	}

	return server.Start(ctx)
}
