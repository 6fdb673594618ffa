package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/receptionist-gateway/internal/chat"
	"github.com/tjfontaine/receptionist-gateway/internal/completion"
	"github.com/tjfontaine/receptionist-gateway/internal/config"
	"github.com/tjfontaine/receptionist-gateway/internal/frontdoor/receptionist"
	"github.com/tjfontaine/receptionist-gateway/internal/server"
	"github.com/tjfontaine/receptionist-gateway/internal/telemetry"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/memory"
	"github.com/tjfontaine/receptionist-gateway/internal/tenant/stores"
	"github.com/tjfontaine/receptionist-gateway/internal/tokens"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := os.Getenv("RECEPTIONIST_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	for _, key := range cfg.Missing() {
		logger.Warn("missing configuration, dependent requests will fail", slog.String("key", key))
	}

	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, nil, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := stores.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open tenant store: %v", err)
	}
	defer store.Close()

	if mem, ok := store.(*memory.Store); ok {
		watchTenants(ctx, configPath, mem, logger)
	}

	forwarder := completion.New(cfg.Completion,
		completion.WithLogger(logger),
		completion.WithCounter(tokens.NewCounter()),
	)
	svc := chat.NewService(tenant.NewResolver(store, logger), forwarder, logger)

	srv := server.New(cfg.Server.Port, logger, cfg.Server.RequestTimeout)
	receptionist.NewHandler(svc, store, logger).RegisterRoutes(srv.Router)

	logger.Info("receptionist gateway configured",
		slog.String("store", store.Name()),
		slog.String("model", forwarder.Model()),
		slog.Duration("completion_timeout", cfg.Completion.Timeout),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("receptionist gateway stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// watchTenants keeps the memory store in step with the tenants declared in
// the config file. Other settings still need a restart.
func watchTenants(ctx context.Context, path string, store *memory.Store, logger *slog.Logger) {
	if path == "" {
		path = config.DefaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	err := config.Watch(ctx, path, logger, func(cfg *config.Config) {
		if cfg.Store.Driver != config.StoreMemory {
			logger.Warn("store driver changed on disk, restart to apply", slog.String("driver", cfg.Store.Driver))
			return
		}
		if err := store.Replace(cfg.Store.Memory.Tenants); err != nil {
			logger.Error("failed to reload tenants", slog.String("error", err.Error()))
			return
		}
		logger.Info("tenants reloaded", slog.Int("count", store.Len()))
	})
	if err != nil {
		logger.Warn("tenant hot-reload disabled", slog.String("error", err.Error()))
	}
}
