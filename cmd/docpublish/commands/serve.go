package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/docpublish/internal/api"
	"git.home.luguber.info/inful/docpublish/internal/config"
	"git.home.luguber.info/inful/docpublish/internal/identity"
	"git.home.luguber.info/inful/docpublish/internal/version"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}
	return RunServe(g.Logger, cfg, root.Config)
}

// RunServe serves the API until SIGINT or SIGTERM, then drains in-flight
// publishes for up to server.shutdown_timeout. When configPath is set, edits
// to the identity token table take effect without a restart.
func RunServe(logger *slog.Logger, cfg *config.Config, configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := BuildRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("Failed to release backends", "error", cerr)
		}
	}()

	if interval := cfg.PathsCache.RefreshDuration(); interval > 0 {
		if err := rt.Paths.StartRefresh(ctx, interval); err != nil {
			return fmt.Errorf("start paths refresh: %w", err)
		}
	}
	if rt.Resolver.Len() == 0 {
		logger.Warn("No identity tokens configured; every publish will be rejected")
	}
	if configPath != "" {
		w, err := watchIdentities(ctx, logger, configPath, cfg, rt.Resolver, config.DefaultReloadDebounce)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		defer func() { _ = w.Stop() }()
	}

	srv := api.NewServer(api.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}, api.Dependencies{
		Publisher: rt.Pipeline,
		Paths:     rt.Paths,
		Resolver:  rt.Resolver,
		Metrics:   rt.MetricsHandler(),
		Logger:    logger,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()
	logger.Info("Serving publish API",
		"addr", cfg.Server.Addr,
		"version", version.Version,
		"storage", string(cfg.Storage.Kind),
		"records", string(cfg.Records.Kind))

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining requests...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer stopCancel()
	if err := srv.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// watchIdentities swaps the resolver's token table whenever the config file
// is rewritten with a valid configuration.
func watchIdentities(ctx context.Context, logger *slog.Logger, configPath string, cfg *config.Config, resolver *identity.StaticResolver, debounce time.Duration) (*config.Watcher, error) {
	w, err := config.NewWatcher(configPath, cfg, func(ctx context.Context, next *config.Config) error {
		resolver.Replace(next.Identity.Identities())
		logger.InfoContext(ctx, "Identity tokens reloaded", "tokens", resolver.Len())
		return nil
	}, logger)
	if err != nil {
		return nil, err
	}
	w.WithDebounce(debounce)
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
