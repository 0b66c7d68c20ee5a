// Package app wires config, prompt store, providers, relay service and the
// HTTP server into a runnable unit.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"promptrelay/internal/config"
	"promptrelay/internal/gateway/provider"
	"promptrelay/internal/logger"
	"promptrelay/internal/prompt"
	"promptrelay/internal/relay"
	apihttp "promptrelay/internal/transport/http/api"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *config.Config
	prompts *prompt.Store
	server  *apihttp.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	prompts, err := prompt.NewStore(cfg.Prompt.Dir, cfg.Prompt.Watch)
	if err != nil {
		return nil, err
	}

	providers, err := provider.BuildProviders(context.Background(), &cfg.Providers)
	if err != nil {
		prompts.Close()
		return nil, err
	}

	svc, err := relay.NewService(providers, cfg.Relay, prompts)
	if err != nil {
		prompts.Close()
		return nil, err
	}

	server, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:           cfg.App.HTTPAddr,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Relay:          svc,
	})
	if err != nil {
		prompts.Close()
		return nil, err
	}

	return &App{cfg: cfg, prompts: prompts, server: server}, nil
}

// Run serves until SIGINT/SIGTERM or a server failure.
func (a *App) Run(ctx context.Context) error {
	defer a.prompts.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(gctx)
	})

	err := g.Wait()
	if err != nil {
		return err
	}
	logger.Infof("server stopped")
	return nil
}
