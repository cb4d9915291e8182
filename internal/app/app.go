// Package app wires the fish shop bot from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/bootstrap"
	corecmd "github.com/EgoisTa-Git/fish-shop/core/cmd"
	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	"github.com/EgoisTa-Git/fish-shop/core/netutil"
	tg "github.com/EgoisTa-Git/fish-shop/core/telegram"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/router"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/sequencer"
	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/credential"
	"github.com/EgoisTa-Git/fish-shop/internal/moltin"
	"github.com/EgoisTa-Git/fish-shop/internal/orders"
	"github.com/EgoisTa-Git/fish-shop/internal/storefront"
	"github.com/EgoisTa-Git/fish-shop/internal/tgbot"
)

// App holds the wired components of one bot process.
type App struct {
	cfg       *coreconfig.Config
	infra     *bootstrap.Result
	refresher *credential.Refresher
	sequencer *sequencer.Sequencer
	registry  *tg.Registry
	sessions  conversation.Store
}

// New bootstraps infrastructure and wires the storefront.
func New(ctx context.Context, cfg *coreconfig.Config) (corecmd.App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	cell := &credential.Cell{}
	client := moltin.New(cfg.Moltin.BaseURL, cell, moltin.WithHTTPClient(
		netutil.BuildHTTPClient(netutil.ClientOptions{
			Timeout: time.Duration(cfg.Moltin.TimeoutSeconds) * time.Second,
		}),
	))
	refresher := credential.NewRefresher(cell, client, credential.Options{
		ClientID:     cfg.Moltin.ClientID,
		ClientSecret: cfg.Moltin.ClientSecret,
		Interval:     time.Duration(cfg.Moltin.TokenRefreshSeconds) * time.Second,
	})

	var flowOpts []storefront.Option
	if infra.DB != nil {
		flowOpts = append(flowOpts, storefront.WithOrderRecorder(orders.NewJournal(infra.DB)))
	}
	sessions := conversation.NewMemoryStore()
	flow := storefront.NewFlow(client, sessions, flowOpts...)

	reg := tg.NewRegistry()
	if err := tgbot.New(flow).Register(reg); err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	seq := sequencer.New(sequencer.Options{
		Workers:        cfg.Sequencer.Workers,
		MaxPending:     cfg.Sequencer.MaxPending,
		HandlerTimeout: time.Duration(cfg.Sequencer.HandlerTimeoutSeconds) * time.Second,
	})

	return &App{
		cfg:       cfg,
		infra:     infra,
		refresher: refresher,
		sequencer: seq,
		registry:  reg,
		sessions:  sessions,
	}, nil
}

// TelegramRunOptions assembles the middleware chain and routes.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{})...)

	return tg.RunOptions{
		Config:    a.cfg,
		Registry:  a.registry,
		Sequencer: a.sequencer,
		Middlewares: tg.DefaultMiddlewares(a.cfg, tg.ChainOptions{
			Sequencer:  a.sequencer,
			OnLimited:  tgbot.OnLimited,
			OnRejected: tgbot.OnBusy,
		}),
		Routes:  routes,
		OnStart: a.waitForToken,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			logger.Info(ctx, "app", "sessions.dropped", slog.Int("items", a.sessions.Len()))
			return nil
		},
	}, nil
}

// Services returns the token refresher and, when configured, the metrics listener.
func (a *App) Services() []corecmd.Service {
	svcs := []corecmd.Service{{Name: "token_refresher", Run: a.refresher.Run}}
	if listen := a.cfg.Metrics.Listen; listen != "" {
		svcs = append(svcs, corecmd.Service{
			Name: "metrics",
			Run:  func(ctx context.Context) error { return metrics.Serve(ctx, listen) },
		})
	}
	return svcs
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.infra.Close()
}

// waitForToken holds the bot back until the first access token is published.
func (a *App) waitForToken(ctx context.Context, _ tg.Runtime) error {
	select {
	case <-a.refresher.Ready():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("app: waiting for access token: %w", ctx.Err())
	}
}
