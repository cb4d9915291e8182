// Package telegram runs the Telegram side of the bot: poller or webhook,
// the shared middleware chain and handler routes.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/netutil"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/sequencer"

	tele "gopkg.in/telebot.v4"
)

const (
	sendRetries     = 3
	shutdownTimeout = 10 * time.Second
)

// Middleware describes a global bot middleware registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	// Sequencer is drained on shutdown when set.
	Sequencer *sequencer.Sequencer

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot       *tele.Bot
	Registry  *Registry
	Sequencer *sequencer.Sequencer
}

// RunTelegram builds the bot and serves updates until ctx is done.
// Handlers run synchronously on the poller; concurrency comes from the
// sequencer middleware.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})
	client := netutil.BuildHTTPClient(netutil.ClientOptions{
		Timeout: longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds) + 20*time.Second,
		Retries: sendRetries,
	})

	buildStart := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:       cfg.Telegram.Token,
		Poller:      poller,
		Client:      client,
		Synchronous: true,
		OnError: func(err error, c tele.Context) {
			logUpdateError(c, err)
		},
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %s", netutil.RedactError(err))
	}

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "tg.mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.Took(buildStart)),
		)
	default:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "tg.mode",
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.String("username", bot.Me.Username),
			slog.Duration("duration", logger.Took(buildStart)),
		)
		if !opts.DisableWebhookCleanup {
			removeWebhook(ctx, bot)
		}
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	SetupCommands(bot, reg)

	rt := Runtime{Bot: bot, Registry: reg, Sequencer: opts.Sequencer}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
	case <-runDone:
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if opts.Sequencer != nil {
		errs = append(errs, opts.Sequencer.Close(stopCtx))
	}
	if opts.OnStop != nil {
		errs = append(errs, opts.OnStop(stopCtx, rt))
	}
	return errors.Join(errs...)
}

func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "tg.delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", netutil.RedactError(err)),
		)
		return
	}
	logger.TG.LogAttrs(ctx, slog.LevelDebug, "tg.delete_webhook", slog.String("status", "ok"))
}

func logUpdateError(c tele.Context, err error) {
	ctx := context.Background()
	if stored, ok := tghelpers.ContextFrom(c); ok {
		ctx = stored
	}
	msg := netutil.RedactError(err)
	if strings.TrimSpace(msg) == "" {
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelError, "update.error",
		slog.String("status", "fail"),
		slog.String("err", msg),
		slog.String("error_kind", netutil.ClassifyError(err)),
	)
}
