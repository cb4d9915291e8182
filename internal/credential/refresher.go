package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
)

// DefaultInterval is the renewal period of client_credentials tokens.
const DefaultInterval = time.Hour

// Exchanger trades client credentials for a fresh token.
type Exchanger interface {
	ExchangeCredentials(ctx context.Context, clientID, clientSecret string) (Token, error)
}

// Options configures a Refresher.
type Options struct {
	ClientID     string
	ClientSecret string
	Interval     time.Duration
	// Ticks replaces the interval ticker; tests drive refreshes with it.
	Ticks <-chan time.Time
}

// Refresher is the only writer of its Cell.
type Refresher struct {
	cell         *Cell
	ex           Exchanger
	clientID     string
	clientSecret string
	interval     time.Duration
	ticks        <-chan time.Time

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRefresher builds a Refresher that publishes into cell.
func NewRefresher(cell *Cell, ex Exchanger, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Refresher{
		cell:         cell,
		ex:           ex,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		interval:     opts.Interval,
		ticks:        opts.Ticks,
		ready:        make(chan struct{}),
	}
}

// Ready is closed once the first token has been published.
func (r *Refresher) Ready() <-chan struct{} {
	return r.ready
}

// Run exchanges credentials immediately and then on every interval until ctx
// is done. Only a failure of the first exchange is returned; later failures
// are logged and the previous token stays published.
func (r *Refresher) Run(ctx context.Context) error {
	if r.cell == nil || r.ex == nil {
		return errors.New("credential: refresher not configured")
	}
	if err := r.refresh(ctx); err != nil {
		return fmt.Errorf("credential: initial exchange: %w", err)
	}

	ticks := r.ticks
	if ticks == nil {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.LogEvent(ctx, logger.Auth, slog.LevelInfo, "token.refresher.stopped")
			return nil
		case <-ticks:
			if err := r.refresh(ctx); err != nil && ctx.Err() == nil {
				attrs := []slog.Attr{
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
					slog.String("err_code", logger.ErrorCode(err)),
				}
				if prev, ok := r.cell.Token(); ok {
					attrs = append(attrs, slog.Time("expires_at", prev.ExpiresAt))
				}
				logger.LogEvent(ctx, logger.Auth, slog.LevelError, "token.refresh", attrs...)
			}
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) error {
	start := time.Now()
	tok, err := r.ex.ExchangeCredentials(ctx, r.clientID, r.clientSecret)
	if err == nil && tok.Value == "" {
		err = errors.New("credential: empty access token")
	}
	metrics.ObserveTokenRefresh(tok.ExpiresAt, err)
	if err != nil {
		return err
	}

	r.cell.Store(tok)
	r.readyOnce.Do(func() { close(r.ready) })
	logger.LogEvent(ctx, logger.Auth, slog.LevelInfo, "token.refresh",
		slog.String("status", "ok"),
		slog.Time("expires_at", tok.ExpiresAt),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
