package telegram

import (
	"strings"

	coreconfig "github.com/EgoisTa-Git/fish-shop/core/config"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/middleware"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/sequencer"

	tele "gopkg.in/telebot.v4"
)

// ChainOptions tunes DefaultMiddlewares.
type ChainOptions struct {
	Sequencer *sequencer.Sequencer
	// OnLimited answers rate limited updates.
	OnLimited tele.HandlerFunc
	// OnRejected answers updates refused by a full sequencer.
	OnRejected tele.HandlerFunc
}

// DefaultMiddlewares builds the shared chain: panic recovery, per-user rate
// limit, request logging, per-chat sequencing and reply metrics. Everything
// after the sequence step runs on the chat's lane.
func DefaultMiddlewares(cfg *coreconfig.Config, opts ChainOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && cfg.RateLimit.PerSecond > 0 {
		ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, t := range cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				PerSecond: cfg.RateLimit.PerSecond,
				Burst:     cfg.RateLimit.Burst,
				Exclude:   ex,
				OnLimited: opts.OnLimited,
			}),
		})
	}

	mws = append(mws, Middleware{Name: "logger", Use: middleware.LoggerMiddleware})
	if opts.Sequencer != nil {
		mws = append(mws, Middleware{
			Name: "sequence",
			Use: middleware.SequenceMiddleware(middleware.SequenceOptions{
				Sequencer:  opts.Sequencer,
				OnRejected: opts.OnRejected,
			}),
		})
	}
	mws = append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
	return mws
}
