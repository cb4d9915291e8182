package middleware

import (
	"context"
	"log/slog"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/sequencer"

	tele "gopkg.in/telebot.v4"
)

// SequenceOptions configures SequenceMiddleware.
type SequenceOptions struct {
	Sequencer *sequencer.Sequencer
	// OnRejected answers an update the sequencer refused.
	OnRejected tele.HandlerFunc
}

// SequenceMiddleware hands the rest of the chain to the sequencer lane of
// the update's chat. Updates without a chat or sender run inline.
func SequenceMiddleware(opts SequenceOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if opts.Sequencer == nil {
			return next
		}
		return func(c tele.Context) error {
			var key int64
			switch {
			case c.Chat() != nil:
				key = c.Chat().ID
			case c.Sender() != nil:
				key = c.Sender().ID
			default:
				return next(c)
			}

			ctx := tghelpers.BuildContext(c)
			kind := UpdateKind(c.Update())
			err := opts.Sequencer.Submit(ctx, key, kind, func(jobCtx context.Context) error {
				tghelpers.StoreContext(c, jobCtx)
				return next(c)
			})
			if err == nil {
				return nil
			}

			metrics.UpdatesTotal.WithLabelValues(kind, "rejected").Inc()
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "seq.submit",
				slog.String("status", "fail"),
				slog.String("outcome", "rejected"),
				slog.String("err", err.Error()),
				slog.Int("pending", opts.Sequencer.Pending()),
			)
			if opts.OnRejected != nil {
				return opts.OnRejected(c)
			}
			return nil
		}
	}
}
