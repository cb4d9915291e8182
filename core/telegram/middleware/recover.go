package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into a logged failure.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				metrics.UpdatesTotal.WithLabelValues(UpdateKind(c.Update()), "fail").Inc()
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
					slog.String("status", "fail"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = nil
			}
		}()
		return next(c)
	}
}
