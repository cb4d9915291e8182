package middleware

import (
	"log/slog"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/callbacks"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UpdateKind names the update type for metrics labels and rate limit exclusions.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	default:
		return "other"
	}
}

// LoggerMiddleware assigns the request id, stores the logging context on c
// and logs a sampled receipt line per update. Message text is not logged:
// at checkout it is the customer's email.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		chatID, userID := tghelpers.IDs(c)
		c.Set("rid", logger.BuildRID(upd.ID, chatID, userID))
		c.Set("update_start", time.Now())

		ctx := tghelpers.BuildContext(c)
		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		attrs := []slog.Attr{
			slog.String("status", "ok"),
			slog.String("kind", UpdateKind(upd)),
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.ParseCallbackData(upd.Callback)
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case upd.Message != nil:
			attrs = append(attrs, slog.Int("text_len", len(upd.Message.Text)))
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		return next(c)
	}
}
