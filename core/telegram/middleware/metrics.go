package middleware

import (
	"github.com/EgoisTa-Git/fish-shop/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	counterMessages = "messages"
	counterKeyboard = "kb"
)

// countingContext tallies what a handler sends back for one update.
type countingContext struct{ tele.Context }

func outboundKind(what any) string {
	switch what.(type) {
	case *tele.Photo:
		return "photo"
	case string:
		return "text"
	default:
		return "other"
	}
}

func carriesMarkup(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (c countingContext) Send(what any, opts ...any) error {
	if err := c.Context.Send(what, opts...); err != nil {
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues(outboundKind(what)).Inc()
	n, _ := c.Get(counterMessages).(int)
	c.Set(counterMessages, n+1)
	if carriesMarkup(opts) {
		c.Set(counterKeyboard, true)
	}
	return nil
}

// Respond answers are toasts; they are counted but are not messages.
func (c countingContext) Respond(resp ...*tele.CallbackResponse) error {
	if err := c.Context.Respond(resp...); err != nil {
		return err
	}
	metrics.MessagesSentTotal.WithLabelValues("toast").Inc()
	return nil
}

// MessageMetricsMiddleware counts replies per update and records the update outcome.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(counterMessages, 0)
		c.Set(counterKeyboard, false)
		err := next(countingContext{Context: c})
		metrics.UpdatesTotal.WithLabelValues(UpdateKind(c.Update()), metrics.Result(err)).Inc()
		return err
	}
}

// GetCounters returns how many messages the update produced and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(counterMessages).(int)
	kb, _ := c.Get(counterKeyboard).(bool)
	return msgs, kb
}
