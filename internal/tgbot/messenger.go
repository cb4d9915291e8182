package tgbot

import (
	"context"

	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"
	"github.com/EgoisTa-Git/fish-shop/internal/storefront"

	tele "gopkg.in/telebot.v4"
)

// messenger delivers storefront screens to the chat of one update.
type messenger struct {
	c        tele.Context
	answered bool
}

func newMessenger(c tele.Context) *messenger {
	return &messenger{c: c}
}

func (m *messenger) SendText(_ context.Context, text string, kb storefront.Keyboard) error {
	return tghelpers.SendText(m.c, text, buildMarkup(kb))
}

func (m *messenger) SendPhoto(_ context.Context, photo []byte, caption string, kb storefront.Keyboard) error {
	return tghelpers.SendPhoto(m.c, photo, caption, buildMarkup(kb))
}

func (m *messenger) DeletePrompt(context.Context) error {
	err := tghelpers.DeletePrompt(m.c)
	if tghelpers.IsMessageGone(err) {
		return nil
	}
	return err
}

func (m *messenger) Notify(_ context.Context, text string) error {
	if m.c.Callback() != nil {
		m.answered = true
	}
	return tghelpers.Notify(m.c, text)
}

// answer acknowledges a pending callback query once. Telegram shows a
// spinner on the button until the query is answered.
func (m *messenger) answer(text string) {
	if m.answered || m.c.Callback() == nil {
		return
	}
	m.answered = true
	if text == "" {
		_ = m.c.Respond()
		return
	}
	_ = m.c.Respond(&tele.CallbackResponse{Text: text})
}
