// Package tgbot binds the storefront dialog to Telegram updates.
package tgbot

import (
	"context"
	"errors"
	"fmt"

	tg "github.com/EgoisTa-Git/fish-shop/core/telegram"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/callbacks"
	"github.com/EgoisTa-Git/fish-shop/core/telegram/commands"
	tghelpers "github.com/EgoisTa-Git/fish-shop/core/telegram/helpers"
	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/storefront"

	tele "gopkg.in/telebot.v4"
)

// Dialog is the part of the storefront the handlers drive.
type Dialog interface {
	Handle(ctx context.Context, in storefront.Inbound, m storefront.Messenger) error
}

// Handlers turns updates into dialog events.
type Handlers struct {
	dialog Dialog
}

// New returns Handlers feeding d.
func New(d Dialog) *Handlers {
	return &Handlers{dialog: d}
}

// Register adds the bot commands, button callbacks and text handler to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := map[string]commands.Command{
		"/start": {
			Handler:     func(c tele.Context) error { return h.dispatch(c, conversation.Start()) },
			Description: "Open the fish shop",
		},
		"/cancel": {
			Handler:     func(c tele.Context) error { return h.dispatch(c, conversation.Cancel()) },
			Description: "End the conversation",
		},
	}
	for name, cmd := range cmds {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}
	for _, key := range callbackKeys {
		if err := reg.RegisterCallback(key, h.onCallback); err != nil {
			return err
		}
	}
	reg.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: storefront.TextUnsupported})
	})
	reg.SetTextFallback(func(c tele.Context) error {
		return h.dispatch(c, conversation.Text(c.Text()))
	})
	return nil
}

func (h *Handlers) onCallback(c tele.Context) error {
	key, payload := callbacks.ParseCallbackData(c.Callback())
	ev, ok := decodeCallback(key, payload)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: storefront.TextUnsupported})
	}
	return h.dispatch(c, ev)
}

func (h *Handlers) dispatch(c tele.Context, ev conversation.Event) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	m := newMessenger(c)
	err := h.dialog.Handle(ctx, storefront.Inbound{
		ChatID:     chat.ID,
		SenderName: tghelpers.DisplayName(c.Sender()),
		Event:      ev,
	}, m)

	switch {
	case err == nil:
		m.answer("")
		return nil
	case errors.Is(err, storefront.ErrRejected):
		// Stray text outside the e-mail step is ignored; stale buttons get a toast.
		m.answer(storefront.TextUnsupported)
		return nil
	default:
		m.answer("")
		if sendErr := tghelpers.SendText(c, storefront.TextFailure, nil); sendErr != nil {
			return errors.Join(err, fmt.Errorf("send failure notice: %w", sendErr))
		}
		return err
	}
}

const (
	textSlowDown = "Too many requests, please slow down."
	textBusy     = "The shop is busy right now, please try again in a moment."
)

// OnLimited answers updates dropped by the rate limiter. Only button presses
// get a reply so the spinner stops; flooding text stays silent.
func OnLimited(c tele.Context) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: textSlowDown})
}

// OnBusy answers updates refused by a full update queue.
func OnBusy(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: textBusy})
	}
	return tghelpers.SendText(c, textBusy, nil)
}
