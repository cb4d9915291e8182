package helpers

import (
	"bytes"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// SendText sends plain text with an optional inline keyboard.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	return c.Send(text, opts)
}

// SendPhoto uploads photo with a caption and an optional inline keyboard.
func SendPhoto(c tele.Context, photo []byte, caption string, markup *tele.ReplyMarkup) error {
	p := &tele.Photo{File: tele.FromReader(bytes.NewReader(photo)), Caption: caption}
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	return c.Send(p, opts)
}

// DeletePrompt removes the message carrying the pressed button. Updates
// without a callback have nothing to delete.
func DeletePrompt(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return nil
	}
	return c.Bot().Delete(cb.Message)
}

// Notify answers the pending callback query with a toast; for other
// updates it falls back to a plain message.
func Notify(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text})
	}
	return c.Send(text)
}

// IsMessageGone reports Telegram errors meaning the target message no
// longer exists or can no longer be touched.
func IsMessageGone(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, tele.ErrNotFoundToDelete) || errors.Is(err, tele.ErrCantEditMessage) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "message can't be deleted")
}
