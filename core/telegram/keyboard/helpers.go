// Package keyboard builds Telegram inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Key becomes the telebot unique id the
// callback is routed by; Payload travels with it.
type Button struct {
	Label   string
	Key     string
	Payload string
}

// Grid is an inline keyboard laid out row by row.
type Grid [][]Button

// Row appends a row; empty rows are dropped.
func (g Grid) Row(buttons ...Button) Grid {
	if len(buttons) == 0 {
		return g
	}
	return append(g, buttons)
}

// Markup renders the grid, or nil when it has no buttons.
func (g Grid) Markup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, 0, len(g))
	for _, row := range g {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			r = append(r, *markup.Data(b.Label, b.Key, b.Payload).Inline())
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	markup.InlineKeyboard = inline
	return markup
}
