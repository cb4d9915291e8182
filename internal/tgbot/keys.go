package tgbot

import (
	"strconv"

	"github.com/EgoisTa-Git/fish-shop/core/telegram/keyboard"
	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/storefront"

	tele "gopkg.in/telebot.v4"
)

// Callback keys of the inline buttons.
const (
	keyShowCart = "show_cart"
	keyMenu     = "menu"
	keyCheckout = "checkout"
	keyProduct  = "product"
	keyQuantity = "qty"
	keyRemove   = "remove"
)

var callbackKeys = []string{keyShowCart, keyMenu, keyCheckout, keyProduct, keyQuantity, keyRemove}

// encodeButton maps a dialog button to its callback key and payload.
func encodeButton(b storefront.Button) keyboard.Button {
	btn := keyboard.Button{Label: b.Label}
	ev := b.Event
	switch ev.Kind {
	case conversation.EventShowCart:
		btn.Key = keyShowCart
	case conversation.EventBackToMenu:
		btn.Key = keyMenu
	case conversation.EventCheckout:
		btn.Key = keyCheckout
	case conversation.EventSelectProduct:
		btn.Key, btn.Payload = keyProduct, ev.ProductID
	case conversation.EventSelectQuantity:
		btn.Key, btn.Payload = keyQuantity, strconv.Itoa(ev.Quantity)
	case conversation.EventRemoveItem:
		btn.Key, btn.Payload = keyRemove, ev.ItemID
	}
	return btn
}

// decodeCallback is the inverse of encodeButton. ok is false for unknown
// keys and malformed payloads.
func decodeCallback(key, payload string) (conversation.Event, bool) {
	switch key {
	case keyShowCart:
		return conversation.ShowCart(), true
	case keyMenu:
		return conversation.BackToMenu(), true
	case keyCheckout:
		return conversation.Checkout(), true
	case keyProduct:
		return conversation.SelectProduct(payload), payload != ""
	case keyQuantity:
		n, err := strconv.Atoi(payload)
		if err != nil {
			return conversation.Event{}, false
		}
		return conversation.SelectQuantity(n), true
	case keyRemove:
		return conversation.RemoveItem(payload), payload != ""
	}
	return conversation.Event{}, false
}

func buildMarkup(kb storefront.Keyboard) *tele.ReplyMarkup {
	grid := make(keyboard.Grid, 0, len(kb))
	for _, row := range kb {
		buttons := make([]keyboard.Button, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, encodeButton(b))
		}
		grid = grid.Row(buttons...)
	}
	return grid.Markup()
}
