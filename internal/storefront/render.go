package storefront

import (
	"fmt"
	"strings"

	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/moltin"
)

const (
	textMenu          = "Please choose a product:"
	textPromptEmail   = "Please send us your email"
	textRepromptEmail = "Please check your email address and send it again"
	textFarewell      = "Goodbye! See you again."
	textOrderPlaced   = "E-mail %s verified. Your order has been placed."
	textAdded         = "Added %d kg to cart"

	// TextUnsupported acknowledges a button that does not fit the current screen.
	TextUnsupported = "Unsupported action"
	// TextFailure is shown when a backend call fails.
	TextFailure = "Something went wrong, please try again later."
)

var (
	buttonShowCart = Button{Label: "Show cart", Event: conversation.ShowCart()}
	buttonBack     = Button{Label: "Back", Event: conversation.BackToMenu()}
	buttonMenu     = Button{Label: "Menu", Event: conversation.BackToMenu()}
	buttonPay      = Button{Label: "Pay", Event: conversation.Checkout()}
)

func renderMenu(products []moltin.ProductSummary) (string, Keyboard) {
	kb := make(Keyboard, 0, len(products)+1)
	for _, p := range products {
		kb = append(kb, []Button{{Label: p.Name, Event: conversation.SelectProduct(p.ID)}})
	}
	kb = append(kb, []Button{buttonShowCart})
	return textMenu, kb
}

func renderProduct(p moltin.Product, stock int) (string, Keyboard) {
	caption := fmt.Sprintf("%s\n\n%s per kg\n%s\n\n%d in stock available", p.Name, p.Price, p.Description, stock)

	kb := make(Keyboard, 0, len(conversation.QuantityOptions)+2)
	for _, q := range conversation.QuantityOptions {
		kb = append(kb, []Button{{Label: fmt.Sprintf("Add %d kg to cart", q), Event: conversation.SelectQuantity(q)}})
	}
	kb = append(kb, []Button{buttonShowCart}, []Button{buttonBack})
	return caption, kb
}

func renderCart(cart moltin.Cart) (string, Keyboard) {
	var b strings.Builder
	b.WriteString("Your cart:\n")
	kb := make(Keyboard, 0, len(cart.Lines)+2)
	for _, line := range cart.Lines {
		fmt.Fprintf(&b, "\n%s", line.Name)
		if line.Description != "" {
			fmt.Fprintf(&b, "\n%s", line.Description)
		}
		fmt.Fprintf(&b, "\n$%s per kg", line.UnitPrice.Decimal())
		fmt.Fprintf(&b, "\n%dkg in cart for $%s\n", line.Quantity, line.Total().Decimal())
		kb = append(kb, []Button{{Label: "Remove " + line.Name, Event: conversation.RemoveItem(line.ID)}})
	}
	total := cart.Total
	if total == "" {
		total = "$0.00"
	}
	fmt.Fprintf(&b, "\nTotal: %s", total)
	kb = append(kb, []Button{buttonMenu}, []Button{buttonPay})
	return b.String(), kb
}
