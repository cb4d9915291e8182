package conversation

import "strconv"

// EventKind tags an inbound event.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventStart
	EventCancel
	EventShowCart
	EventBackToMenu
	EventCheckout
	EventSelectProduct
	EventSelectQuantity
	EventRemoveItem
	EventText
)

var eventNames = [...]string{
	EventUnknown:        "unknown",
	EventStart:          "start",
	EventCancel:         "cancel",
	EventShowCart:       "show_cart",
	EventBackToMenu:     "back_to_menu",
	EventCheckout:       "checkout",
	EventSelectProduct:  "select_product",
	EventSelectQuantity: "select_quantity",
	EventRemoveItem:     "remove_item",
	EventText:           "text",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "event(" + strconv.Itoa(int(k)) + ")"
	}
	return eventNames[k]
}

// Event is a transport-independent inbound event. Only the field matching
// Kind is meaningful.
type Event struct {
	Kind      EventKind
	ProductID string
	Quantity  int
	ItemID    string
	Text      string
}

func Start() Event      { return Event{Kind: EventStart} }
func Cancel() Event     { return Event{Kind: EventCancel} }
func ShowCart() Event   { return Event{Kind: EventShowCart} }
func BackToMenu() Event { return Event{Kind: EventBackToMenu} }
func Checkout() Event   { return Event{Kind: EventCheckout} }

func SelectProduct(id string) Event { return Event{Kind: EventSelectProduct, ProductID: id} }
func SelectQuantity(n int) Event    { return Event{Kind: EventSelectQuantity, Quantity: n} }
func RemoveItem(id string) Event    { return Event{Kind: EventRemoveItem, ItemID: id} }
func Text(content string) Event     { return Event{Kind: EventText, Text: content} }

// QuantityOptions lists the kilogram amounts offered on the product screen.
var QuantityOptions = []int{5, 10, 15}

// ValidQuantity reports whether n is one of QuantityOptions.
func ValidQuantity(n int) bool {
	for _, q := range QuantityOptions {
		if q == n {
			return true
		}
	}
	return false
}
