package storefront

import (
	"context"

	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/moltin"
	"github.com/EgoisTa-Git/fish-shop/internal/orders"
)

// API is the slice of the commerce backend the dialog needs.
type API interface {
	ListProducts(ctx context.Context) ([]moltin.ProductSummary, error)
	GetProduct(ctx context.Context, productID string) (moltin.Product, error)
	GetAvailableStock(ctx context.Context, productID string) (int, error)
	GetFileURL(ctx context.Context, fileID string) (string, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
	AddCartItem(ctx context.Context, cartID, productID string, quantity int) (moltin.Cart, error)
	GetCart(ctx context.Context, cartID string) (moltin.Cart, error)
	RemoveCartItem(ctx context.Context, cartID, itemID string) (moltin.Cart, error)
	CreateCustomer(ctx context.Context, name, email string) (moltin.Customer, error)
}

// Button is an inline option that feeds Event back into the dialog.
type Button struct {
	Label string
	Event conversation.Event
}

// Keyboard is a list of button rows.
type Keyboard [][]Button

// Messenger delivers rendered screens to one chat.
type Messenger interface {
	SendText(ctx context.Context, text string, kb Keyboard) error
	SendPhoto(ctx context.Context, photo []byte, caption string, kb Keyboard) error
	// DeletePrompt removes the message whose button triggered the update, if any.
	DeletePrompt(ctx context.Context) error
	// Notify shows a short acknowledgement for a button press.
	Notify(ctx context.Context, text string) error
}

// OrderRecorder journals completed checkouts.
type OrderRecorder interface {
	Record(ctx context.Context, o orders.Order) error
}

// Inbound is one event addressed to a chat's dialog.
type Inbound struct {
	ChatID     int64
	SenderName string
	Event      conversation.Event
}
