// Package storefront runs the purchase dialog: it steps the conversation,
// calls the commerce backend for the chosen action and renders the result.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	"github.com/EgoisTa-Git/fish-shop/internal/conversation"
	"github.com/EgoisTa-Git/fish-shop/internal/moltin"
	"github.com/EgoisTa-Git/fish-shop/internal/orders"
)

// ErrRejected is returned when the event does not apply to the chat's
// current state. The session is left unchanged.
var ErrRejected = errors.New("storefront: action not available")

// Flow executes dialog transitions. Handle must not run concurrently for the
// same chat; the update sequencer serialises each chat.
type Flow struct {
	api    API
	store  conversation.Store
	orders OrderRecorder
}

// Option customises a Flow.
type Option func(*Flow)

// WithOrderRecorder journals completed checkouts to r.
func WithOrderRecorder(r OrderRecorder) Option {
	return func(f *Flow) { f.orders = r }
}

// NewFlow returns a Flow backed by api and store.
func NewFlow(api API, store conversation.Store, opts ...Option) *Flow {
	f := &Flow{api: api, store: store}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handle steps the chat's session with in.Event and executes the resulting
// action through m. On error the session is not committed.
func (f *Flow) Handle(ctx context.Context, in Inbound, m Messenger) error {
	start := time.Now()
	current, _ := f.store.Get(in.ChatID)
	current.ChatID = in.ChatID
	ctx = logger.WithState(ctx, current.State.String())

	tr, ok := conversation.Step(current, in.Event)
	metrics.ObserveTransition(current.State.String(), tr.Next.String(), ok)
	if !ok {
		logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "flow.transition",
			slog.String("status", "rejected"),
			slog.String("cb_key", in.Event.Kind.String()),
		)
		return ErrRejected
	}

	if err := f.execute(ctx, in, tr.Action, m); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "flow.transition",
			slog.String("status", "fail"),
			slog.String("action", tr.Action.Kind.String()),
			slog.String("next_state", tr.Next.String()),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", logger.ErrorCode(err)),
			slog.Duration("duration", logger.Took(start)),
		)
		return fmt.Errorf("storefront: %s: %w", tr.Action.Kind, err)
	}

	f.store.Put(tr.Session)
	logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "flow.transition",
		slog.String("status", "ok"),
		slog.String("action", tr.Action.Kind.String()),
		slog.String("next_state", tr.Next.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func (f *Flow) execute(ctx context.Context, in Inbound, act conversation.Action, m Messenger) error {
	cartID := moltin.CartID(in.ChatID)
	switch act.Kind {
	case conversation.ActionShowMenu:
		return f.showMenu(ctx, m)
	case conversation.ActionShowProduct:
		return f.showProduct(ctx, act.ProductID, m)
	case conversation.ActionShowCart:
		cart, err := f.api.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		return replacePrompt(ctx, m, func() error {
			text, kb := renderCart(cart)
			return m.SendText(ctx, text, kb)
		})
	case conversation.ActionAddToCart:
		if _, err := f.api.AddCartItem(ctx, cartID, act.ProductID, act.Quantity); err != nil {
			return err
		}
		notify(ctx, m, fmt.Sprintf(textAdded, act.Quantity))
		return nil
	case conversation.ActionRemoveItem:
		cart, err := f.api.RemoveCartItem(ctx, cartID, act.ItemID)
		if err != nil {
			return err
		}
		return replacePrompt(ctx, m, func() error {
			text, kb := renderCart(cart)
			return m.SendText(ctx, text, kb)
		})
	case conversation.ActionPromptEmail:
		return m.SendText(ctx, textPromptEmail, nil)
	case conversation.ActionRepromptEmail:
		return m.SendText(ctx, textRepromptEmail, nil)
	case conversation.ActionCompleteOrder:
		return f.completeOrder(ctx, in, act.Email, m)
	case conversation.ActionFarewell:
		return m.SendText(ctx, textFarewell, nil)
	}
	return fmt.Errorf("unknown action %s", act.Kind)
}

func (f *Flow) showMenu(ctx context.Context, m Messenger) error {
	products, err := f.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	return replacePrompt(ctx, m, func() error {
		text, kb := renderMenu(products)
		return m.SendText(ctx, text, kb)
	})
}

func (f *Flow) showProduct(ctx context.Context, productID string, m Messenger) error {
	product, err := f.api.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	stock, err := f.api.GetAvailableStock(ctx, productID)
	if err != nil {
		return err
	}
	var image []byte
	if product.ImageID != "" {
		href, err := f.api.GetFileURL(ctx, product.ImageID)
		if err != nil {
			return err
		}
		if image, err = f.api.FetchImage(ctx, href); err != nil {
			return err
		}
	}

	caption, kb := renderProduct(product, stock)
	return replacePrompt(ctx, m, func() error {
		if len(image) == 0 {
			return m.SendText(ctx, caption, kb)
		}
		return m.SendPhoto(ctx, image, caption, kb)
	})
}

func (f *Flow) completeOrder(ctx context.Context, in Inbound, email string, m Messenger) error {
	customer, err := f.api.CreateCustomer(ctx, in.SenderName, email)
	if err != nil {
		return err
	}
	if err := m.SendText(ctx, fmt.Sprintf(textOrderPlaced, email), nil); err != nil {
		return err
	}
	if f.orders == nil {
		return nil
	}

	order := orders.Order{
		ChatID:       in.ChatID,
		CustomerID:   customer.ID,
		CustomerName: in.SenderName,
		Email:        email,
	}
	if cart, err := f.api.GetCart(ctx, moltin.CartID(in.ChatID)); err == nil {
		order.Total = cart.Total
	}
	// The customer exists already; a journal failure must not undo the checkout.
	if err := f.orders.Record(ctx, order); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "orders.record",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

// replacePrompt deletes the pressed prompt and sends its replacement. A
// prompt that cannot be deleted (too old, already gone) does not block the new one.
func replacePrompt(ctx context.Context, m Messenger, send func() error) error {
	if err := m.DeletePrompt(ctx); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "prompt.delete",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	return send()
}

func notify(ctx context.Context, m Messenger, text string) {
	if err := m.Notify(ctx, text); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "prompt.notify",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}
