package conversation

import "strings"

// Transition is the outcome of a successful Step.
type Transition struct {
	Action  Action
	Next    State
	Session Session
}

type transitionKey struct {
	state State
	kind  EventKind
}

type handlerFunc func(s Session, ev Event) (Action, State, bool)

// transitions lists state-bound rows. Start and Cancel apply in every state
// and are resolved before this table.
var transitions = map[transitionKey]handlerFunc{
	{StateMenu, EventShowCart}:                     showCart,
	{StateMenu, EventSelectProduct}:                selectProduct,
	{StateProductDescription, EventShowCart}:       showCart,
	{StateProductDescription, EventBackToMenu}:     showMenu,
	{StateProductDescription, EventSelectQuantity}: addToCart,
	{StateCart, EventBackToMenu}:                   showMenu,
	{StateCart, EventCheckout}:                     promptEmail,
	{StateCart, EventRemoveItem}:                   removeItem,
	{StateAwaitingEmail, EventText}:                submitEmail,
}

// Step applies ev to s. ok is false when the pair is not part of the dialog;
// s must then be left as it is.
func Step(s Session, ev Event) (Transition, bool) {
	var (
		act  Action
		next State
		ok   bool
	)
	switch ev.Kind {
	case EventStart:
		act, next, ok = showMenu(s, ev)
	case EventCancel:
		act, next, ok = Action{Kind: ActionFarewell}, StateEnded, true
	default:
		h, found := transitions[transitionKey{s.State, ev.Kind}]
		if !found {
			return Transition{}, false
		}
		act, next, ok = h(s, ev)
	}
	if !ok {
		return Transition{}, false
	}

	out := s
	out.State = next
	switch {
	case next.Terminal():
		out = Session{ChatID: s.ChatID, State: StateEnded}
	case act.Kind == ActionShowProduct:
		out.SelectedProductID = act.ProductID
	}
	return Transition{Action: act, Next: next, Session: out}, true
}

func showMenu(Session, Event) (Action, State, bool) {
	return Action{Kind: ActionShowMenu}, StateMenu, true
}

func showCart(Session, Event) (Action, State, bool) {
	return Action{Kind: ActionShowCart}, StateCart, true
}

func selectProduct(_ Session, ev Event) (Action, State, bool) {
	id := strings.TrimSpace(ev.ProductID)
	if id == "" {
		return Action{}, "", false
	}
	return Action{Kind: ActionShowProduct, ProductID: id}, StateProductDescription, true
}

func addToCart(s Session, ev Event) (Action, State, bool) {
	if s.SelectedProductID == "" || !ValidQuantity(ev.Quantity) {
		return Action{}, "", false
	}
	return Action{Kind: ActionAddToCart, ProductID: s.SelectedProductID, Quantity: ev.Quantity}, StateProductDescription, true
}

func removeItem(_ Session, ev Event) (Action, State, bool) {
	id := strings.TrimSpace(ev.ItemID)
	if id == "" {
		return Action{}, "", false
	}
	return Action{Kind: ActionRemoveItem, ItemID: id}, StateCart, true
}

func promptEmail(Session, Event) (Action, State, bool) {
	return Action{Kind: ActionPromptEmail}, StateAwaitingEmail, true
}

func submitEmail(_ Session, ev Event) (Action, State, bool) {
	email := strings.TrimSpace(ev.Text)
	if !ValidEmail(email) {
		return Action{Kind: ActionRepromptEmail}, StateAwaitingEmail, true
	}
	return Action{Kind: ActionCompleteOrder, Email: email}, StateEnded, true
}
