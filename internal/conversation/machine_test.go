package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activeStates = []State{StateMenu, StateProductDescription, StateCart, StateAwaitingEmail}

func TestStartRendersMenuFromAnyState(t *testing.T) {
	for _, st := range append([]State{StateIdle, StateEnded}, activeStates...) {
		s := Session{ChatID: 7, State: st, SelectedProductID: "p-1"}
		tr, ok := Step(s, Start())
		require.True(t, ok, st.String())
		assert.Equal(t, ActionShowMenu, tr.Action.Kind)
		assert.Equal(t, StateMenu, tr.Next)
		assert.Equal(t, "p-1", tr.Session.SelectedProductID, "start keeps the selected product")
	}
}

func TestMenuShowCartAlwaysReachesCart(t *testing.T) {
	for _, pid := range []string{"", "p-1"} {
		tr, ok := Step(Session{ChatID: 1, State: StateMenu, SelectedProductID: pid}, ShowCart())
		require.True(t, ok)
		assert.Equal(t, ActionShowCart, tr.Action.Kind)
		assert.Equal(t, StateCart, tr.Next)
		assert.Equal(t, StateCart, tr.Session.State)
	}
}

func TestSelectProductStoresID(t *testing.T) {
	tr, ok := Step(Session{ChatID: 1, State: StateMenu}, SelectProduct("fish-42"))
	require.True(t, ok)
	assert.Equal(t, Action{Kind: ActionShowProduct, ProductID: "fish-42"}, tr.Action)
	assert.Equal(t, StateProductDescription, tr.Next)
	assert.Equal(t, "fish-42", tr.Session.SelectedProductID)

	_, ok = Step(Session{ChatID: 1, State: StateMenu}, SelectProduct("  "))
	assert.False(t, ok)
}

func TestSelectQuantityAddsSessionProduct(t *testing.T) {
	s := Session{ChatID: 3, State: StateProductDescription, SelectedProductID: "salmon"}
	for _, q := range QuantityOptions {
		tr, ok := Step(s, SelectQuantity(q))
		require.True(t, ok)
		assert.Equal(t, Action{Kind: ActionAddToCart, ProductID: "salmon", Quantity: q}, tr.Action)
		assert.Equal(t, StateProductDescription, tr.Next)
		assert.Equal(t, s, tr.Session)
	}

	_, ok := Step(s, SelectQuantity(7))
	assert.False(t, ok, "only offered quantities are accepted")
	_, ok = Step(Session{ChatID: 3, State: StateProductDescription}, SelectQuantity(5))
	assert.False(t, ok, "no product selected")
}

func TestProductDescriptionNavigation(t *testing.T) {
	s := Session{ChatID: 3, State: StateProductDescription, SelectedProductID: "salmon"}

	tr, ok := Step(s, ShowCart())
	require.True(t, ok)
	assert.Equal(t, StateCart, tr.Next)

	tr, ok = Step(s, BackToMenu())
	require.True(t, ok)
	assert.Equal(t, ActionShowMenu, tr.Action.Kind)
	assert.Equal(t, StateMenu, tr.Next)
}

func TestCartTransitions(t *testing.T) {
	s := Session{ChatID: 9, State: StateCart}

	tr, ok := Step(s, RemoveItem("line-1"))
	require.True(t, ok)
	assert.Equal(t, Action{Kind: ActionRemoveItem, ItemID: "line-1"}, tr.Action)
	assert.Equal(t, StateCart, tr.Next)

	tr, ok = Step(s, BackToMenu())
	require.True(t, ok)
	assert.Equal(t, StateMenu, tr.Next)

	tr, ok = Step(s, Checkout())
	require.True(t, ok)
	assert.Equal(t, ActionPromptEmail, tr.Action.Kind)
	assert.Equal(t, StateAwaitingEmail, tr.Next)
}

func TestAwaitingEmail(t *testing.T) {
	s := Session{ChatID: 5, State: StateAwaitingEmail, SelectedProductID: "salmon"}

	for _, email := range []string{"user@example.com", "a.b@mail.co.uk", " x@y.z "} {
		tr, ok := Step(s, Text(email))
		require.True(t, ok)
		assert.Equal(t, ActionCompleteOrder, tr.Action.Kind, email)
		assert.Equal(t, StateEnded, tr.Next)
		assert.Equal(t, Session{ChatID: 5, State: StateEnded}, tr.Session)
	}

	for _, bad := range []string{"", "user", "user@", "@example.com", "user@example", "user@@example.com"} {
		tr, ok := Step(s, Text(bad))
		require.True(t, ok)
		assert.Equal(t, ActionRepromptEmail, tr.Action.Kind, bad)
		assert.Equal(t, StateAwaitingEmail, tr.Next)
		assert.Equal(t, s, tr.Session)
	}
}

func TestCompleteOrderCarriesTrimmedEmail(t *testing.T) {
	tr, ok := Step(Session{ChatID: 5, State: StateAwaitingEmail}, Text("  buyer@shop.io\n"))
	require.True(t, ok)
	assert.Equal(t, "buyer@shop.io", tr.Action.Email)
}

func TestCancelEndsEverySession(t *testing.T) {
	for _, st := range append([]State{StateIdle}, activeStates...) {
		tr, ok := Step(Session{ChatID: 2, State: st, SelectedProductID: "cod"}, Cancel())
		require.True(t, ok, st.String())
		assert.Equal(t, ActionFarewell, tr.Action.Kind)
		assert.Equal(t, StateEnded, tr.Next)
		assert.Equal(t, Session{ChatID: 2, State: StateEnded}, tr.Session, "cancel clears session data")
	}
}

func TestUnmatchedPairsAreRejected(t *testing.T) {
	cases := []struct {
		state State
		event Event
	}{
		{StateIdle, ShowCart()},
		{StateIdle, Text("hello")},
		{StateMenu, BackToMenu()},
		{StateMenu, Checkout()},
		{StateMenu, SelectQuantity(5)},
		{StateMenu, Text("user@example.com")},
		{StateProductDescription, Checkout()},
		{StateProductDescription, SelectProduct("x")},
		{StateProductDescription, RemoveItem("x")},
		{StateCart, ShowCart()},
		{StateCart, SelectProduct("x")},
		{StateCart, SelectQuantity(10)},
		{StateAwaitingEmail, ShowCart()},
		{StateAwaitingEmail, Checkout()},
		{StateMenu, Event{}},
	}
	for _, tc := range cases {
		_, ok := Step(Session{ChatID: 1, State: tc.state}, tc.event)
		assert.False(t, ok, "%s + %s", tc.state, tc.event.Kind)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@b.c"))
	assert.True(t, ValidEmail("name.surname@sub.domain.org"))
	assert.False(t, ValidEmail("a@b"))
	assert.False(t, ValidEmail("no-at-sign.com"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "CART", StateCart.String())
	assert.Equal(t, "select_quantity", EventSelectQuantity.String())
	assert.Equal(t, "event(99)", EventKind(99).String())
	assert.Equal(t, "complete_order", ActionCompleteOrder.String())
}
