package conversation

// State identifies a step of the purchase dialog.
type State string

const (
	// StateIdle means the chat has no session.
	StateIdle State = ""
	// StateMenu shows the product list.
	StateMenu State = "MENU"
	// StateProductDescription shows one product with quantity options.
	StateProductDescription State = "PRODUCT_DESCRIPTION"
	// StateCart shows the cart contents.
	StateCart State = "CART"
	// StateAwaitingEmail waits for the customer email as free text.
	StateAwaitingEmail State = "AWAITING_EMAIL"
	// StateEnded is terminal; the session is removed once reached.
	StateEnded State = "ENDED"
)

func (s State) String() string {
	if s == StateIdle {
		return "IDLE"
	}
	return string(s)
}

// Terminal reports whether the session must be torn down after reaching s.
func (s State) Terminal() bool {
	return s == StateEnded
}
