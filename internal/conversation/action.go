package conversation

// ActionKind tags the side effect a transition asks for.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionShowMenu
	ActionShowProduct
	ActionShowCart
	ActionAddToCart
	ActionRemoveItem
	ActionPromptEmail
	ActionRepromptEmail
	ActionCompleteOrder
	ActionFarewell
)

var actionNames = [...]string{
	ActionNone:          "none",
	ActionShowMenu:      "show_menu",
	ActionShowProduct:   "show_product",
	ActionShowCart:      "show_cart",
	ActionAddToCart:     "add_to_cart",
	ActionRemoveItem:    "remove_item",
	ActionPromptEmail:   "prompt_email",
	ActionRepromptEmail: "reprompt_email",
	ActionCompleteOrder: "complete_order",
	ActionFarewell:      "farewell",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return "none"
	}
	return actionNames[k]
}

// Action carries the arguments of a side effect.
type Action struct {
	Kind      ActionKind
	ProductID string
	Quantity  int
	ItemID    string
	Email     string
}
