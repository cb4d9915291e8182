package moltin

import "fmt"

// Money is an amount in minor units.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Decimal renders the amount with two fraction digits, e.g. 500 -> "5.00".
func (m Money) Decimal() string {
	amount, sign := m.Amount, ""
	if amount < 0 {
		amount, sign = -amount, "-"
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// ProductSummary is one entry of the catalog list.
type ProductSummary struct {
	ID   string
	Name string
}

// Product is the detail view of a catalog product.
type Product struct {
	ID          string
	Name        string
	Description string
	// Price is the backend formatted price including tax.
	Price   string
	ImageID string
}

// CartLine is one item of a chat's cart.
type CartLine struct {
	ID          string
	ProductID   string
	Name        string
	Description string
	UnitPrice   Money
	Quantity    int
	Value       Money
}

// Total is the unit price times the quantity.
func (l CartLine) Total() Money {
	return Money{Amount: l.UnitPrice.Amount * int64(l.Quantity), Currency: l.UnitPrice.Currency}
}

// Cart is the content of a chat's cart.
type Cart struct {
	Lines []CartLine
	// Total is the backend formatted grand total including tax.
	Total string
}

// Customer is a registered shop customer.
type Customer struct {
	ID    string
	Name  string
	Email string
}

type displayPrice struct {
	DisplayPrice struct {
		WithTax struct {
			Formatted string `json:"formatted"`
		} `json:"with_tax"`
	} `json:"display_price"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Expires     int64  `json:"expires"`
	ExpiresIn   int64  `json:"expires_in"`
}

type productListResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

type productResponse struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"attributes"`
		Meta          displayPrice `json:"meta"`
		Relationships struct {
			MainImage struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"main_image"`
		} `json:"relationships"`
	} `json:"data"`
}

type inventoryResponse struct {
	Data struct {
		Available int `json:"available"`
	} `json:"data"`
}

type fileResponse struct {
	Data struct {
		Link struct {
			Href string `json:"href"`
		} `json:"link"`
	} `json:"data"`
}

type cartResponse struct {
	Data []struct {
		ID          string `json:"id"`
		ProductID   string `json:"product_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
		UnitPrice   Money  `json:"unit_price"`
		Value       Money  `json:"value"`
	} `json:"data"`
	Meta displayPrice `json:"meta"`
}

func (r cartResponse) cart() Cart {
	c := Cart{Lines: make([]CartLine, 0, len(r.Data)), Total: r.Meta.DisplayPrice.WithTax.Formatted}
	for _, item := range r.Data {
		c.Lines = append(c.Lines, CartLine{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Name:        item.Name,
			Description: item.Description,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Value:       item.Value,
		})
	}
	return c
}

type cartItemRequest struct {
	Data struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type customerRequest struct {
	Data struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

type customerResponse struct {
	Data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}
