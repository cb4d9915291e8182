package moltin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct{ v atomic.Value }

func newTokens(v string) *staticTokens {
	s := &staticTokens{}
	s.v.Store(v)
	return s
}

func (s *staticTokens) AccessToken() (string, error) { return s.v.Load().(string), nil }

const cartJSON = `{
  "data": [{
    "id": "line-1", "product_id": "salmon", "name": "Salmon", "description": "Fresh",
    "quantity": 10,
    "unit_price": {"amount": 500, "currency": "USD"},
    "value": {"amount": 5000, "currency": "USD"}
  }],
  "meta": {"display_price": {"with_tax": {"formatted": "$50.00"}}}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *staticTokens) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := newTokens("tok-1")
	return New(srv.URL, tokens, WithHTTPClient(srv.Client())), tokens
}

func TestExchangeCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "csecret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_, _ = io.WriteString(w, `{"access_token":"abc","expires":1900000000,"expires_in":3600}`)
	})

	tok, err := c.ExchangeCredentials(context.Background(), "cid", "csecret")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Value)
	assert.Equal(t, time.Unix(1_900_000_000, 0), tok.ExpiresAt)
}

func TestTokenIsReadAtCallTime(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = io.WriteString(w, `{"data":[]}`)
	})

	_, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	tokens.v.Store("tok-2")
	_, err = c.ListProducts(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2"}, seen)
}

func TestListProducts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pcm/products", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id":"p1","attributes":{"name":"Salmon"}},{"id":"p2","attributes":{"name":"Trout"}}]}`)
	})

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ProductSummary{{ID: "p1", Name: "Salmon"}, {ID: "p2", Name: "Trout"}}, products)
}

func TestGetProductStockAndFile(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/products/p1":
			_, _ = io.WriteString(w, `{"data":{"id":"p1",
				"attributes":{"name":"Salmon","description":"Fresh from Norway"},
				"meta":{"display_price":{"with_tax":{"formatted":"$5.00"}}},
				"relationships":{"main_image":{"data":{"id":"img-9","type":"main_image"}}}}}`)
		case "/v2/inventories/p1":
			_, _ = io.WriteString(w, `{"data":{"available":42}}`)
		case "/v2/files/img-9":
			_, _ = io.WriteString(w, `{"data":{"link":{"href":"https://cdn.example/img-9.jpg"}}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Product{ID: "p1", Name: "Salmon", Description: "Fresh from Norway", Price: "$5.00", ImageID: "img-9"}, p)

	stock, err := c.GetAvailableStock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 42, stock)

	href, err := c.GetFileURL(ctx, "img-9")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/img-9.jpg", href)
}

func TestCartOperations(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/carts/42/items":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var body map[string]map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"id": "salmon", "type": "cart_item", "quantity": float64(10)}, body["data"])
		case r.Method == http.MethodGet && r.URL.Path == "/v2/carts/42/items":
		case r.Method == http.MethodDelete && r.URL.Path == "/v2/carts/42/items/line-1":
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, cartJSON)
	})
	ctx := context.Background()
	cartID := CartID(42)

	for _, fn := range []func() (Cart, error){
		func() (Cart, error) { return c.AddCartItem(ctx, cartID, "salmon", 10) },
		func() (Cart, error) { return c.GetCart(ctx, cartID) },
		func() (Cart, error) { return c.RemoveCartItem(ctx, cartID, "line-1") },
	} {
		cart, err := fn()
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		line := cart.Lines[0]
		assert.Equal(t, "salmon", line.ProductID)
		assert.Equal(t, "5.00", line.UnitPrice.Decimal())
		assert.Equal(t, "50.00", line.Total().Decimal())
		assert.Equal(t, "$50.00", cart.Total)
	}
}

func TestCreateCustomer(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/customers", r.URL.Path)
		var body map[string]map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"type": "customer", "name": "@fisher", "email": "f@sea.io"}, body["data"])
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"cust-1","name":"@fisher","email":"f@sea.io"}}`)
	})

	cust, err := c.CreateCustomer(context.Background(), "@fisher", "f@sea.io")
	require.NoError(t, err)
	assert.Equal(t, Customer{ID: "cust-1", Name: "@fisher", Email: "f@sea.io"}, cust)
}

func TestNonSuccessStatusIsTyped(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = io.WriteString(w, `{"errors":[{"title":"nope"}]}`)
	})

	_, err := c.GetProduct(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "get_product", apiErr.Operation)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode())
	assert.Contains(t, apiErr.Body, "nope")

	status.Store(http.StatusUnauthorized)
	_, err = c.GetCart(context.Background(), "1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	status.Store(http.StatusBadGateway)
	_, err = c.ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestMalformedBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":`)
	})
	_, err := c.GetAvailableStock(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestFetchImage(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	})

	data, err := c.FetchImage(context.Background(), c.base+"/img.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)

	_, err = c.FetchImage(context.Background(), c.base+"/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoneyDecimal(t *testing.T) {
	assert.Equal(t, "5.00", Money{Amount: 500}.Decimal())
	assert.Equal(t, "0.07", Money{Amount: 7}.Decimal())
	assert.Equal(t, "-1.50", Money{Amount: -150}.Decimal())
	assert.Equal(t, "12.34", Money{Amount: 1234}.Decimal())
}
