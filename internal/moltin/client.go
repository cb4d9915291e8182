// Package moltin is a client for the Moltin (Elastic Path) commerce API:
// catalog, inventory, files, carts and customers.
package moltin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/EgoisTa-Git/fish-shop/core/logger"
	"github.com/EgoisTa-Git/fish-shop/core/metrics"
	"github.com/EgoisTa-Git/fish-shop/core/netutil"
	"github.com/EgoisTa-Git/fish-shop/internal/credential"
)

const (
	maxErrorBody = 1 << 10
	maxImageSize = 10 << 20
)

// TokenSource yields the bearer token current at call time.
type TokenSource interface {
	AccessToken() (string, error)
}

// Client calls the commerce backend. It never refreshes tokens itself and
// never retries.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New returns a Client for baseURL. tokens may be nil for a client that only
// exchanges credentials.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = netutil.BuildHTTPClient(netutil.ClientOptions{Timeout: 15 * time.Second})
	}
	return c
}

// ExchangeCredentials trades client credentials for an access token.
func (c *Client) ExchangeCredentials(ctx context.Context, clientID, clientSecret string) (credential.Token, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"grant_type":    {"client_credentials"},
	}
	var resp tokenResponse
	if err := c.do(ctx, call{op: "exchange_credentials", method: http.MethodPost, path: "/oauth/access_token", form: form}, &resp); err != nil {
		return credential.Token{}, err
	}
	if resp.AccessToken == "" {
		return credential.Token{}, &APIError{Sentinel: ErrBadResponse, Operation: "exchange_credentials", Body: "empty access_token"}
	}
	tok := credential.Token{Value: resp.AccessToken}
	switch {
	case resp.Expires > 0:
		tok.ExpiresAt = time.Unix(resp.Expires, 0)
	case resp.ExpiresIn > 0:
		tok.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// ListProducts returns the catalog in backend order.
func (c *Client) ListProducts(ctx context.Context) ([]ProductSummary, error) {
	var resp productListResponse
	if err := c.do(ctx, call{op: "list_products", method: http.MethodGet, path: "/pcm/products", auth: true}, &resp); err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(resp.Data))
	for _, p := range resp.Data {
		out = append(out, ProductSummary{ID: p.ID, Name: p.Attributes.Name})
	}
	return out, nil
}

// GetProduct returns the catalog detail of one product.
func (c *Client) GetProduct(ctx context.Context, productID string) (Product, error) {
	var resp productResponse
	if err := c.do(ctx, call{op: "get_product", method: http.MethodGet, path: "/catalog/products/" + url.PathEscape(productID), auth: true}, &resp); err != nil {
		return Product{}, err
	}
	d := resp.Data
	return Product{
		ID:          d.ID,
		Name:        d.Attributes.Name,
		Description: d.Attributes.Description,
		Price:       d.Meta.DisplayPrice.WithTax.Formatted,
		ImageID:     d.Relationships.MainImage.Data.ID,
	}, nil
}

// GetAvailableStock returns the inventory available for productID.
func (c *Client) GetAvailableStock(ctx context.Context, productID string) (int, error) {
	var resp inventoryResponse
	if err := c.do(ctx, call{op: "get_stock", method: http.MethodGet, path: "/v2/inventories/" + url.PathEscape(productID), auth: true}, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Available, nil
}

// GetFileURL resolves a file id to its download URL.
func (c *Client) GetFileURL(ctx context.Context, fileID string) (string, error) {
	var resp fileResponse
	if err := c.do(ctx, call{op: "get_file", method: http.MethodGet, path: "/v2/files/" + url.PathEscape(fileID), auth: true}, &resp); err != nil {
		return "", err
	}
	if resp.Data.Link.Href == "" {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "get_file", Body: "empty link"}
	}
	return resp.Data.Link.Href, nil
}

// FetchImage downloads the binary behind a file URL.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "fetch_image"
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("moltin: %s: %w", op, err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("moltin: %s: %w", op, err)
		c.observe(ctx, op, 0, start, err)
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err := statusError(op, res.StatusCode, readErrorBody(res.Body))
		c.observe(ctx, op, res.StatusCode, start, err)
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxImageSize+1))
	switch {
	case err != nil:
		err = &APIError{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Err: err}
	case len(data) > maxImageSize:
		err = &APIError{Sentinel: ErrBadResponse, Operation: op, Status: res.StatusCode, Body: "image too large"}
	}
	c.observe(ctx, op, res.StatusCode, start, err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// AddCartItem adds quantity units of productID to the cart and returns the cart.
func (c *Client) AddCartItem(ctx context.Context, cartID, productID string, quantity int) (Cart, error) {
	var body cartItemRequest
	body.Data.ID = productID
	body.Data.Type = "cart_item"
	body.Data.Quantity = quantity

	var resp cartResponse
	if err := c.do(ctx, call{op: "add_cart_item", method: http.MethodPost, path: cartItemsPath(cartID), body: body, auth: true}, &resp); err != nil {
		return Cart{}, err
	}
	return resp.cart(), nil
}

// GetCart returns the current cart content.
func (c *Client) GetCart(ctx context.Context, cartID string) (Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, call{op: "get_cart", method: http.MethodGet, path: cartItemsPath(cartID), auth: true}, &resp); err != nil {
		return Cart{}, err
	}
	return resp.cart(), nil
}

// RemoveCartItem deletes one cart line and returns the remaining cart.
func (c *Client) RemoveCartItem(ctx context.Context, cartID, itemID string) (Cart, error) {
	var resp cartResponse
	path := cartItemsPath(cartID) + "/" + url.PathEscape(itemID)
	if err := c.do(ctx, call{op: "remove_cart_item", method: http.MethodDelete, path: path, auth: true}, &resp); err != nil {
		return Cart{}, err
	}
	return resp.cart(), nil
}

// CreateCustomer registers a customer record.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (Customer, error) {
	var body customerRequest
	body.Data.Type = "customer"
	body.Data.Name = name
	body.Data.Email = email

	var resp customerResponse
	if err := c.do(ctx, call{op: "create_customer", method: http.MethodPost, path: "/v2/customers", body: body, auth: true}, &resp); err != nil {
		return Customer{}, err
	}
	return Customer{ID: resp.Data.ID, Name: resp.Data.Name, Email: resp.Data.Email}, nil
}

// CartID derives the backend cart id of a chat.
func CartID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func cartItemsPath(cartID string) string {
	return "/v2/carts/" + url.PathEscape(cartID) + "/items"
}

type call struct {
	op     string
	method string
	path   string
	body   any
	form   url.Values
	auth   bool
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	start := time.Now()

	var (
		payload     io.Reader
		contentType string
	)
	switch {
	case cl.form != nil:
		payload = strings.NewReader(cl.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case cl.body != nil:
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("moltin: %s: encode body: %w", cl.op, err)
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.base+cl.path, payload)
	if err != nil {
		return fmt.Errorf("moltin: %s: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.auth {
		if c.tokens == nil {
			return fmt.Errorf("moltin: %s: %w", cl.op, credential.ErrNoToken)
		}
		token, err := c.tokens.AccessToken()
		if err != nil {
			return fmt.Errorf("moltin: %s: %w", cl.op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		err = fmt.Errorf("moltin: %s: %w", cl.op, err)
		c.observe(ctx, cl.op, 0, start, err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err := statusError(cl.op, res.StatusCode, readErrorBody(res.Body))
		c.observe(ctx, cl.op, res.StatusCode, start, err)
		return err
	}

	if out != nil && res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			apiErr := &APIError{Sentinel: ErrBadResponse, Operation: cl.op, Status: res.StatusCode, Err: err}
			c.observe(ctx, cl.op, res.StatusCode, start, apiErr)
			return apiErr
		}
	}
	c.observe(ctx, cl.op, res.StatusCode, start, nil)
	return nil
}

func (c *Client) observe(ctx context.Context, op string, status int, start time.Time, err error) {
	took := time.Since(start)
	result := "ok"
	if err != nil {
		result = netutil.ClassifyError(err)
	}
	metrics.ObserveBackend(op, result, took)

	if err == nil {
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.API, slog.LevelDebug, "api.request",
				slog.String("status", "ok"),
				slog.String("op", op),
				slog.Int("http_code", status),
				slog.Duration("duration", took),
			)
		}
		return
	}
	logger.LogEvent(ctx, logger.API, slog.LevelWarn, "api.request",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.Int("http_code", status),
		slog.Duration("duration", took),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		slog.String("err_code", logger.ErrorCode(err)),
	)
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}
