package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/forgecart/storefront/internal/domain"
)

const defaultCallTimeout = 10 * time.Second

var httpTracer = otel.Tracer("github.com/forgecart/storefront/internal/engine")

// HTTPClient talks JSON over HTTP to the commerce engine. Every call is
// bounded by the configured timeout; a deadline expiry surfaces as
// ErrUnavailable like any other transport failure.
type HTTPClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	httpc   *http.Client
}

// HTTPClientConfig configures the engine HTTP client.
type HTTPClientConfig struct {
	BaseURL     string
	APIKey      string
	CallTimeout time.Duration
	Transport   http.RoundTripper
}

// NewHTTPClient constructs an HTTPClient, validating the base URL.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("engine: base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("engine: invalid base URL: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &HTTPClient{
		baseURL: base,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		timeout: timeout,
		httpc:   &http.Client{Transport: transport},
	}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginByIDRequest struct {
	CustomerID int `json:"customerId"`
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
	CustomerID   int    `json:"customerId"`
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, storeID, username, password string) (LoginResult, error) {
	var resp loginResponse
	status, err := c.do(ctx, "engine.login", http.MethodPost,
		c.storePath(storeID, "sessions/login"), loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return LoginResult{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return LoginResult{}, ErrLoginFailed
	}
	if status != http.StatusOK {
		return LoginResult{}, c.unexpectedStatus("login", status)
	}
	return LoginResult{SessionToken: resp.SessionToken, CustomerID: resp.CustomerID}, nil
}

// LoginByCustomerID implements Client.
func (c *HTTPClient) LoginByCustomerID(ctx context.Context, storeID string, customerID int) (LoginResult, error) {
	var resp loginResponse
	status, err := c.do(ctx, "engine.login_by_id", http.MethodPost,
		c.storePath(storeID, "sessions/login-by-id"), loginByIDRequest{CustomerID: customerID}, &resp)
	if err != nil {
		return LoginResult{}, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound {
		return LoginResult{}, ErrLoginFailed
	}
	if status != http.StatusOK {
		return LoginResult{}, c.unexpectedStatus("login-by-id", status)
	}
	return LoginResult{SessionToken: resp.SessionToken, CustomerID: resp.CustomerID}, nil
}

// Logout implements Client.
func (c *HTTPClient) Logout(ctx context.Context, storeID, sessionToken string) error {
	status, err := c.do(ctx, "engine.logout", http.MethodPost,
		c.storePath(storeID, "sessions/logout"), map[string]string{"sessionToken": sessionToken}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return c.unexpectedStatus("logout", status)
	}
	return nil
}

type basketResponse struct {
	Lines []domain.BasketLine `json:"lines"`
}

// BasketItems implements Client.
func (c *HTTPClient) BasketItems(ctx context.Context, storeID, sessionToken string) ([]domain.BasketLine, error) {
	path := c.storePath(storeID, "basket")
	if sessionToken != "" {
		path += "?session=" + url.QueryEscape(sessionToken)
	}
	var resp basketResponse
	status, err := c.do(ctx, "engine.basket_items", http.MethodGet, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("basket", status)
	}
	return resp.Lines, nil
}

type addBasketItemRequest struct {
	SessionToken string           `json:"sessionToken,omitempty"`
	ProductID    string           `json:"productId"`
	Quantity     int              `json:"quantity"`
	Options      []*domain.Option `json:"options,omitempty"`
}

// AddBasketItem implements Client.
func (c *HTTPClient) AddBasketItem(ctx context.Context, storeID, sessionToken string, productID string, quantity int, options []*domain.Option) ([]domain.BasketLine, error) {
	var resp basketResponse
	status, err := c.do(ctx, "engine.basket_add", http.MethodPost,
		c.storePath(storeID, "basket/items"),
		addBasketItemRequest{SessionToken: sessionToken, ProductID: productID, Quantity: quantity, Options: options}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, c.unexpectedStatus("basket add", status)
	}
	return resp.Lines, nil
}

// UpdateBasketItem implements Client.
func (c *HTTPClient) UpdateBasketItem(ctx context.Context, storeID, sessionToken, lineID string, quantity int) ([]domain.BasketLine, error) {
	var resp basketResponse
	status, err := c.do(ctx, "engine.basket_update", http.MethodPut,
		c.storePath(storeID, "basket/items/"+url.PathEscape(lineID)),
		map[string]any{"sessionToken": sessionToken, "quantity": quantity}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("basket update", status)
	}
	return resp.Lines, nil
}

// RemoveBasketItem implements Client.
func (c *HTTPClient) RemoveBasketItem(ctx context.Context, storeID, sessionToken, lineID string) ([]domain.BasketLine, error) {
	path := c.storePath(storeID, "basket/items/"+url.PathEscape(lineID))
	if sessionToken != "" {
		path += "?session=" + url.QueryEscape(sessionToken)
	}
	var resp basketResponse
	status, err := c.do(ctx, "engine.basket_remove", http.MethodDelete, path, nil, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return nil, c.unexpectedStatus("basket remove", status)
	}
	return resp.Lines, nil
}

// RefreshBasketStock implements Client.
func (c *HTTPClient) RefreshBasketStock(ctx context.Context, storeID string, lines []domain.BasketLine) ([]domain.BasketLine, error) {
	var resp basketResponse
	status, err := c.do(ctx, "engine.basket_refresh", http.MethodPost,
		c.storePath(storeID, "basket/refresh-stock"), basketResponse{Lines: lines}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("basket refresh", status)
	}
	return resp.Lines, nil
}

type createOrderRequest struct {
	SessionToken string                    `json:"sessionToken,omitempty"`
	Lines        []domain.BasketLine       `json:"lines"`
	Options      domain.CreateOrderOptions `json:"options"`
	LanguageID   int                       `json:"languageId"`
}

// CreateOrder implements Client. A 204 response means the engine declined to
// build an order; that surfaces as (nil, nil) so callers can degrade.
func (c *HTTPClient) CreateOrder(ctx context.Context, storeID, sessionToken string, lines []domain.BasketLine, opts domain.CreateOrderOptions, languageID int) (*domain.EphemeralOrder, error) {
	var order domain.EphemeralOrder
	status, err := c.do(ctx, "engine.create_order", http.MethodPost,
		c.storePath(storeID, "orders/preview"),
		createOrderRequest{SessionToken: sessionToken, Lines: lines, Options: opts, LanguageID: languageID}, &order)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, c.unexpectedStatus("create order", status)
	}
	return &order, nil
}

type shippingQuotesResponse struct {
	Quotes []domain.ShippingQuote `json:"quotes"`
}

// ShippingQuotes implements Client.
func (c *HTTPClient) ShippingQuotes(ctx context.Context, storeID string, order *domain.EphemeralOrder) ([]domain.ShippingQuote, error) {
	var resp shippingQuotesResponse
	status, err := c.do(ctx, "engine.shipping_quotes", http.MethodPost,
		c.storePath(storeID, "orders/shipping-quotes"), order, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("shipping quotes", status)
	}
	return resp.Quotes, nil
}

// RecomputeTotals implements Client.
func (c *HTTPClient) RecomputeTotals(ctx context.Context, storeID string, order *domain.EphemeralOrder) error {
	if order == nil {
		return errors.New("engine: order is required")
	}
	var totals domain.OrderTotals
	status, err := c.do(ctx, "engine.recompute_totals", http.MethodPost,
		c.storePath(storeID, "orders/totals"), order, &totals)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return c.unexpectedStatus("totals", status)
	}
	order.Totals = totals
	return nil
}

type adminCustomerResponse struct {
	ID      int `json:"id"`
	GroupID int `json:"groupId"`
}

// CustomerForID implements Client.
func (c *HTTPClient) CustomerForID(ctx context.Context, customerID int) (*domain.AdminCustomer, error) {
	var resp adminCustomerResponse
	status, err := c.do(ctx, "engine.admin_customer", http.MethodGet,
		fmt.Sprintf("/admin/customers/%d", customerID), nil, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrCustomerNotFound
	}
	if status != http.StatusOK {
		return nil, c.unexpectedStatus("admin customer", status)
	}
	return &domain.AdminCustomer{ID: resp.ID, GroupID: resp.GroupID}, nil
}

func (c *HTTPClient) unexpectedStatus(op string, status int) error {
	return fmt.Errorf("engine: %s returned unexpected status %d", op, status)
}

func (c *HTTPClient) storePath(storeID, suffix string) string {
	return "/stores/" + url.PathEscape(strings.TrimSpace(storeID)) + "/" + suffix
}

// do performs one bounded, traced HTTP exchange. It returns the status code
// for the caller to interpret; transport-level failures become ErrUnavailable.
func (c *HTTPClient) do(ctx context.Context, spanName, method, path string, body any, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := httpTracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			span.SetStatus(codes.Error, "encode")
			return 0, fmt.Errorf("engine: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		span.SetStatus(codes.Error, "request")
		return 0, fmt.Errorf("engine: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "transport")
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
		return resp.StatusCode, fmt.Errorf("%w: engine returned %s", ErrUnavailable, resp.Status)
	}
	span.SetStatus(codes.Ok, resp.Status)

	if out != nil && resp.StatusCode != http.StatusNoContent && resp.ContentLength != 0 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("engine: decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}
