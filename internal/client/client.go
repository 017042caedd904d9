// Package client talks to the concierge API on behalf of a user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ashendes/welcome-home/internal/models"
)

// MsgNetwork is shown when the server could not be reached at all.
const MsgNetwork = "Network error talking to the server."

// Fallback messages for responses without a usable body.
const (
	msgGroceriesFailed = "Could not load groceries."
	msgOrderFailed     = "Failed to place order."
	msgOrdersFailed    = "Failed to load your orders."
	msgOrderLoadFailed = "Failed to load order."
	msgRegisterFailed  = "Registration failed."
	msgLoginFailed     = "Login failed."
	msgLogoutFailed    = "Logout failed."
	msgMeFailed        = "Not authenticated."
)

// ErrUnexpectedResponse marks a 2xx body that does not match the schema.
var ErrUnexpectedResponse = errors.New("unexpected response from server")

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return MsgNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message is the server's text, or a
// generic fallback when the body had none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is a cookie-carrying API client.
type Client struct {
	http *resty.Client
}

// New returns a client for baseURL. The session cookie lives in the
// client's own jar.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetCookieJar(jar).
			SetHeader("Accept", "application/json"),
	}, nil
}

func (c *Client) Groceries(ctx context.Context, category string) ([]models.CatalogItem, error) {
	req := c.http.R()
	if category != "" {
		req.SetQueryParam("category", category)
	}
	var items []models.CatalogItem
	if err := c.do(ctx, req, http.MethodGet, "/api/groceries", &items, msgGroceriesFailed); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("%w: groceries must be a list", ErrUnexpectedResponse)
	}
	return items, nil
}

func (c *Client) CreateOrder(ctx context.Context, order models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, c.http.R().SetBody(order), http.MethodPost, "/api/orders", &out, msgOrderFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyOrders returns the signed-in user's orders. The body must be a JSON
// array; any other shape is an error.
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var list []models.Order
	if err := c.do(ctx, c.http.R(), http.MethodGet, "/api/orders/my", &list, msgOrdersFailed); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("%w: orders must be a list", ErrUnexpectedResponse)
	}
	return list, nil
}

func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	var out models.Order
	path := "/api/orders/" + url.PathEscape(id)
	if err := c.do(ctx, c.http.R(), http.MethodGet, path, &out, msgOrderLoadFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.PublicUser, error) {
	var out models.PublicUser
	if err := c.do(ctx, c.http.R().SetBody(req), http.MethodPost, "/api/auth/register", &out, msgRegisterFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.PublicUser, error) {
	var out models.PublicUser
	if err := c.do(ctx, c.http.R().SetBody(req), http.MethodPost, "/api/auth/login", &out, msgLoginFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, c.http.R(), http.MethodPost, "/api/auth/logout", nil, msgLogoutFailed)
}

func (c *Client) Me(ctx context.Context) (*models.PublicUser, error) {
	var out models.PublicUser
	if err := c.do(ctx, c.http.R(), http.MethodGet, "/api/auth/me", &out, msgMeFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out interface{}, fallback string) error {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &NetworkError{Err: err}
	}
	if !resp.IsSuccess() {
		return &APIError{Status: resp.StatusCode(), Message: serverMessage(resp.Body(), fallback)}
	}
	if out == nil {
		return nil
	}
	return decodeStrict(resp.Body(), out)
}

func serverMessage(body []byte, fallback string) string {
	var e models.ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fallback
}

// decodeStrict rejects unknown fields so schema drift surfaces as an error.
func decodeStrict(body []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

// Deliver runs apply only while ctx is live. Results of cancelled commands
// are dropped.
func Deliver(ctx context.Context, apply func()) bool {
	if ctx.Err() != nil {
		return false
	}
	apply()
	return true
}
