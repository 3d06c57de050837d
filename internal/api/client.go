// Package api is the typed client for the Victoria Store REST API.
// Every endpoint returns either its payload, an *APIError carrying the
// server's own message (business rejection), or a plain error for
// transport failures, including a non-2xx response whose body cannot
// be parsed, which the callers treat as a server defect.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shefospecial/victoriasystem/internal/domain"
)

func init() {
	// The API speaks JSON numbers for money fields.
	decimal.MarshalJSONWithoutQuotes = true
}

// APIError is a business rejection: the server answered with a
// parseable body and success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.StatusCode)
	}
	return e.Message
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer token sent on subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope carries the fields shared by every response. The server is
// inconsistent about the failure field name (error vs message), so both
// are read.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) failureMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// doJSON issues the request and decodes the body into out, which must
// embed the envelope fields. A body that does not parse as JSON is a
// transport failure, never an *APIError.
func (c *Client) doJSON(ctx context.Context, method string, path string, body any, out any, env *envelope) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	// Correlates client submissions in the server logs.
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if err := json.Unmarshal(raw, env); err != nil {
		return fmt.Errorf("%s %s: status %d with unparseable body: %w", method, path, resp.StatusCode, err)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.failureMessage()}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode payload: %w", method, path, err)
		}
	}
	return nil
}

// FetchProducts returns one page of the catalog plus the server's
// reported total. perPage = 0 requests the unpaginated collection.
func (c *Client) FetchProducts(ctx context.Context, perPage int) ([]domain.Product, int, error) {
	var out struct {
		Products []domain.Product `json:"products"`
		Total    int              `json:"total"`
	}
	var env envelope
	path := "/products?per_page=" + strconv.Itoa(perPage)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, &env); err != nil {
		return nil, 0, err
	}
	return out.Products, out.Total, nil
}

func (c *Client) FetchCatalogFingerprint(ctx context.Context) (domain.CatalogFingerprint, error) {
	var out domain.CatalogFingerprint
	var env envelope
	if err := c.doJSON(ctx, http.MethodGet, "/products/last-updated", nil, &out, &env); err != nil {
		return domain.CatalogFingerprint{}, err
	}
	return out, nil
}

func (c *Client) SearchCustomers(ctx context.Context, query string) ([]domain.Customer, error) {
	var out struct {
		Customers []domain.Customer `json:"customers"`
	}
	var env envelope
	path := "/customers/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, &env); err != nil {
		return nil, err
	}
	return out.Customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	var out struct {
		Customer domain.Customer `json:"customer"`
	}
	var env envelope
	if err := c.doJSON(ctx, http.MethodPost, "/customers", req, &out, &env); err != nil {
		return domain.Customer{}, err
	}
	return out.Customer, nil
}

func (c *Client) CreateInvoice(ctx context.Context, req domain.InvoiceRequest) (domain.InvoiceCreated, error) {
	var out struct {
		Invoice domain.InvoiceCreated `json:"invoice"`
	}
	var env envelope
	if err := c.doJSON(ctx, http.MethodPost, "/invoices", req, &out, &env); err != nil {
		return domain.InvoiceCreated{}, err
	}
	return out.Invoice, nil
}

func (c *Client) FetchInvoice(ctx context.Context, id int64) (domain.Invoice, error) {
	var out struct {
		Invoice domain.Invoice `json:"invoice"`
	}
	var env envelope
	path := "/invoices/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, &env); err != nil {
		return domain.Invoice{}, err
	}
	return out.Invoice, nil
}

// Login exchanges credentials for an access token. The token is NOT
// installed on the client automatically; that is the session's job.
func (c *Client) Login(ctx context.Context, username string, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	var env envelope
	req := domain.LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &out, &env); err != nil {
		return "", err
	}
	return out.Token, nil
}
