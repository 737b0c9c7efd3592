package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/imagify/imagify/internal/config"
)

// Order statuses as reported by the Razorpay orders API.
const (
	StatusCreated   = "created"
	StatusAttempted = "attempted"
	StatusPaid      = "paid"
)

// Client talks to the Razorpay orders API with basic-auth credentials.
type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// Order is the typed contract expected from the provider. Responses missing
// the required fields are rejected instead of propagated.
type Order struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func NewClient(cfg config.Config) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		baseURL:   strings.TrimRight(cfg.RazorpayBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateOrder opens a provider order for the given amount, tagged with the
// receipt so a later status fetch can be correlated back to a transaction.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int, currency, receipt string) (*Order, error) {
	payload := map[string]any{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	order, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("invalid order response (missing id)")
	}
	return order, nil
}

// FetchOrder returns the current provider-side state of an order.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	order, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if order.ID == "" || order.Status == "" {
		return nil, fmt.Errorf("invalid order response (missing id or status)")
	}
	return order, nil
}

func (c *Client) do(req *http.Request) (*Order, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read razorpay response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay error: status=%d body=%s", resp.StatusCode, truncateBody(raw))
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode razorpay response: %w (body=%s)", err, truncateBody(raw))
	}
	return &order, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
