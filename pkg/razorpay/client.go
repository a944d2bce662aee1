package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/saiembroidery/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://api.razorpay.com"
	responseBodyReadLimit int64 = 1024
)

var (
	errKeyRequired = errors.New("razorpay key id and secret are required")
)

// Client wraps the Razorpay Orders API used during checkout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Razorpay client given API credentials.
func NewClient(keyID, keySecret string, opts ...Option) (*Client, error) {
	trimmedID := strings.TrimSpace(keyID)
	trimmedSecret := strings.TrimSpace(keySecret)
	if trimmedID == "" || trimmedSecret == "" {
		return nil, errKeyRequired
	}

	client := &Client{
		keyID:      trimmedID,
		keySecret:  trimmedSecret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// OrderRequest describes the payload sent to the orders API. Amount is in
// the currency's smallest unit (paise for INR).
type OrderRequest struct {
	AmountPaise int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
}

// Order holds the normalized data returned by the orders API.
type Order struct {
	ID          string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
}

// CreateOrder registers a payable order with the gateway and returns its ID.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay client not configured")
	}
	if req.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order currency is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal order request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("v1/orders"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "order request failed")
	}

	var apiResp struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order response")
	}

	return &Order{
		ID:          apiResp.ID,
		AmountPaise: apiResp.Amount,
		Currency:    apiResp.Currency,
		Receipt:     apiResp.Receipt,
		Status:      apiResp.Status,
	}, nil
}

// KeyID exposes the public key for embedding in gateway checkout metadata.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// VerifySignature checks the HMAC the gateway attaches to successful
// payments. The signed message is "<order_id>|<payment_id>".
func (c *Client) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	if c == nil || gatewayOrderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
