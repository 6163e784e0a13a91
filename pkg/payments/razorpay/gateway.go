// Package razorpay talks to the Razorpay orders API and checks payment
// signatures returned to the checkout page.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Gateway creates payment orders on the hosted checkout provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (map[string]any, error)
}

// OrderRequest carries the amount in the smallest currency unit (paise).
type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// NewOrderRequest converts a rupee amount to paise and stamps a receipt id.
func NewOrderRequest(amount decimal.Decimal, currency string, now time.Time) OrderRequest {
	return OrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Currency: currency,
		Receipt:  fmt.Sprintf("receipt_%d", now.UnixMilli()),
	}
}

type Client struct {
	http     *resty.Client
	currency string
}

var _ Gateway = (*Client)(nil)

func NewClient(cfg config.RazorpayConfig) (*Client, error) {
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, errors.New("razorpay key id and secret are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, currency: cfg.Currency}, nil
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	if c.currency == "" {
		return "INR"
	}
	return c.currency
}

// CreateOrder returns the gateway order object verbatim.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (map[string]any, error) {
	if req.Currency == "" {
		req.Currency = c.Currency()
	}
	var out map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create order failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return out, nil
}

// Signature computes hex(HMAC_SHA256(secret, "orderID|paymentID")).
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature requires an exact match: no trimming or case folding.
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Signature(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
