// Package razorpay wraps the Razorpay SDK behind a small gateway surface so
// order placement can be tested without network access.
package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// ErrNotConfigured is returned when no key pair has been supplied.
var ErrNotConfigured = errors.New("razorpay credentials not configured")

// Order is the subset of the remote order object the checkout needs.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
	Status   string
}

// Verification reports the outcome of a payment signature check. Generated
// is the locally computed signature, echoed back in diagnostics.
type Verification struct {
	Valid     bool
	Generated string
}

// Gateway is the payment surface consumed by the order service.
type Gateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) Verification
	KeyID() string
}

type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type sdkVerifier func(attributes map[string]interface{}, signature, secret string) bool

type Client struct {
	orders orderCreator
	verify sdkVerifier
	keyID  string
	secret string
	logg   *logger.Logger
}

// New builds a gateway client. The SDK client is only created when both key
// id and secret are present; otherwise every remote call fails with
// ErrNotConfigured while signature checks still work against the secret.
func New(cfg config.RazorpayConfig, logg *logger.Logger) *Client {
	c := &Client{
		verify: utils.VerifyPaymentSignature,
		keyID:  cfg.KeyID,
		secret: cfg.KeySecret,
		logg:   logg,
	}
	if cfg.KeyID != "" && cfg.KeySecret != "" {
		c.orders = sdk.NewClient(cfg.KeyID, cfg.KeySecret).Order
	}
	return c
}

func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder reserves amountPaise on the gateway.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*Order, error) {
	if c.orders == nil {
		return nil, ErrNotConfigured
	}
	if amountPaise <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", amountPaise)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	body, err := c.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return parseOrder(body)
}

func parseOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response missing id")
	}
	order := &Order{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	order.Status, _ = body["status"].(string)
	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}
	return order, nil
}

// VerifySignature checks signature against HMAC-SHA256(orderID|paymentID).
// The SDK helper is tried first; a panic there falls back to the local
// computation so an SDK fault is never reported as a bad signature.
func (c *Client) VerifySignature(orderID, paymentID, signature string) Verification {
	generated := Sign(c.secret, orderID, paymentID)
	if c.secret == "" {
		return Verification{Valid: false, Generated: generated}
	}

	valid, err := c.sdkVerify(orderID, paymentID, signature)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(context.Background(), "error", err.Error()), "razorpay.sdk_verify_fallback")
		}
		valid = hmac.Equal([]byte(generated), []byte(strings.TrimSpace(signature)))
	}
	return Verification{Valid: valid, Generated: generated}
}

func (c *Client) sdkVerify(orderID, paymentID, signature string) (valid bool, err error) {
	if c.verify == nil {
		return false, errors.New("sdk verifier unavailable")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sdk verifier panicked: %v", r)
		}
	}()
	attrs := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return c.verify(attrs, signature, c.secret), nil
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
