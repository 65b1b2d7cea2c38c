package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/schoolpay/backend/pkg/config"
	pkgerrors "github.com/schoolpay/backend/pkg/errors"
	"github.com/schoolpay/backend/pkg/logger"
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
)

// Client wraps the Razorpay SDK with centralized auth, logging, and error mapping.
type Client struct {
	sdk       *razorpay.Client
	keyID     string
	keySecret string
	currency  string
	logger    *logger.Logger
}

// OrderParams describes a gateway order to create before checkout.
type OrderParams struct {
	AmountPaise int64
	Receipt     string
	Notes       map[string]string
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	sdk := razorpay.NewClient(keyID, keySecret)
	if cfg.RequestTimeout > 0 {
		sdk.SetTimeout(int16(cfg.RequestTimeout.Seconds()))
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}

	c := &Client{
		sdk:       sdk,
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
		logger:    logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// KeyID returns the public key id handed to the checkout widget.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// KeySecret returns the shared secret used for callback signature checks.
func (c *Client) KeySecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// CreateOrder registers an order with the gateway and returns its id. Amounts
// are minor units (paise).
func (c *Client) CreateOrder(ctx context.Context, params OrderParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway call aborted")
	}
	if params.AmountPaise <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	data := map[string]interface{}{
		"amount":   params.AmountPaise,
		"currency": c.currency,
		"receipt":  params.Receipt,
	}
	if len(params.Notes) > 0 {
		notes := make(map[string]interface{}, len(params.Notes))
		for k, v := range params.Notes {
			notes[k] = v
		}
		data["notes"] = notes
	}

	order, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gateway order")
	}

	orderID, _ := order["id"].(string)
	if orderID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway order response missing id")
	}
	return orderID, nil
}

// FetchOrderAmount returns the authoritative amount (paise) the gateway holds
// for the order. Client-supplied amounts are never trusted for recording.
func (c *Client) FetchOrderAmount(ctx context.Context, orderID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway call aborted")
	}
	if strings.TrimSpace(orderID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := c.sdk.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch gateway order")
	}

	amount, err := minorUnitAmount(order["amount"])
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse gateway order amount")
	}
	return amount, nil
}

func minorUnitAmount(value any) (int64, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("amount %q is not an integer", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unexpected amount type %T", value)
	}
}
