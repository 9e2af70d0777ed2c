// Package paymob wraps the Paymob Accept API: the auth -> order -> payment key
// handshake that precedes the hosted card iframe or wallet redirect, plus the
// transaction callback parsing and HMAC check.
package paymob

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/config"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

// Method selects which Paymob integration handles the payment.
type Method string

const (
	MethodCard   Method = "card"
	MethodWallet Method = "wallet"
)

var (
	errAPIKeyRequired = errors.New("paymob api key is required")
	errLoggerRequired = errors.New("paymob logger is required")
)

// Client drives the Accept API three-step session setup.
type Client struct {
	baseURL             string
	apiKey              string
	hmacSecret          string
	cardIntegrationID   int
	walletIntegrationID int
	iframeID            string
	currency            string
	httpClient          *http.Client
	logger              *logger.Logger
}

// Session is the provider-side payment session handed back to the client.
type Session struct {
	ProviderOrderID string
	PaymentKey      string
	IframeURL       string
	WalletRedirect  string
}

// BillingDetails feed the payment key request. Paymob rejects empty fields,
// so unknown values are filled with "NA".
type BillingDetails struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// NewClient validates the credentials and builds the wrapper.
func NewClient(cfg config.PaymobConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "EGP"
	}

	return &Client{
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:              apiKey,
		hmacSecret:          strings.TrimSpace(cfg.HMACSecret),
		cardIntegrationID:   cfg.CardIntegrationID,
		walletIntegrationID: cfg.WalletIntegrationID,
		iframeID:            strings.TrimSpace(cfg.IframeID),
		currency:            currency,
		httpClient:          &http.Client{Timeout: 30 * time.Second},
		logger:              logg,
	}, nil
}

// CreateSession runs auth -> order registration -> payment key and returns the
// redirect target for the chosen method. reference becomes the merchant order
// ID so the callback can be tied back to the checkout attempt.
func (c *Client) CreateSession(ctx context.Context, method Method, reference string, amount decimal.Decimal, billing BillingDetails) (*Session, error) {
	integrationID, err := c.integrationFor(method)
	if err != nil {
		return nil, err
	}

	authToken, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()

	orderID, err := c.registerOrder(ctx, authToken, reference, amountCents)
	if err != nil {
		return nil, err
	}

	paymentKey, err := c.paymentKey(ctx, authToken, orderID, amountCents, integrationID, billing)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ProviderOrderID: fmt.Sprintf("%d", orderID),
		PaymentKey:      paymentKey,
	}
	switch method {
	case MethodCard:
		session.IframeURL = fmt.Sprintf("%s/acceptance/iframes/%s?payment_token=%s", c.baseURL, c.iframeID, paymentKey)
	case MethodWallet:
		session.WalletRedirect = paymentKey
	}

	lctx := c.logger.WithFields(ctx, map[string]any{"provider_order_id": session.ProviderOrderID, "method": string(method)})
	c.logger.Info(lctx, "paymob session created")
	return session, nil
}

func (c *Client) integrationFor(method Method) (int, error) {
	switch method {
	case MethodCard:
		if c.cardIntegrationID == 0 {
			return 0, pkgerrors.New(pkgerrors.CodePayment, "paymob card integration not configured")
		}
		return c.cardIntegrationID, nil
	case MethodWallet:
		if c.walletIntegrationID == 0 {
			return 0, pkgerrors.New(pkgerrors.CodePayment, "paymob wallet integration not configured")
		}
		return c.walletIntegrationID, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown paymob method %q", method))
	}
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, "/auth/tokens", map[string]any{"api_key": c.apiKey}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodePayment, "paymob auth response missing token")
	}
	return resp.Token, nil
}

func (c *Client) registerOrder(ctx context.Context, authToken, reference string, amountCents int64) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	err := c.doJSON(ctx, "/ecommerce/orders", map[string]any{
		"auth_token":        authToken,
		"delivery_needed":   false,
		"amount_cents":      amountCents,
		"currency":          c.currency,
		"merchant_order_id": reference,
		"items":             []any{},
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.ID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodePayment, "paymob order response missing id")
	}
	return resp.ID, nil
}

func (c *Client) paymentKey(ctx context.Context, authToken string, orderID, amountCents int64, integrationID int, billing BillingDetails) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, "/acceptance/payment_keys", map[string]any{
		"auth_token":     authToken,
		"amount_cents":   amountCents,
		"expiration":     3600,
		"order_id":       orderID,
		"currency":       c.currency,
		"integration_id": integrationID,
		"billing_data": map[string]string{
			"first_name":      orNA(billing.FirstName),
			"last_name":       orNA(billing.LastName),
			"email":           orNA(billing.Email),
			"phone_number":    orNA(billing.Phone),
			"street":          "NA",
			"building":        "NA",
			"floor":           "NA",
			"apartment":       "NA",
			"city":            "NA",
			"country":         "NA",
			"state":           "NA",
			"postal_code":     "NA",
			"shipping_method": "NA",
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", pkgerrors.New(pkgerrors.CodePayment, "paymob payment key response missing token")
	}
	return resp.Token, nil
}

func (c *Client) doJSON(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal paymob request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paymob request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paymob request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paymob response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lctx := c.logger.WithFields(ctx, map[string]any{"status": resp.StatusCode, "path": path})
		c.logger.Warn(lctx, "paymob request rejected")
		return pkgerrors.New(pkgerrors.CodePayment, fmt.Sprintf("paymob %s returned %d", path, resp.StatusCode))
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paymob response")
	}
	return nil
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "NA"
	}
	return value
}

// VerifyHMAC checks the transaction callback signature. Paymob signs the
// lexicographically ordered field values with HMAC-SHA512.
func (c *Client) VerifyHMAC(fields map[string]string, signature string) bool {
	if c.hmacSecret == "" || signature == "" {
		return false
	}

	ordered := []string{
		"amount_cents", "created_at", "currency", "error_occured",
		"has_parent_transaction", "id", "integration_id", "is_3d_secure",
		"is_auth", "is_capture", "is_refunded", "is_standalone_payment",
		"is_voided", "order", "owner", "pending",
		"source_data.pan", "source_data.sub_type", "source_data.type", "success",
	}

	var sb strings.Builder
	for _, key := range ordered {
		sb.WriteString(fields[key])
	}

	mac := hmac.New(sha512.New, []byte(c.hmacSecret))
	mac.Write([]byte(sb.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
