// Package paypal wraps the PayPal Orders v2 REST API: OAuth client-credentials
// token, order creation for the approval redirect, and capture after return.
package paypal

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
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/config"
	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
	errLoggerRequired      = errors.New("paypal logger is required")
)

// Client exposes the PayPal order primitives with centralized auth, logging,
// and error mapping.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	currency   string
	httpClient *http.Client
	logger     *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// OrderResult is the provider order created before redirecting the buyer.
type OrderResult struct {
	ProviderOrderID string
	ApproveURL      string
}

// CaptureResult reports the outcome of capturing an approved order.
type CaptureResult struct {
	CaptureID string
	Status    string
}

// Return holds the fields PayPal appends to the merchant return URL.
type Return struct {
	ProviderOrderID string
	PayerID         string
}

// NewClient validates the credentials and builds the wrapper.
func NewClient(cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.ClientSecret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		currency:   currency,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logg,
	}, nil
}

// CreateOrder creates a provider order for the given amount and returns the
// approval URL the buyer must be redirected to. reference is echoed back as
// the purchase unit reference ID.
func (c *Client) CreateOrder(ctx context.Context, reference string, amount decimal.Decimal) (*OrderResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": reference,
			"amount": map[string]string{
				"currency_code": c.currency,
				"value":         amount.StringFixed(2),
			},
		}},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", token, body, &resp); err != nil {
		return nil, err
	}

	result := &OrderResult{ProviderOrderID: resp.ID}
	for _, link := range resp.Links {
		if link.Rel == "approve" {
			result.ApproveURL = link.Href
			break
		}
	}
	if result.ProviderOrderID == "" || result.ApproveURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodePayment, "paypal order response missing id or approval link")
	}

	lctx := c.logger.WithFields(ctx, map[string]any{"provider_order_id": result.ProviderOrderID, "status": resp.Status})
	c.logger.Info(lctx, "paypal order created")
	return result, nil
}

// CaptureOrder captures an approved order. A COMPLETED status means funds
// moved; anything else is surfaced as a payment error.
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	if strings.TrimSpace(providerOrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider order id is required")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", url.PathEscape(providerOrderID))
	if err := c.doJSON(ctx, http.MethodPost, path, token, map[string]any{}, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "COMPLETED" {
		return nil, pkgerrors.New(pkgerrors.CodePayment, fmt.Sprintf("paypal capture not completed: %s", resp.Status))
	}

	result := &CaptureResult{Status: resp.Status}
	for _, unit := range resp.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			result.CaptureID = capture.ID
			break
		}
	}

	lctx := c.logger.WithFields(ctx, map[string]any{"provider_order_id": providerOrderID, "capture_id": result.CaptureID})
	c.logger.Info(lctx, "paypal order captured")
	return result, nil
}

// ParseReturn extracts the provider order ID and payer from the return query.
// PayPal names the order ID "token" on redirect.
func ParseReturn(query url.Values) (*Return, error) {
	token := strings.TrimSpace(query.Get("token"))
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing paypal order token")
	}
	return &Return{
		ProviderOrderID: token,
		PayerID:         strings.TrimSpace(query.Get("PayerID")),
	}, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paypal token request")
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paypal token request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodePayment, fmt.Sprintf("paypal token request failed: %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paypal token response")
	}
	if payload.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodePayment, "paypal token response missing access token")
	}

	c.accessToken = payload.AccessToken
	// renew a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal paypal request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paypal request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paypal request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paypal response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lctx := c.logger.WithFields(ctx, map[string]any{"status": resp.StatusCode, "path": path})
		c.logger.Warn(lctx, "paypal request rejected")
		return pkgerrors.New(pkgerrors.CodePayment, fmt.Sprintf("paypal %s returned %d", path, resp.StatusCode))
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paypal response")
	}
	return nil
}
