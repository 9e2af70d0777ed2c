package paymob

import (
	"net/url"
	"strings"

	pkgerrors "github.com/oelhadidy/agrovet-backend/pkg/errors"
)

// Callback is the parsed transaction-response redirect query.
type Callback struct {
	TransactionID   string
	ProviderOrderID string
	MerchantOrderID string
	Success         bool
	ResponseCode    string
	HMAC            string
	fields          map[string]string
}

// Approved reports whether the provider accepted the payment: the success
// flag must be true and the transaction response code, when present, must be
// an approval code.
func (c *Callback) Approved() bool {
	if !c.Success {
		return false
	}
	switch strings.ToUpper(c.ResponseCode) {
	case "", "0", "APPROVED":
		return true
	default:
		return false
	}
}

// Fields exposes the raw query values used for HMAC verification.
func (c *Callback) Fields() map[string]string {
	return c.fields
}

// ParseCallback extracts the transaction fields from the redirect query.
func ParseCallback(query url.Values) (*Callback, error) {
	orderID := strings.TrimSpace(query.Get("order"))
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing paymob order id")
	}

	fields := map[string]string{}
	for key := range query {
		fields[key] = query.Get(key)
	}

	return &Callback{
		TransactionID:   strings.TrimSpace(query.Get("id")),
		ProviderOrderID: orderID,
		MerchantOrderID: strings.TrimSpace(query.Get("merchant_order_id")),
		Success:         strings.EqualFold(query.Get("success"), "true"),
		ResponseCode:    strings.TrimSpace(query.Get("txn_response_code")),
		HMAC:            strings.TrimSpace(query.Get("hmac")),
		fields:          fields,
	}, nil
}
