package paymob

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/url"
	"testing"

	"github.com/rs/zerolog"

	"github.com/oelhadidy/agrovet-backend/pkg/config"
	"github.com/oelhadidy/agrovet-backend/pkg/logger"
)

func testClient(t *testing.T, secret string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	c, err := NewClient(config.PaymobConfig{
		BaseURL:           "https://accept.paymob.com/api",
		APIKey:            "test-key",
		HMACSecret:        secret,
		CardIntegrationID: 1,
	}, logg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestParseCallbackApproved(t *testing.T) {
	t.Parallel()

	query := url.Values{}
	query.Set("order", "9921")
	query.Set("id", "551")
	query.Set("success", "true")
	query.Set("txn_response_code", "APPROVED")

	cb, err := ParseCallback(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cb.Approved() {
		t.Fatal("expected approved callback")
	}
	if cb.ProviderOrderID != "9921" || cb.TransactionID != "551" {
		t.Fatalf("unexpected parse: %+v", cb)
	}
}

func TestParseCallbackDeclined(t *testing.T) {
	t.Parallel()

	query := url.Values{}
	query.Set("order", "9921")
	query.Set("success", "false")

	cb, err := ParseCallback(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.Approved() {
		t.Fatal("expected declined callback")
	}
}

func TestParseCallbackSuccessWithDeclineCode(t *testing.T) {
	t.Parallel()

	query := url.Values{}
	query.Set("order", "9921")
	query.Set("success", "true")
	query.Set("txn_response_code", "DECLINED")

	cb, err := ParseCallback(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.Approved() {
		t.Fatal("expected decline when response code disagrees")
	}
}

func TestParseCallbackMissingOrder(t *testing.T) {
	t.Parallel()

	if _, err := ParseCallback(url.Values{}); err == nil {
		t.Fatal("expected error for missing order")
	}
}

func TestVerifyHMAC(t *testing.T) {
	t.Parallel()

	secret := "hmac-secret"
	client := testClient(t, secret)

	fields := map[string]string{
		"amount_cents": "15000",
		"currency":     "EGP",
		"id":           "551",
		"order":        "9921",
		"success":      "true",
	}

	ordered := []string{
		"amount_cents", "created_at", "currency", "error_occured",
		"has_parent_transaction", "id", "integration_id", "is_3d_secure",
		"is_auth", "is_capture", "is_refunded", "is_standalone_payment",
		"is_voided", "order", "owner", "pending",
		"source_data.pan", "source_data.sub_type", "source_data.type", "success",
	}
	var payload string
	for _, key := range ordered {
		payload += fields[key]
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))

	if !client.VerifyHMAC(fields, signature) {
		t.Fatal("expected signature to verify")
	}
	if client.VerifyHMAC(fields, "deadbeef") {
		t.Fatal("expected bad signature to fail")
	}
}
