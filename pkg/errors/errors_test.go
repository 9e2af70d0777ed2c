package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load products")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed error, got %v", typed)
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal metadata fallback, got %d", meta.HTTPStatus)
	}
}

func TestOrderMissingMetadata(t *testing.T) {
	meta := MetadataFor(CodeOrderMissing)
	if meta.PublicMessage == "" || meta.Retryable {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"qty": "exceeds stock"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["qty"] != "exceeds stock" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
