package validators

import "testing"

func TestSanitizeQueryTrimsAndCaps(t *testing.T) {
	t.Parallel()

	if got := SanitizeQuery("  poultry feed  ", 120); got != "poultry feed" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeQuery("abcdefgh", 4); got != "abcd" {
		t.Fatalf("expected capped value, got %q", got)
	}
	if got := SanitizeQuery("   ", 10); got != "" {
		t.Fatalf("expected empty result for whitespace, got %q", got)
	}
}
