package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	in := Cursor{CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	t.Parallel()

	out, err := ParseCursor("  ")
	if err != nil || out != nil {
		t.Fatalf("expected nil cursor, got %+v err=%v", out, err)
	}
}

func TestParseCursorMalformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max, got %d", got)
	}
	if got := NormalizeLimit(7); got != 7 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestTrimPage(t *testing.T) {
	t.Parallel()

	rows := []int{1, 2, 3, 4}
	page, hasNext := TrimPage(rows, 3)
	if !hasNext || len(page) != 3 {
		t.Fatalf("expected trimmed page with next, got %v hasNext=%v", page, hasNext)
	}

	page, hasNext = TrimPage(rows[:2], 3)
	if hasNext || len(page) != 2 {
		t.Fatalf("expected untrimmed page, got %v hasNext=%v", page, hasNext)
	}
}
