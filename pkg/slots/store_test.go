package slots

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	if err := PutJSON(ctx, store, "u1", SlotPendingDraft, map[string]string{"ref": "abc"}, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]string
	if err := GetJSON(ctx, store, "u1", SlotPendingDraft, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["ref"] != "abc" {
		t.Fatalf("unexpected payload %v", decoded)
	}
}

func TestMemoryStoreMissingSlot(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), "u1", SlotCreatedMarker); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreClaimIsExclusive(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.Claim(ctx, "u1", SlotInflightGuard, []byte("first"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first claim to win: ok=%v err=%v", ok, err)
	}
	ok, err = store.Claim(ctx, "u1", SlotInflightGuard, []byte("second"), time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second claim to lose: ok=%v err=%v", ok, err)
	}

	raw, err := store.Get(ctx, "u1", SlotInflightGuard)
	if err != nil || string(raw) != "first" {
		t.Fatalf("expected first claimant value, got %q err=%v", raw, err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	base := time.Now()
	store.now = func() time.Time { return base }

	ctx := context.Background()
	if err := store.Put(ctx, "u1", SlotLastSession, []byte("x"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := store.Get(ctx, "u1", SlotLastSession); err != ErrNotFound {
		t.Fatalf("expected expiry, got %v", err)
	}

	ok, err := store.Claim(ctx, "u1", SlotLastSession, []byte("y"), time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected claim over expired entry to win: ok=%v err=%v", ok, err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Delete(ctx, "u1", SlotInflightGuard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "u1", SlotInflightGuard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
