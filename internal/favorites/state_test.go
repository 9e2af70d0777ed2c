package favorites

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oelhadidy/agrovet-backend/pkg/db/models"
)

func testProduct(title string) models.Product {
	return models.Product{
		ID:    uuid.New(),
		Title: title,
		Price: decimal.NewFromInt(120),
	}
}

func TestToggleIsAnInvolution(t *testing.T) {
	t.Parallel()

	state := NewState()
	product := testProduct("Sheep drench")

	entries := state.Toggle(product)
	if len(entries) != 1 || !state.Contains(product.ID) {
		t.Fatalf("expected product added, got %+v", entries)
	}

	entries = state.Toggle(product)
	if len(entries) != 0 || state.Contains(product.ID) {
		t.Fatalf("expected product removed, got %+v", entries)
	}
}

func TestToggleReAddMovesToEnd(t *testing.T) {
	t.Parallel()

	state := NewState()
	first := testProduct("Hoof trimmer")
	second := testProduct("Udder cream")

	state.Toggle(first)
	state.Toggle(second)
	state.Toggle(first) // remove
	entries := state.Toggle(first)

	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[1].ProductID != first.ID {
		t.Fatal("expected re-added product at the end")
	}
}

func TestClearEmptiesFavorites(t *testing.T) {
	t.Parallel()

	state := NewState()
	state.Toggle(testProduct("a"))
	state.Toggle(testProduct("b"))

	if entries := state.Clear(); len(entries) != 0 {
		t.Fatalf("expected empty list, got %d", len(entries))
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	t.Parallel()

	state := NewState()
	product := testProduct("Seed dressing")
	saved := state.Toggle(product)

	restored := NewState()
	entries := restored.Replace(saved)
	if len(entries) != 1 || entries[0].ProductID != product.ID || entries[0].Title != product.Title {
		t.Fatalf("round trip lost data: %+v", entries)
	}
}
