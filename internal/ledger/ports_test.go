package ledger

import (
	"testing"

	"fluxo/internal/core"
)

func TestEntityNames(t *testing.T) {
	entries := []core.Entry{
		{Entity: "Beta"},
		{Entity: " Acme "},
		{Entity: ""},
		{Entity: "Beta"},
	}
	got := EntityNames(entries)
	if len(got) != 2 || got[0] != "Acme" || got[1] != "Beta" {
		t.Fatalf("unexpected names: %v", got)
	}
	if def := EntitiesOrDefault(nil); len(def) != len(DefaultEntities) {
		t.Fatalf("expected defaults, got %v", def)
	}
}

func TestSortNewestFirst(t *testing.T) {
	entries := []core.Entry{
		{ID: 1, Date: "2024-01-01"},
		{ID: 3, Date: "2024-02-01"},
		{ID: 2, Date: "2024-02-01"},
	}
	SortNewestFirst(entries)
	if entries[0].ID != 3 || entries[1].ID != 2 || entries[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", entries)
	}
}
