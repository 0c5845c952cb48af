package memory

import (
	"context"
	"testing"

	"fluxo/internal/core"
)

func TestMirrorUpsertAndDelete(t *testing.T) {
	m := New()
	ctx := context.Background()

	if err := m.UpsertEntry(ctx, core.Entry{ID: 1, Amount: "10.00"}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpsertEntry(ctx, core.Entry{ID: 2, Amount: "5.00"}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpsertEntry(ctx, core.Entry{ID: 1, Amount: "12.00"}); err != nil {
		t.Fatal(err)
	}

	rows, _ := m.ListEntries(ctx)
	if len(rows) != 2 || rows[0].Amount != "12.00" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := m.DeleteEntry(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteEntry(ctx, 42); err != nil {
		t.Fatalf("deleting a missing row should succeed: %v", err)
	}
	rows, _ = m.ListEntries(ctx)
	if len(rows) != 1 || rows[0].ID != 2 {
		t.Fatalf("unexpected rows after delete: %+v", rows)
	}
}

func TestMirrorReportIsCopied(t *testing.T) {
	m := New()
	in := [][]string{{"a", "b"}}
	_ = m.WriteReport(context.Background(), in)
	in[0][0] = "changed"

	if got := m.Report(); got[0][0] != "a" {
		t.Fatalf("report should not alias caller rows, got %v", got)
	}
}
