// Package seed fills an empty ledger with deterministic demo data.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
	"fluxo/internal/ledger"
)

// Seed is fixed so every demo ledger holds the same numbers.
const Seed = 42

// Generate builds demo entries for every month from January 1 of last year up
// to now: per entity, 2-4 inflows of 800-3000 and 3-6 outflows of 300-1500,
// all dated on the first of the month.
func Generate(now time.Time, r *rand.Rand) []core.Entry {
	inflowCats := ledger.InflowCategories[:4]
	outflowCats := ledger.OutflowCategories[:6]
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())

	var out []core.Entry
	for day := core.NewDate(now.Year()-1, 1, 1); !day.After(today); day = day.AddDate(0, 1, 0) {
		date := core.FormatDate(day)
		for _, entity := range ledger.DefaultEntities {
			for range 2 + r.Intn(3) {
				cat := inflowCats[r.Intn(len(inflowCats))]
				out = append(out, entry(date, entity, cat, core.KindInflow, 800+r.Float64()*2200, "Receita de "))
			}
			for range 3 + r.Intn(4) {
				cat := outflowCats[r.Intn(len(outflowCats))]
				out = append(out, entry(date, entity, cat, core.KindOutflow, 300+r.Float64()*1200, "Pagamento de "))
			}
		}
	}
	return out
}

func entry(date, entity, category string, kind core.Kind, amount float64, prefix string) core.Entry {
	return core.Entry{
		Date:        date,
		Entity:      entity,
		Description: prefix + strings.ToLower(category),
		Category:    category,
		Kind:        kind.Label(),
		Amount:      decimal.NewFromFloat(amount).StringFixed(2),
		Notes:       "Lançamento automático - " + category,
	}
}

// Populate writes the demo entries when the store is empty and returns how many
// were written.
func Populate(ctx context.Context, store ledger.Store, now time.Time) (int, error) {
	existing, err := store.ListEntries(ctx, core.Filter{})
	if err != nil {
		return 0, fmt.Errorf("check existing entries: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	entries := Generate(now, rand.New(rand.NewSource(Seed)))
	for i, e := range entries {
		if _, err := store.CreateEntry(ctx, e); err != nil {
			return i, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}
