// Package ledger defines the ports through which ledger entries are stored and read.
package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"

	"fluxo/internal/core"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("entry not found")

// DefaultEntities is offered when the ledger has no entity yet.
var DefaultEntities = []string{
	"Gestão",
	"Gestão Fundo de Propaganda",
	"Effexus",
	"Effexus - utilizado para gestão",
	"Indústria",
	"Adriana",
}

// Category suggestions per kind.
var (
	InflowCategories = []string{
		"Vendas", "Serviços", "Juros Recebidos", "Aluguéis Recebidos",
		"Dividendos", "Outras Receitas", "Transferência Entre Contas",
	}
	OutflowCategories = []string{
		"Fornecedores", "Salários", "Impostos", "Aluguel", "Utilities",
		"Marketing", "Manutenção", "Combustível", "Alimentação",
		"Outras Despesas", "Transferência Entre Contas",
	}
)

// Ports for ledger adapters.
type (
	// Reader answers filtered queries. Entries come back ordered by date then id,
	// newest first, and are returned as stored: malformed dates or amounts are
	// not filtered out.
	Reader interface {
		ListEntries(ctx context.Context, f core.Filter) ([]core.Entry, error)
		GetEntry(ctx context.Context, id int64) (core.Entry, error)
		// Entities returns the distinct non-blank entity names, sorted.
		Entities(ctx context.Context) ([]string, error)
	}

	Writer interface {
		CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
		UpdateEntry(ctx context.Context, id int64, e core.Entry) (core.Entry, error)
		DeleteEntry(ctx context.Context, id int64) error
	}

	Store interface {
		Reader
		Writer
	}

	// Pinger is implemented by stores backed by an external resource.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// EntityNames returns the distinct non-blank entity names of entries, sorted.
func EntityNames(entries []core.Entry) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range entries {
		name := strings.TrimSpace(e.Entity)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EntitiesOrDefault falls back to DefaultEntities when names is empty.
func EntitiesOrDefault(names []string) []string {
	if len(names) == 0 {
		return append([]string(nil), DefaultEntities...)
	}
	return names
}

// SortNewestFirst orders entries by stored date text then id, both descending.
func SortNewestFirst(entries []core.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID > entries[j].ID
	})
}
