package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindUnknown Kind = iota
	KindInflow
	KindOutflow
)

type (
	// Kind classifies an entry as money coming in or going out.
	Kind int

	// Entry is a ledger row as stored. Date, Kind and Amount keep the stored text so
	// that malformed historical rows still reach the analytics layer.
	Entry struct {
		ID          int64
		Date        string // YYYY-MM-DD
		Entity      string // company or cost center
		Description string
		Category    string
		Kind        string // "Entrada" / "Saída" as typed by the user
		Amount      string
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrEmptyEntity        = errors.New("empty entity")
	ErrUnknownKind        = errors.New("unknown kind")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// kindAliases maps normalized spellings to a canonical kind.
var kindAliases = map[string]Kind{
	"entrada":  KindInflow,
	"entradas": KindInflow,
	"inflow":   KindInflow,
	"in":       KindInflow,
	"income":   KindInflow,
	"receita":  KindInflow,
	"saída":    KindOutflow,
	"saida":    KindOutflow,
	"saídas":   KindOutflow,
	"saidas":   KindOutflow,
	"outflow":  KindOutflow,
	"out":      KindOutflow,
	"expense":  KindOutflow,
	"despesa":  KindOutflow,
}

// ParseKind trims and lowercases raw before the canonical lookup, so "Entrada ",
// "ENTRADA" and "entrada" all resolve to KindInflow.
func ParseKind(raw string) Kind {
	return kindAliases[strings.ToLower(strings.TrimSpace(raw))]
}

func (k Kind) String() string {
	switch k {
	case KindInflow:
		return "inflow"
	case KindOutflow:
		return "outflow"
	default:
		return "unknown"
	}
}

// Label returns the name used when writing entries back to storage.
func (k Kind) Label() string {
	switch k {
	case KindInflow:
		return "Entrada"
	case KindOutflow:
		return "Saída"
	default:
		return ""
	}
}

// NormalizedKind resolves the stored kind text.
func (e Entry) NormalizedKind() Kind {
	return ParseKind(e.Kind)
}

// Day returns the parsed entry date; ok is false for malformed dates.
func (e Entry) Day() (time.Time, bool) {
	return ParseDate(e.Date)
}

// Validate checks an entry on the write path. Reads never validate.
func (e Entry) Validate() error {
	if _, ok := ParseDate(e.Date); !ok {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Entity) == "" {
		return ErrEmptyEntity
	}
	if e.NormalizedKind() == KindUnknown {
		return ErrUnknownKind
	}
	amount, err := ParseAmount(e.Amount)
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Normalize returns a copy ready for storage: trimmed text, canonical kind label,
// ISO date and a plain decimal amount. Call Validate first.
func (e Entry) Normalize() Entry {
	out := e
	out.Entity = strings.TrimSpace(e.Entity)
	out.Description = strings.TrimSpace(e.Description)
	out.Category = strings.TrimSpace(e.Category)
	out.Notes = strings.TrimSpace(e.Notes)
	if k := e.NormalizedKind(); k != KindUnknown {
		out.Kind = k.Label()
	}
	if d, ok := ParseDate(e.Date); ok {
		out.Date = FormatDate(d)
	}
	if amount, err := ParseAmount(e.Amount); err == nil {
		out.Amount = amount.StringFixed(2)
	}
	return out
}
