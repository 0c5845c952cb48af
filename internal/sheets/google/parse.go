package google

import (
	"fmt"
	"strings"

	"fluxo/internal/core"
)

// parseEntries converts a values matrix into entries. The header and any row
// whose first cell is not a numeric id are skipped.
func parseEntries(values [][]any) []core.Entry {
	out := make([]core.Entry, 0, len(values))
	for _, row := range values {
		e, err := core.EntryFromRecord(toStrings(row))
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
