package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fluxo/internal/core"
)

const testSpreadsheet = "sheet-1"

// fakeSheets implements the handful of Sheets REST calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	tabs     map[string][][]string
	sheetIDs map[string]int64
	calls    []string
}

var startRow = regexp.MustCompile(`![A-Z]+(\d+)`)

func newFakeSheets() *fakeSheets {
	return &fakeSheets{
		tabs:     map[string][][]string{},
		sheetIDs: map[string]int64{"Lancamentos": 0, "Resumo": 1},
	}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/"+testSpreadsheet)
	f.calls = append(f.calls, r.Method+" "+path)

	switch {
	case path == "" && r.Method == http.MethodGet:
		var sheets []*gsheet.Sheet
		for title, id := range f.sheetIDs {
			sheets = append(sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title, SheetId: id}})
		}
		writeJSON(w, gsheet.Spreadsheet{Sheets: sheets})

	case path == ":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, q := range req.Requests {
			d := q.DeleteDimension.Range
			tab := f.titleOf(d.SheetId)
			rows := f.tabs[tab]
			f.tabs[tab] = append(rows[:d.StartIndex:d.StartIndex], rows[d.EndIndex:]...)
		}
		writeJSON(w, gsheet.BatchUpdateSpreadsheetResponse{})

	case strings.HasPrefix(path, "/values/"):
		rng := strings.TrimPrefix(path, "/values/")
		switch {
		case strings.HasSuffix(rng, ":append"):
			tab := tabOf(rng)
			f.tabs[tab] = append(f.tabs[tab], decodeRows(w, r)...)
			writeJSON(w, gsheet.AppendValuesResponse{})
		case strings.HasSuffix(rng, ":clear"):
			delete(f.tabs, tabOf(rng))
			writeJSON(w, gsheet.ClearValuesResponse{})
		case r.Method == http.MethodPut:
			tab := tabOf(rng)
			m := startRow.FindStringSubmatch(rng)
			row, _ := strconv.Atoi(m[1])
			for i, values := range decodeRows(w, r) {
				idx := row - 1 + i
				for len(f.tabs[tab]) <= idx {
					f.tabs[tab] = append(f.tabs[tab], nil)
				}
				f.tabs[tab][idx] = values
			}
			writeJSON(w, gsheet.UpdateValuesResponse{})
		case r.Method == http.MethodGet:
			rows := f.tabs[tabOf(rng)]
			onlyFirst := strings.HasSuffix(rng, "!A:A")
			vr := gsheet.ValueRange{Range: rng}
			for _, row := range rows {
				cells := row
				if onlyFirst && len(cells) > 1 {
					cells = cells[:1]
				}
				vr.Values = append(vr.Values, toCells(cells))
			}
			writeJSON(w, vr)
		}

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheets) titleOf(id int64) string {
	for title, sid := range f.sheetIDs {
		if sid == id {
			return title
		}
	}
	return ""
}

func tabOf(rng string) string {
	return rng[:strings.Index(rng, "!")]
}

func decodeRows(w http.ResponseWriter, r *http.Request) [][]string {
	var vr gsheet.ValueRange
	if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = toStrings(row)
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := newFakeSheets()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Settings{SpreadsheetID: testSpreadsheet},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return c, fake
}

func entry(id int64, amount string) core.Entry {
	return core.Entry{ID: id, Date: "2024-01-05", Entity: "Acme", Category: "Vendas", Kind: "Entrada", Amount: amount}
}

func TestUpsertWritesHeaderThenUpdatesInPlace(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.UpsertEntry(ctx, entry(1, "10.00")))
	require.NoError(t, c.UpsertEntry(ctx, entry(2, "20.00")))
	require.NoError(t, c.UpsertEntry(ctx, entry(1, "15.00")))

	rows := fake.tabs["Lancamentos"]
	require.Len(t, rows, 3)
	require.Equal(t, core.EntryColumns, rows[0])
	require.Equal(t, "15.00", rows[1][6])

	entries, err := c.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(1), entries[0].ID)
	require.Equal(t, "Entrada", entries[0].Kind)
}

func TestDeleteEntryRemovesRow(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, c.UpsertEntry(ctx, entry(id, fmt.Sprintf("%d.00", id))))
	}
	require.NoError(t, c.DeleteEntry(ctx, 2))
	require.NoError(t, c.DeleteEntry(ctx, 99))

	rows := fake.tabs["Lancamentos"]
	require.Len(t, rows, 3)
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "3", rows[2][0])
}

func TestWriteReportReplacesSummary(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.WriteReport(ctx, [][]string{{"old"}, {"rows"}}))
	require.NoError(t, c.WriteReport(ctx, [][]string{{"Entradas", "R$ 10,00"}}))

	require.Equal(t, [][]string{{"Entradas", "R$ 10,00"}}, fake.tabs["Resumo"])
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Settings{}, goption.WithoutAuthentication())
	require.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestCredentialsOptions(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	ctx := context.Background()

	_, err := CredentialsOptions(ctx, "", "")
	require.ErrorContains(t, err, "missing service account credentials")

	opts, err := CredentialsOptions(ctx, `{"type":"service_account"}`, "")
	require.NoError(t, err)
	require.Len(t, opts, 2)

	_, err = CredentialsOptions(ctx, "", "/does/not/exist.json")
	require.ErrorContains(t, err, "read service account file")
}

func TestParseEntriesSkipsHeaderAndJunk(t *testing.T) {
	values := [][]any{
		toCells(core.EntryColumns),
		{"7", "2024-02-01", "Acme", "", "", "Saída", "3.50"},
		{},
		{"total", "", "", "", "", "", "100"},
	}
	got := parseEntries(values)
	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].ID)
	require.Equal(t, "3.50", got[0].Amount)
}
