package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"fluxo/internal/core"
	ports "fluxo/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
	htransport "google.golang.org/api/transport/http"
)

var _ ports.Mirror = (*Client)(nil)

// Client mirrors ledger entries into one tab of a spreadsheet and writes reports to another.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	summarySheet  string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Settings names the spreadsheet and its tabs.
type Settings struct {
	SpreadsheetID string
	EntriesSheet  string
	SummarySheet  string
}

// New creates a client. Pass CredentialsOptions for production or an endpoint
// override in tests.
func New(ctx context.Context, s Settings, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(s.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if s.EntriesSheet == "" {
		s.EntriesSheet = "Lancamentos"
	}
	if s.SummarySheet == "" {
		s.SummarySheet = "Resumo"
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: s.SpreadsheetID,
		entriesSheet:  s.EntriesSheet,
		summarySheet:  s.SummarySheet,
		sheetIDs:      make(map[string]int64),
	}, nil
}

// CredentialsOptions builds service account options from inline JSON or a
// file path, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func CredentialsOptions(ctx context.Context, inlineJSON, file string) ([]goption.ClientOption, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)
	if inlineJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(inlineJSON)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials file", "path", file, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// NewHTTPClient returns a pooled client suited to the Sheets API.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Dial builds an authenticated client over the pooled transport.
func Dial(ctx context.Context, s Settings, inlineJSON, file string) (*Client, error) {
	creds, err := CredentialsOptions(ctx, inlineJSON, file)
	if err != nil {
		return nil, err
	}
	hc := NewHTTPClient()
	rt, err := htransport.NewTransport(ctx, hc.Transport, creds...)
	if err != nil {
		return nil, fmt.Errorf("create authorized transport: %w", err)
	}
	hc.Transport = rt
	return New(ctx, s, goption.WithHTTPClient(hc))
}

// UpsertEntry rewrites the row whose column A holds e.ID, or appends one.
// The header row is written first when the tab is empty.
func (c *Client) UpsertEntry(ctx context.Context, e core.Entry) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}

	record := toCells(e.Record())
	if row := findRow(ids, e.ID); row > 0 {
		rng := fmt.Sprintf("%s!A%d:%s%d", c.entriesSheet, row, lastColumn(), row)
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{record}}).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	values := [][]any{record}
	if len(ids) == 0 {
		values = [][]any{toCells(core.EntryColumns), record}
	}
	rng := fmt.Sprintf("%s!A1", c.entriesSheet)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.entriesSheet, err)
	}
	return nil
}

// DeleteEntry removes the row holding id.
func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		return nil
	}
	sheetID, err := c.sheetID(ctx, c.entriesSheet)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(row - 1),
					EndIndex:        int64(row),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %s: %w", row, c.entriesSheet, err)
	}
	return nil
}

// ListEntries reads every mirrored entry.
func (c *Client) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rng := fmt.Sprintf("%s!A:%s", c.entriesSheet, lastColumn())
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseEntries(resp.Values), nil
}

// WriteReport clears the summary tab and writes rows from A1.
func (c *Client) WriteReport(ctx context.Context, rows [][]string) error {
	clearRng := fmt.Sprintf("%s!A:Z", c.summarySheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = toCells(r)
	}
	rng := fmt.Sprintf("%s!A1", c.summarySheet)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

// readIDs returns column A of the entries tab, one string per row.
func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return out, nil
}

func (c *Client) sheetID(ctx context.Context, title string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.sheetIDs[title]; ok {
		return id, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", title)
	}
	return id, nil
}

// findRow returns the 1-based row whose id cell equals id, 0 when absent.
func findRow(ids []string, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, v := range ids {
		if v == want {
			return i + 1
		}
	}
	return 0
}

func lastColumn() string {
	return string(rune('A' + len(core.EntryColumns) - 1))
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
