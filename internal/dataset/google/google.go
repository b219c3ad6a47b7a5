// Package google reads the order dataset from a Google Sheets tab whose first
// row carries the same header as the CSV export.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
)

// Config selects the spreadsheet and how to authenticate.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesGetter is the slice of the Sheets API the source needs.
type valuesGetter func(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)

type Source struct {
	get           valuesGetter
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ dataset.OrderReader = (*Source)(nil)

// New creates a Sheets-backed source using service account credentials.
// Credentials come from cfg, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Orders"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	get := func(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
		resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).
			Do()
		if err != nil {
			return nil, err
		}
		return resp.Values, nil
	}

	return &Source{get: get, spreadsheetID: cfg.SpreadsheetID, sheetName: sheet}, nil
}

// newSheetsService initializes a read-only Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inline != "":
		credentialsJSON = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ReadOrders reads the whole tab and parses it like a CSV export.
func (s *Source) ReadOrders(ctx context.Context) ([]core.Order, error) {
	start := time.Now()
	rng := quoteSheetName(s.sheetName)
	values, err := s.get(ctx, s.spreadsheetID, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	header, rows := splitValues(values)
	orders, err := dataset.ParseRows(header, rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Dataset loaded from Google Sheets",
		"sheet", s.sheetName,
		"rows", len(orders),
		"duration_ms", time.Since(start).Milliseconds())
	return orders, nil
}

// splitValues converts the API value matrix into a header and string rows.
func splitValues(values [][]interface{}) ([]string, [][]string) {
	if len(values) == 0 {
		return nil, nil
	}
	header := toStrings(values[0])
	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rows = append(rows, toStrings(row))
	}
	return header, rows
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// quoteSheetName wraps names containing spaces or quotes for A1 notation.
func quoteSheetName(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
