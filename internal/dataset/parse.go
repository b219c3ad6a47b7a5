// Package dataset turns the tabular order export into core.Order values.
//
// Parsing is strict about malformed values: a timestamp that is present but
// unparseable makes the whole dataset unusable, so it is reported as a
// *ParseError wrapping ErrMalformedTimestamp instead of becoming an absent value.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"ecomdash/internal/core"
)

var (
	ErrEmptyInput         = errors.New("dataset has no header row")
	ErrMissingColumn      = errors.New("missing required column")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedNumber    = errors.New("malformed number")
)

// ParseError locates a bad value in the source.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %s: value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// timestampLayouts are tried in order; all are interpreted as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseCSV reads a CSV export with a header row and returns the orders
// sorted by approval timestamp.
func ParseCSV(r io.Reader) ([]core.Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}

	var orders []core.Order
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		o, err := idx.parseRecord(rec, line)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	SortByApproval(orders)
	return orders, nil
}

// ParseRows parses an already split table, as returned by spreadsheet APIs.
// Line numbers in errors count the header as line 1.
func ParseRows(header []string, rows [][]string) ([]core.Order, error) {
	if len(header) == 0 {
		return nil, ErrEmptyInput
	}
	idx, err := newColumnIndex(header)
	if err != nil {
		return nil, err
	}
	orders := make([]core.Order, 0, len(rows))
	for i, rec := range rows {
		if isBlank(rec) {
			continue
		}
		o, err := idx.parseRecord(rec, i+2)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	SortByApproval(orders)
	return orders, nil
}

// SortByApproval orders rows by approval timestamp, keeping the source order
// among equal timestamps. Rows without approval go last.
func SortByApproval(orders []core.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].ApprovedAt, orders[j].ApprovedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
}

func (c columnIndex) parseRecord(rec []string, line int) (core.Order, error) {
	o := core.Order{
		OrderID:         c.cell(rec, ColOrderID),
		CustomerID:      c.cell(rec, ColCustomerID),
		CustomerState:   c.cell(rec, ColCustomerState),
		CustomerCity:    c.cell(rec, ColCustomerCity),
		ProductID:       c.cell(rec, ColProductID),
		ProductCategory: c.cell(rec, ColProductCategory),
		OrderStatus:     c.cell(rec, ColOrderStatus),
		DeliveryStatus:  c.cell(rec, ColDeliveryStatus),
	}

	timestamps := []struct {
		col string
		dst *time.Time
	}{
		{ColPurchasedAt, &o.PurchasedAt},
		{ColApprovedAt, &o.ApprovedAt},
		{ColDeliveredCarrierAt, &o.DeliveredCarrierAt},
		{ColDeliveredCustomerAt, &o.DeliveredCustomerAt},
		{ColEstimatedDeliveryAt, &o.EstimatedDeliveryAt},
		{ColShippingLimitAt, &o.ShippingLimitAt},
	}
	for _, ts := range timestamps {
		raw := c.cell(rec, ts.col)
		t, err := parseTimestamp(raw)
		if err != nil {
			return core.Order{}, &ParseError{Line: line, Column: ts.col, Value: raw, Err: err}
		}
		*ts.dst = t
	}

	raw := c.cell(rec, ColPaymentValue)
	payment, err := core.ParseMoney(raw)
	if err != nil {
		return core.Order{}, &ParseError{Line: line, Column: ColPaymentValue, Value: raw, Err: ErrMalformedNumber}
	}
	o.Payment = payment

	raw = c.cell(rec, ColReviewScore)
	score, err := parseReviewScore(raw)
	if err != nil {
		return core.Order{}, &ParseError{Line: line, Column: ColReviewScore, Value: raw, Err: err}
	}
	o.ReviewScore = score

	return o, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if isMissing(s) {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

// parseReviewScore accepts integral values written either as "5" or "5.0"
// (columns with gaps are exported as floats).
func parseReviewScore(s string) (int, error) {
	if isMissing(s) {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, ErrMalformedNumber
	}
	if f < 1 || f > 5 {
		return 0, core.ErrInvalidScore
	}
	return int(f), nil
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "nat", "null":
		return true
	}
	return false
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
