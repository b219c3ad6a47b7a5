package google

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/dataset"
)

func fakeSource(values [][]interface{}, err error) (*Source, *string) {
	var gotRange string
	return &Source{
		spreadsheetID: "sheet-id",
		sheetName:     "All Orders",
		get: func(_ context.Context, id, rng string) ([][]interface{}, error) {
			gotRange = rng
			return values, err
		},
	}, &gotRange
}

func TestReadOrdersParsesMatrix(t *testing.T) {
	values := [][]interface{}{
		{"order_id", "customer_id", "order_approved_at", "payment_value", "review_score", "customer_state"},
		{"o2", "c2", "2018-01-02 10:00:00", 20.5, 5.0, "SP"},
		{"o1", "c1", "2018-01-01 10:00:00", 10.0, nil, "RJ"},
		{},
	}
	src, rng := fakeSource(values, nil)

	orders, err := src.ReadOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "'All Orders'", *rng)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].OrderID)
	assert.Equal(t, 0, orders[0].ReviewScore)
	assert.Equal(t, int64(2050), orders[1].Payment.Cents)
	assert.Equal(t, 5, orders[1].ReviewScore)
	assert.Equal(t, "SP", orders[1].CustomerState)
}

func TestReadOrdersEmptySheet(t *testing.T) {
	src, _ := fakeSource(nil, nil)
	_, err := src.ReadOrders(context.Background())
	assert.ErrorIs(t, err, dataset.ErrEmptyInput)
}

func TestReadOrdersAPIError(t *testing.T) {
	boom := errors.New("quota exceeded")
	src, _ := fakeSource(nil, boom)
	_, err := src.ReadOrders(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "Orders", quoteSheetName("Orders"))
	assert.Equal(t, "'My Orders'", quoteSheetName("My Orders"))
	assert.Equal(t, "'Bob''s'", quoteSheetName("Bob's"))
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
