package dataset

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/core"
)

const sampleCSV = `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date,product_id,shipping_limit_date,payment_value,review_score,product_category_name_english,customer_city,customer_state,deliver_status
o2,c2,delivered,2018-01-02 09:00:00,2018-01-02 10:30:00,2018-01-03 08:00:00,2018-01-07 18:00:00,2018-01-20 00:00:00,p2,2018-01-06 10:30:00,20.50,5.0,toys,rio de janeiro,RJ,On Time
o1,c1,delivered,2018-01-01 08:00:00,2018-01-01 09:15:00,,,2018-01-15 00:00:00,p1,2018-01-05 09:15:00,10,4,bed_bath_table,sao paulo,SP,Late
o3,c3,canceled,2018-01-03 11:00:00,,,,2018-01-25 00:00:00,p3,,0,,,curitiba,PR,
`

func TestParseCSV(t *testing.T) {
	orders, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, orders, 3)

	// Sorted by approval, rows without approval last.
	assert.Equal(t, "o1", orders[0].OrderID)
	assert.Equal(t, "o2", orders[1].OrderID)
	assert.Equal(t, "o3", orders[2].OrderID)

	o := orders[1]
	assert.Equal(t, "c2", o.CustomerID)
	assert.Equal(t, "RJ", o.CustomerState)
	assert.Equal(t, "rio de janeiro", o.CustomerCity)
	assert.Equal(t, "p2", o.ProductID)
	assert.Equal(t, "toys", o.ProductCategory)
	assert.Equal(t, "delivered", o.OrderStatus)
	assert.Equal(t, "On Time", o.DeliveryStatus)
	assert.Equal(t, 5, o.ReviewScore)
	assert.Equal(t, int64(2050), o.Payment.Cents)
	assert.Equal(t, time.Date(2018, 1, 2, 10, 30, 0, 0, time.UTC), o.ApprovedAt)
	assert.Equal(t, time.Date(2018, 1, 7, 18, 0, 0, 0, time.UTC), o.DeliveredCustomerAt)

	assert.True(t, orders[0].DeliveredCarrierAt.IsZero(), "empty timestamp is absent")
	assert.False(t, orders[2].HasApproval())
	assert.Equal(t, 0, orders[2].ReviewScore)
	assert.Equal(t, "", orders[2].ProductCategory)
}

func TestParseCSVMalformedTimestampIsFatal(t *testing.T) {
	in := "order_id,customer_id,order_approved_at,payment_value\n" +
		"o1,c1,2018-01-01 09:00:00,1\n" +
		"o2,c2,yesterday,1\n"
	_, err := ParseCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedTimestamp)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.Equal(t, ColApprovedAt, pe.Column)
	assert.Equal(t, "yesterday", pe.Value)
}

func TestParseCSVValueErrors(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		target error
	}{
		{"negative payment", "o1,c1,2018-01-01,-5,3", ErrMalformedNumber},
		{"text payment", "o1,c1,2018-01-01,abc,3", ErrMalformedNumber},
		{"fractional score", "o1,c1,2018-01-01,5,3.5", ErrMalformedNumber},
		{"score out of range", "o1,c1,2018-01-01,5,9", core.ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := "order_id,customer_id,order_approved_at,payment_value,review_score\n" + tt.row + "\n"
			_, err := ParseCSV(strings.NewReader(in))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("order_id,payment_value\no1,1\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), ColCustomerID)
	assert.Contains(t, err.Error(), ColApprovedAt)

	_, err = ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	orders, err := ParseCSV(strings.NewReader("order_id,customer_id,order_approved_at,payment_value\n"))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestParseRowsAliasesAndShortRows(t *testing.T) {
	header := []string{"\ufeffOrder_ID", "customer_id", "order_approved_at", "payment_value", "product_category_name", "delivery_status"}
	rows := [][]string{
		{"o1", "c1", "2018-02-01T10:00:00", "12.30", "perfumery", "On Time"},
		{},
		{"o2", "c2", "", "1"}, // trailing cells dropped
	}
	orders, err := ParseRows(header, rows)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "perfumery", orders[0].ProductCategory)
	assert.Equal(t, "On Time", orders[0].DeliveryStatus)
	assert.Equal(t, int64(1230), orders[0].Payment.Cents)
	assert.Equal(t, "o2", orders[1].OrderID)
	assert.Equal(t, "", orders[1].DeliveryStatus)
}

func TestParseRowsReportsSheetLine(t *testing.T) {
	header := []string{"order_id", "customer_id", "order_approved_at", "payment_value"}
	rows := [][]string{
		{"o1", "c1", "2018-02-01", "1"},
		{"o2", "c2", "02/01/2018", "1"},
	}
	_, err := ParseRows(header, rows)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 3, pe.Line)
}

func TestSortByApprovalIsStable(t *testing.T) {
	at := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []core.Order{
		{OrderID: "none-1"},
		{OrderID: "b", ApprovedAt: at},
		{OrderID: "early", ApprovedAt: at.Add(-time.Hour)},
		{OrderID: "c", ApprovedAt: at},
		{OrderID: "none-2"},
	}
	SortByApproval(orders)
	var ids []string
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	assert.Equal(t, []string{"early", "b", "c", "none-1", "none-2"}, ids)
}
