package dataset

import (
	"fmt"
	"strings"
)

// Column names as they appear in the public e-commerce dataset export.
const (
	ColOrderID             = "order_id"
	ColCustomerID          = "customer_id"
	ColCustomerState       = "customer_state"
	ColCustomerCity        = "customer_city"
	ColProductID           = "product_id"
	ColProductCategory     = "product_category_name_english"
	ColOrderStatus         = "order_status"
	ColDeliveryStatus      = "deliver_status"
	ColReviewScore         = "review_score"
	ColPaymentValue        = "payment_value"
	ColPurchasedAt         = "order_purchase_timestamp"
	ColApprovedAt          = "order_approved_at"
	ColDeliveredCarrierAt  = "order_delivered_carrier_date"
	ColDeliveredCustomerAt = "order_delivered_customer_date"
	ColEstimatedDeliveryAt = "order_estimated_delivery_date"
	ColShippingLimitAt     = "shipping_limit_date"
)

// requiredColumns must be present in every header.
var requiredColumns = []string{ColOrderID, ColCustomerID, ColApprovedAt, ColPaymentValue}

// columnAliases maps alternative header spellings to the canonical name.
var columnAliases = map[string]string{
	"delivery_status":       ColDeliveryStatus,
	"product_category_name": ColProductCategory,
}

// columnIndex resolves canonical column names to positions in a record.
type columnIndex map[string]int

func newColumnIndex(header []string) (columnIndex, error) {
	idx := columnIndex{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := idx[name]; !ok {
			idx[name] = i
		}
	}
	// Aliases only fill gaps; the canonical column wins when both exist.
	for alias, canonical := range columnAliases {
		if pos, ok := idx[alias]; ok {
			if _, exists := idx[canonical]; !exists {
				idx[canonical] = pos
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	return idx, nil
}

// cell returns the trimmed value of col in rec, or "" when the column is
// unknown or the record is short (Sheets drops trailing empty cells).
func (c columnIndex) cell(rec []string, col string) string {
	pos, ok := c[col]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}
