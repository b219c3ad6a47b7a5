package core

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar day at UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Order is one row of the joined order/item/payment dataset.
	// Zero timestamps mean the value was absent in the source.
	Order struct {
		OrderID         string
		CustomerID      string
		CustomerState   string
		CustomerCity    string
		ProductID       string
		ProductCategory string
		OrderStatus     string
		DeliveryStatus  string
		ReviewScore     int // 1-5, 0 when absent
		Payment         Money

		PurchasedAt         time.Time
		ApprovedAt          time.Time
		DeliveredCarrierAt  time.Time
		DeliveredCustomerAt time.Time
		EstimatedDeliveryAt time.Time
		ShippingLimitAt     time.Time
	}

	// DateRange is an inclusive range of calendar days.
	DateRange struct {
		Start Date
		End   Date
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidScore  = errors.New("invalid review score")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DayOf returns the calendar day t falls on, in t's own location.
func DayOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// AddDays returns the day n days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// String formats the day as YYYY-MM-DD; the zero Date formats as "".
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// HasApproval reports whether the order carries an approval timestamp.
func (o Order) HasApproval() bool {
	return !o.ApprovedAt.IsZero()
}

// ApprovalDay returns the calendar day of the approval timestamp.
func (o Order) ApprovalDay() Date {
	return DayOf(o.ApprovedAt)
}

// Validate checks that both ends are set. A range whose start is after its
// end is valid and simply matches nothing.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	return nil
}

// IsEmpty reports whether no instant can fall inside the range.
func (r DateRange) IsEmpty() bool {
	return r.Start.IsZero() || r.End.IsZero() || r.Start.After(r.End.Time)
}

// Contains reports whether t falls on a day within the range. The whole end
// day is included.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() || r.IsEmpty() {
		return false
	}
	day := DayOf(t)
	return !day.Before(r.Start.Time) && !day.After(r.End.Time)
}

// Days returns the number of calendar days covered, 0 for an empty range.
func (r DateRange) Days() int {
	if r.IsEmpty() {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
