// Package analytics filters the loaded dataset by date range and computes the
// dashboard's summaries. All aggregators are pure: they read a View and return
// freshly allocated results, leaving the session untouched.
package analytics

import (
	"sync/atomic"
	"time"

	"ecomdash/internal/core"
)

// Session is the immutable, loaded dataset. It is created once per load and
// shared read-only between requests.
type Session struct {
	id       string
	loadedAt time.Time
	orders   []core.Order
	bounds   core.DateRange
}

// View is the subset of a session selected by a date range.
type View struct {
	Range  core.DateRange
	Orders []core.Order
}

// NewSession copies orders into a new session. Bounds span the first to the
// last approval day; a dataset without approvals has zero bounds.
func NewSession(id string, orders []core.Order, loadedAt time.Time) *Session {
	own := make([]core.Order, len(orders))
	copy(own, orders)

	s := &Session{id: id, loadedAt: loadedAt, orders: own}
	for _, o := range own {
		if !o.HasApproval() {
			continue
		}
		day := o.ApprovalDay()
		if s.bounds.Start.IsZero() || day.Before(s.bounds.Start.Time) {
			s.bounds.Start = day
		}
		if s.bounds.End.IsZero() || day.After(s.bounds.End.Time) {
			s.bounds.End = day
		}
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Len returns the number of rows, including rows without approval.
func (s *Session) Len() int { return len(s.orders) }

func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// Bounds returns the first and last approval day of the dataset.
func (s *Session) Bounds() core.DateRange { return s.bounds }

// ResolveRange fills zero ends with the dataset bounds.
func (s *Session) ResolveRange(start, end core.Date) core.DateRange {
	r := core.DateRange{Start: start, End: end}
	if r.Start.IsZero() {
		r.Start = s.bounds.Start
	}
	if r.End.IsZero() {
		r.End = s.bounds.End
	}
	return r
}

// Filter returns the rows approved within r. Rows without an approval
// timestamp never match; an inverted range yields an empty view.
func (s *Session) Filter(r core.DateRange) View {
	v := View{Range: r}
	if r.IsEmpty() {
		return v
	}
	for _, o := range s.orders {
		if r.Contains(o.ApprovedAt) {
			v.Orders = append(v.Orders, o)
		}
	}
	return v
}

// All returns a view over the whole dataset, including rows without approval.
func (s *Session) All() View {
	orders := make([]core.Order, len(s.orders))
	copy(orders, s.orders)
	return View{Range: s.bounds, Orders: orders}
}

// Holder publishes the current session to concurrent readers.
type Holder struct {
	p atomic.Pointer[Session]
}

// Load returns the current session or nil before the first load.
func (h *Holder) Load() *Session {
	return h.p.Load()
}

// Store replaces the current session and returns the previous one.
func (h *Holder) Store(s *Session) *Session {
	return h.p.Swap(s)
}
