package http

import (
	"fmt"
	"net/url"
	"strings"

	"ecomdash/internal/analytics"
	"ecomdash/internal/core"
	"ecomdash/internal/format"
)

type (
	statItem struct {
		Label string
		Value string
	}

	chartRef struct {
		Name  string
		Title string
		URL   string
	}

	pageTab struct {
		ID     string
		Label  string
		Stats  []statItem
		Charts []chartRef
		Notes  []string
	}

	pageSection struct {
		ID    string
		Title string
		Stats []statItem
		Tabs  []pageTab
	}

	// dashboardData feeds the "dashboard" template, both inside the full page
	// and as the HTMX partial.
	dashboardData struct {
		Start      string
		End        string
		Min        string
		Max        string
		Rows       string
		RowCount   int
		SnapshotID string
		LoadedAt   string
		Notice     string
		Empty      bool
		Sections   []pageSection
	}

	indexData struct {
		Title     string
		Dashboard dashboardData
	}
)

const emptyNote = "No orders were approved in the selected period."

// buildDashboard lays the report out in the page's sections. Notes are
// written from the figures of the current report.
func buildDashboard(rep analytics.Report, s *analytics.Session, currency string) dashboardData {
	bounds := s.Bounds()
	data := dashboardData{
		Start:      rep.Range.Start.String(),
		End:        rep.Range.End.String(),
		Min:        bounds.Start.String(),
		Max:        bounds.End.String(),
		Rows:       format.Count(rep.Rows),
		RowCount:   rep.Rows,
		SnapshotID: s.ID(),
		LoadedAt:   s.LoadedAt().UTC().Format("2006-01-02 15:04 MST"),
		Empty:      rep.Rows == 0,
	}

	query := RangeQuery(rep.Range)
	query.Set("v", s.ID())
	ref := func(name string) chartRef {
		def, _ := lookupChart(name)
		return chartRef{Name: name, Title: def.Title, URL: chartURL(name, query)}
	}

	st := rep.Stats
	money := func(m core.Money) string { return format.Currency(currency, m) }

	data.Sections = []pageSection{
		{
			ID:    "daily-orders",
			Title: "Daily Orders",
			Stats: []statItem{
				{"Total Order", format.Count(st.TotalOrders)},
				{"Total Revenue", money(st.TotalRevenue)},
			},
			Tabs: []pageTab{
				{ID: "orders-count", Label: "Orders", Charts: []chartRef{ref("daily-orders")}, Notes: dailyOrdersNotes(rep)},
				{ID: "orders-revenue", Label: "Revenue", Charts: []chartRef{ref("daily-revenue")}, Notes: dailyRevenueNotes(rep, currency)},
			},
		},
		{
			ID:    "customer-spend",
			Title: "Customer Spend Money",
			Stats: []statItem{
				{"Total Spend", money(st.TotalSpend)},
				{"Average Spend", money(st.AverageSpend)},
			},
			Tabs: []pageTab{
				{ID: "spend", Label: "Spend", Charts: []chartRef{ref("daily-spend")}, Notes: dailySpendNotes(rep, currency)},
			},
		},
		{
			ID:    "order-items",
			Title: "Order Items and Status",
			Tabs: []pageTab{
				{
					ID:    "items",
					Label: "Order Items",
					Stats: []statItem{
						{"Total Items", format.Count(st.TotalItems)},
						{"Average Items", format.Decimal(st.AverageItems)},
					},
					Charts: []chartRef{ref("top-products"), ref("bottom-products")},
					Notes:  productNotes(rep),
				},
				{
					ID:     "order-status",
					Label:  "Order Status",
					Stats:  []statItem{{"Most Common Order Status", orDash(st.MostCommonStatus)}},
					Charts: []chartRef{ref("order-status")},
					Notes:  orderStatusNotes(rep),
				},
				{
					ID:     "delivery-status",
					Label:  "Deliver Status",
					Charts: []chartRef{ref("delivery-status")},
					Notes:  deliveryNotes(rep),
				},
			},
		},
		{
			ID:    "review-score",
			Title: "Review Score",
			Stats: []statItem{
				{"Average Review Score", format.Decimal(st.AverageReview)},
				{"Most Common Review Score", reviewMode(rep.Reviews)},
			},
			Tabs: []pageTab{
				{ID: "reviews", Label: "Reviews", Charts: []chartRef{ref("reviews")}, Notes: reviewNotes(rep)},
			},
		},
		{
			ID:    "customer-demographic",
			Title: "Customer Demographic",
			Tabs: []pageTab{
				{
					ID:     "state",
					Label:  "State",
					Stats:  []statItem{{"Most Common State", orDash(st.MostCommonState)}},
					Charts: []chartRef{ref("states")},
					Notes:  stateNotes(rep),
				},
				{
					ID:     "city",
					Label:  "City",
					Stats:  []statItem{{"Most Common City", orDash(st.MostCommonCity)}},
					Charts: []chartRef{ref("cities")},
					Notes:  cityNotes(rep),
				},
			},
		},
	}
	return data
}

func chartURL(name string, query url.Values) string {
	return "/charts/" + name + ".svg?" + query.Encode()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func reviewMode(r analytics.ReviewSummary) string {
	if r.Mode == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", r.Mode)
}

func periodLabel(rep analytics.Report) string {
	return fmt.Sprintf("between %s and %s", rep.Range.Start, rep.Range.End)
}

func dailyOrdersNotes(rep analytics.Report) []string {
	if len(rep.DailyOrders) == 0 {
		return []string{emptyNote}
	}
	busiest := rep.DailyOrders[0]
	for _, d := range rep.DailyOrders[1:] {
		if d.OrderCount > busiest.OrderCount {
			busiest = d
		}
	}
	return []string{
		fmt.Sprintf("%s orders were approved %s, over %s days with sales.",
			format.Count(rep.Stats.TotalOrders), periodLabel(rep), format.Count(len(rep.DailyOrders))),
		fmt.Sprintf("The busiest day was %s with %s orders.", busiest.Day, format.Count(busiest.OrderCount)),
	}
}

func dailyRevenueNotes(rep analytics.Report, currency string) []string {
	if len(rep.DailyOrders) == 0 {
		return []string{emptyNote}
	}
	best := rep.DailyOrders[0]
	for _, d := range rep.DailyOrders[1:] {
		if d.Revenue.Cents > best.Revenue.Cents {
			best = d
		}
	}
	return []string{
		fmt.Sprintf("Revenue %s totals %s.", periodLabel(rep), format.Currency(currency, rep.Stats.TotalRevenue)),
		fmt.Sprintf("The highest revenue was %s on %s.", format.Currency(currency, best.Revenue), best.Day),
	}
}

func dailySpendNotes(rep analytics.Report, currency string) []string {
	if len(rep.DailySpend) == 0 {
		return []string{emptyNote}
	}
	best := rep.DailySpend[0]
	for _, d := range rep.DailySpend[1:] {
		if d.TotalSpend.Cents > best.TotalSpend.Cents {
			best = d
		}
	}
	return []string{
		fmt.Sprintf("Customers spent %s %s, %s per day with sales on average.",
			format.Currency(currency, rep.Stats.TotalSpend), periodLabel(rep), format.Currency(currency, rep.Stats.AverageSpend)),
		fmt.Sprintf("Spending peaked at %s on %s.", format.Currency(currency, best.TotalSpend), best.Day),
	}
}

func productNotes(rep analytics.Report) []string {
	if len(rep.TopProducts) == 0 {
		return []string{emptyNote}
	}
	top, bottom := rep.TopProducts[0], rep.BottomProducts[0]
	return []string{
		fmt.Sprintf("The best-selling category is %s with %s items.", top.Category, format.Count(top.Count)),
		fmt.Sprintf("The least-sold category is %s with %s items.", bottom.Category, format.Count(bottom.Count)),
	}
}

func orderStatusNotes(rep analytics.Report) []string {
	orders := rep.Statuses.Orders
	if len(orders) == 0 {
		return []string{emptyNote}
	}
	total := 0
	for _, o := range orders {
		total += o.Count
	}
	notes := []string{fmt.Sprintf("%s covers %s of the order rows.",
		orders[0].Label, format.Percent(float64(orders[0].Count)/float64(total)))}
	if len(orders) > 1 {
		rest := make([]string, 0, len(orders)-1)
		for _, o := range orders[1:] {
			rest = append(rest, fmt.Sprintf("%s (%s)", o.Label, format.Count(o.Count)))
		}
		notes = append(notes, "Other statuses: "+strings.Join(rest, ", ")+".")
	}
	return notes
}

func deliveryNotes(rep analytics.Report) []string {
	delivery := rep.Statuses.Delivery
	total := 0
	for _, d := range delivery {
		total += d.Count
	}
	if total == 0 {
		return []string{emptyNote}
	}
	notes := make([]string, 0, len(delivery))
	for _, d := range delivery {
		notes = append(notes, fmt.Sprintf("%s: %s of customers (%s).",
			d.Label, format.Percent(float64(d.Count)/float64(total)), format.Count(d.Count)))
	}
	return notes
}

func reviewNotes(rep analytics.Report) []string {
	r := rep.Reviews
	if r.Mode == 0 {
		return []string{emptyNote}
	}
	notes := []string{
		fmt.Sprintf("The average review score is %s.", format.Decimal(rep.Stats.AverageReview)),
		fmt.Sprintf("Score %d is the most frequent with %s reviews.", r.Mode, format.Count(r.ModeCount)),
	}
	for _, sc := range r.Scores {
		if sc.Score == 1 && r.Mode != 1 {
			notes = append(notes, fmt.Sprintf("%s reviews gave the lowest score; they are worth reading first.", format.Count(sc.Count)))
		}
	}
	return notes
}

func stateNotes(rep analytics.Report) []string {
	states := rep.States.States
	if len(states) == 0 {
		return []string{emptyNote}
	}
	return []string{fmt.Sprintf("Most customers come from %s: %s customers out of %s states.",
		states[0].Label, format.Count(states[0].Count), format.Count(len(states)))}
}

func cityNotes(rep analytics.Report) []string {
	if len(rep.Cities) == 0 {
		return []string{emptyNote}
	}
	return []string{fmt.Sprintf("Most customers come from %s: %s customers.",
		rep.Cities[0].Label, format.Count(rep.Cities[0].Count))}
}
