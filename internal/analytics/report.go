package analytics

import (
	"ecomdash/internal/core"
)

// Chart list sizes.
const (
	ProductListSize = 10
	CityListSize    = 10
)

// Report bundles every summary shown on the dashboard for one view.
type Report struct {
	Range core.DateRange
	Rows  int

	DailyOrders    []DailyOrders
	DailySpend     []DailySpend
	TopProducts    []ProductCount
	BottomProducts []ProductCount
	Reviews        ReviewSummary
	States         StateSummary
	Cities         []LabelCount
	Statuses       StatusSummary

	Stats Stats
}

// Stats are the headline figures derived from the summaries.
type Stats struct {
	TotalOrders  int
	TotalRevenue core.Money
	TotalSpend   core.Money
	// AverageSpend is the mean of the daily spend totals.
	AverageSpend core.Money
	TotalItems   int
	// AverageItems is the mean number of rows per product category.
	AverageItems float64
	// AverageReview is the mean score over scored rows, 0 without any.
	AverageReview    float64
	MostCommonStatus string
	MostCommonState  string
	MostCommonCity   string
}

// BuildReport runs every aggregator over v. Nothing is cached; each call
// recomputes from the rows.
func BuildReport(v View) Report {
	r := Report{
		Range:       v.Range,
		Rows:        len(v.Orders),
		DailyOrders: DailyOrdersOf(v),
		DailySpend:  DailySpendOf(v),
		Reviews:     ReviewScores(v),
		States:      CustomersByState(v),
		Cities:      CustomersByCity(v, CityListSize),
		Statuses:    Statuses(v),
	}
	products := ProductCounts(v)
	r.TopProducts = TopProducts(products, ProductListSize)
	r.BottomProducts = BottomProducts(products, ProductListSize)
	r.Stats = deriveStats(r, products)
	return r
}

func deriveStats(r Report, products []ProductCount) Stats {
	var st Stats
	for _, d := range r.DailyOrders {
		st.TotalOrders += d.OrderCount
		st.TotalRevenue = st.TotalRevenue.Add(d.Revenue)
	}
	for _, d := range r.DailySpend {
		st.TotalSpend = st.TotalSpend.Add(d.TotalSpend)
	}
	st.AverageSpend = st.TotalSpend.DivInt(len(r.DailySpend))

	for _, p := range products {
		st.TotalItems += p.Count
	}
	if len(products) > 0 {
		st.AverageItems = float64(st.TotalItems) / float64(len(products))
	}

	var scored, sum int
	for _, sc := range r.Reviews.Scores {
		scored += sc.Count
		sum += sc.Score * sc.Count
	}
	if scored > 0 {
		st.AverageReview = float64(sum) / float64(scored)
	}

	st.MostCommonStatus = r.Statuses.MostCommonOrder
	st.MostCommonState = r.States.MostCommon
	if len(r.Cities) > 0 {
		st.MostCommonCity = r.Cities[0].Label
	}
	return st
}
