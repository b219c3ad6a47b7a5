package analytics

import (
	"sort"

	"ecomdash/internal/core"
)

// UnknownCategory labels rows without a product category.
const UnknownCategory = "unknown"

// OthersLabel is the synthetic bucket summing the delivery statuses outside the top two.
const OthersLabel = "others"

type (
	DailyOrders struct {
		Day        core.Date
		OrderCount int
		Revenue    core.Money
	}

	DailySpend struct {
		Day        core.Date
		TotalSpend core.Money
	}

	ProductCount struct {
		Category string
		Count    int
	}

	ScoreCount struct {
		Score int
		Count int
	}

	// ReviewSummary holds score frequencies sorted by count descending. Mode is
	// 0 when there are no scored rows.
	ReviewSummary struct {
		Scores    []ScoreCount
		Mode      int
		ModeCount int
	}

	LabelCount struct {
		Label string
		Count int
	}

	StateSummary struct {
		States     []LabelCount
		MostCommon string
	}

	StatusSummary struct {
		Orders          []LabelCount
		MostCommonOrder string
		// Delivery is collapsed to the two largest statuses plus OthersLabel.
		Delivery []LabelCount
	}
)

// DailyOrdersOf buckets rows by approval day and counts distinct orders and
// summed payments per day. Only days with rows are returned, ascending.
func DailyOrdersOf(v View) []DailyOrders {
	type bucket struct {
		orders  map[string]struct{}
		revenue core.Money
	}
	buckets := make(map[core.Date]*bucket)
	for _, o := range v.Orders {
		if !o.HasApproval() {
			continue
		}
		day := o.ApprovalDay()
		b, ok := buckets[day]
		if !ok {
			b = &bucket{orders: make(map[string]struct{})}
			buckets[day] = b
		}
		b.orders[o.OrderID] = struct{}{}
		b.revenue = b.revenue.Add(o.Payment)
	}

	out := make([]DailyOrders, 0, len(buckets))
	for day, b := range buckets {
		out = append(out, DailyOrders{Day: day, OrderCount: len(b.orders), Revenue: b.revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out
}

// DailySpendOf sums payments per approval day, ascending.
func DailySpendOf(v View) []DailySpend {
	totals := make(map[core.Date]core.Money)
	for _, o := range v.Orders {
		if !o.HasApproval() {
			continue
		}
		day := o.ApprovalDay()
		totals[day] = totals[day].Add(o.Payment)
	}

	out := make([]DailySpend, 0, len(totals))
	for day, total := range totals {
		out = append(out, DailySpend{Day: day, TotalSpend: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out
}

// ProductCounts counts rows per product category, most frequent first.
// Ties are ordered by category name. Counts sum to the number of rows.
func ProductCounts(v View) []ProductCount {
	counts := make(map[string]int)
	for _, o := range v.Orders {
		cat := o.ProductCategory
		if cat == "" {
			cat = UnknownCategory
		}
		counts[cat]++
	}

	out := make([]ProductCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, ProductCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// TopProducts returns up to n of the most frequent categories.
func TopProducts(counts []ProductCount, n int) []ProductCount {
	if n > len(counts) {
		n = len(counts)
	}
	if n <= 0 {
		return []ProductCount{}
	}
	out := make([]ProductCount, n)
	copy(out, counts[:n])
	return out
}

// BottomProducts returns up to n of the least frequent categories, least
// frequent first, ties ordered by category name.
func BottomProducts(counts []ProductCount, n int) []ProductCount {
	out := make([]ProductCount, len(counts))
	copy(out, counts)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if n < 0 {
		n = 0
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// ReviewScores counts rows per review score, most frequent first, ties by
// ascending score. The mode is the first entry. Unscored rows are skipped.
func ReviewScores(v View) ReviewSummary {
	counts := make(map[int]int)
	for _, o := range v.Orders {
		if o.ReviewScore < 1 || o.ReviewScore > 5 {
			continue
		}
		counts[o.ReviewScore]++
	}

	s := ReviewSummary{Scores: make([]ScoreCount, 0, len(counts))}
	for score, n := range counts {
		s.Scores = append(s.Scores, ScoreCount{Score: score, Count: n})
	}
	sort.Slice(s.Scores, func(i, j int) bool {
		if s.Scores[i].Count != s.Scores[j].Count {
			return s.Scores[i].Count > s.Scores[j].Count
		}
		return s.Scores[i].Score < s.Scores[j].Score
	})
	if len(s.Scores) > 0 {
		s.Mode = s.Scores[0].Score
		s.ModeCount = s.Scores[0].Count
	}
	return s
}

// CustomersByState counts distinct customers per state, largest first.
func CustomersByState(v View) StateSummary {
	states := distinctCustomers(v, func(o core.Order) string { return o.CustomerState })
	s := StateSummary{States: states}
	if len(states) > 0 {
		s.MostCommon = states[0].Label
	}
	return s
}

// CustomersByCity counts distinct customers per city and keeps the largest
// limit entries. A non-positive limit keeps all.
func CustomersByCity(v View, limit int) []LabelCount {
	cities := distinctCustomers(v, func(o core.Order) string { return o.CustomerCity })
	if limit > 0 && len(cities) > limit {
		cities = cities[:limit]
	}
	return cities
}

// Statuses summarizes order statuses by row frequency and delivery statuses
// by distinct customers.
func Statuses(v View) StatusSummary {
	counts := make(map[string]int)
	for _, o := range v.Orders {
		if o.OrderStatus == "" {
			continue
		}
		counts[o.OrderStatus]++
	}
	s := StatusSummary{Orders: sortedLabels(counts)}
	if len(s.Orders) > 0 {
		s.MostCommonOrder = s.Orders[0].Label
	}

	delivery := distinctCustomers(v, func(o core.Order) string { return o.DeliveryStatus })
	s.Delivery = collapseTopTwo(delivery)
	return s
}

// collapseTopTwo keeps the first two entries and folds the rest into OthersLabel.
func collapseTopTwo(sorted []LabelCount) []LabelCount {
	if len(sorted) <= 2 {
		return sorted
	}
	out := make([]LabelCount, 0, 3)
	out = append(out, sorted[0], sorted[1])
	others := 0
	for _, lc := range sorted[2:] {
		others += lc.Count
	}
	return append(out, LabelCount{Label: OthersLabel, Count: others})
}

// distinctCustomers counts distinct customer ids per non-empty key, largest first.
func distinctCustomers(v View, key func(core.Order) string) []LabelCount {
	seen := make(map[string]map[string]struct{})
	for _, o := range v.Orders {
		k := key(o)
		if k == "" {
			continue
		}
		set, ok := seen[k]
		if !ok {
			set = make(map[string]struct{})
			seen[k] = set
		}
		set[o.CustomerID] = struct{}{}
	}
	counts := make(map[string]int, len(seen))
	for k, set := range seen {
		counts[k] = len(set)
	}
	return sortedLabels(counts)
}

func sortedLabels(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}
