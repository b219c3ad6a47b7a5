package http

import (
	"net/http"
	"strings"

	"ecomdash/internal/analytics"
	"ecomdash/internal/format"
)

type (
	labelCountJSON struct {
		Label string `json:"label"`
		Count int    `json:"count"`
	}

	dailyOrdersJSON struct {
		Day          string `json:"day"`
		Orders       int    `json:"orders"`
		RevenueCents int64  `json:"revenue_cents"`
	}

	dailySpendJSON struct {
		Day        string `json:"day"`
		SpendCents int64  `json:"spend_cents"`
	}

	scoreCountJSON struct {
		Score int `json:"score"`
		Count int `json:"count"`
	}

	statsJSON struct {
		TotalOrders       int     `json:"total_orders"`
		TotalRevenueCents int64   `json:"total_revenue_cents"`
		TotalRevenue      string  `json:"total_revenue"`
		TotalSpendCents   int64   `json:"total_spend_cents"`
		TotalSpend        string  `json:"total_spend"`
		AverageSpendCents int64   `json:"average_spend_cents"`
		AverageSpend      string  `json:"average_spend"`
		TotalItems        int     `json:"total_items"`
		AverageItems      float64 `json:"average_items"`
		AverageReview     float64 `json:"average_review"`
		MostCommonStatus  string  `json:"most_common_status"`
		MostCommonState   string  `json:"most_common_state"`
		MostCommonCity    string  `json:"most_common_city"`
	}

	reportJSON struct {
		SnapshotID     string            `json:"snapshot_id"`
		Start          string            `json:"start"`
		End            string            `json:"end"`
		Rows           int               `json:"rows"`
		Currency       string            `json:"currency"`
		Stats          statsJSON         `json:"stats"`
		DailyOrders    []dailyOrdersJSON `json:"daily_orders"`
		DailySpend     []dailySpendJSON  `json:"daily_spend"`
		TopProducts    []labelCountJSON  `json:"top_products"`
		BottomProducts []labelCountJSON  `json:"bottom_products"`
		ReviewScores   []scoreCountJSON  `json:"review_scores"`
		ReviewMode     int               `json:"review_mode"`
		States         []labelCountJSON  `json:"states"`
		Cities         []labelCountJSON  `json:"cities"`
		OrderStatus    []labelCountJSON  `json:"order_status"`
		DeliveryStatus []labelCountJSON  `json:"delivery_status"`
	}
)

// handleReport returns the report for the requested range as JSON. Unlike the
// page, malformed dates are rejected.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	session := s.holder.Load()
	if session == nil {
		w.Header().Set("Retry-After", "5")
		writeJSONError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	params := ParseRangeParams(r.URL.Query())
	if len(params.Invalid) > 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid date: "+strings.Join(params.Invalid, ", ")+" (want YYYY-MM-DD)")
		return
	}

	view := session.Filter(params.Resolve(session))
	report := analytics.BuildReport(view)
	s.metrics.pageRenders.Add(1)

	writeJSON(w, http.StatusOK, s.toReportJSON(session.ID(), report))
}

func (s *Server) toReportJSON(snapshotID string, rep analytics.Report) reportJSON {
	st := rep.Stats
	out := reportJSON{
		SnapshotID: snapshotID,
		Start:      rep.Range.Start.String(),
		End:        rep.Range.End.String(),
		Rows:       rep.Rows,
		Currency:   s.currency,
		Stats: statsJSON{
			TotalOrders:       st.TotalOrders,
			TotalRevenueCents: st.TotalRevenue.Cents,
			TotalRevenue:      format.Currency(s.currency, st.TotalRevenue),
			TotalSpendCents:   st.TotalSpend.Cents,
			TotalSpend:        format.Currency(s.currency, st.TotalSpend),
			AverageSpendCents: st.AverageSpend.Cents,
			AverageSpend:      format.Currency(s.currency, st.AverageSpend),
			TotalItems:        st.TotalItems,
			AverageItems:      st.AverageItems,
			AverageReview:     st.AverageReview,
			MostCommonStatus:  st.MostCommonStatus,
			MostCommonState:   st.MostCommonState,
			MostCommonCity:    st.MostCommonCity,
		},
		DailyOrders:    make([]dailyOrdersJSON, 0, len(rep.DailyOrders)),
		DailySpend:     make([]dailySpendJSON, 0, len(rep.DailySpend)),
		ReviewScores:   make([]scoreCountJSON, 0, len(rep.Reviews.Scores)),
		ReviewMode:     rep.Reviews.Mode,
		TopProducts:    productsJSON(rep.TopProducts),
		BottomProducts: productsJSON(rep.BottomProducts),
		States:         labelsJSON(rep.States.States),
		Cities:         labelsJSON(rep.Cities),
		OrderStatus:    labelsJSON(rep.Statuses.Orders),
		DeliveryStatus: labelsJSON(rep.Statuses.Delivery),
	}
	for _, d := range rep.DailyOrders {
		out.DailyOrders = append(out.DailyOrders, dailyOrdersJSON{Day: d.Day.String(), Orders: d.OrderCount, RevenueCents: d.Revenue.Cents})
	}
	for _, d := range rep.DailySpend {
		out.DailySpend = append(out.DailySpend, dailySpendJSON{Day: d.Day.String(), SpendCents: d.TotalSpend.Cents})
	}
	for _, sc := range rep.Reviews.Scores {
		out.ReviewScores = append(out.ReviewScores, scoreCountJSON{Score: sc.Score, Count: sc.Count})
	}
	return out
}

func productsJSON(in []analytics.ProductCount) []labelCountJSON {
	out := make([]labelCountJSON, 0, len(in))
	for _, p := range in {
		out = append(out, labelCountJSON{Label: p.Category, Count: p.Count})
	}
	return out
}

func labelsJSON(in []analytics.LabelCount) []labelCountJSON {
	out := make([]labelCountJSON, 0, len(in))
	for _, l := range in {
		out = append(out, labelCountJSON{Label: l.Label, Count: l.Count})
	}
	return out
}
