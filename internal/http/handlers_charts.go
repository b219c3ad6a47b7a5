package http

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"ecomdash/internal/analytics"
	"ecomdash/internal/charts"
	"ecomdash/internal/core"
	"ecomdash/internal/format"
	"ecomdash/internal/log"
)

// chartDef describes one chart endpoint. draw runs its aggregator over the
// filtered view and renders the result.
type chartDef struct {
	Name  string
	Title string
	draw  func(w io.Writer, opt charts.Options, v analytics.View, currency string) error
}

var chartDefs = []chartDef{
	{Name: "daily-orders", Title: "Daily Orders", draw: drawDailyOrders},
	{Name: "daily-revenue", Title: "Daily Revenue", draw: drawDailyRevenue},
	{Name: "daily-spend", Title: "Customer Spend Money", draw: drawDailySpend},
	{Name: "top-products", Title: "Best-selling product categories", draw: drawTopProducts},
	{Name: "bottom-products", Title: "Least-sold product categories", draw: drawBottomProducts},
	{Name: "order-status", Title: "Order Status", draw: drawOrderStatus},
	{Name: "delivery-status", Title: "Delivery Status Distribution", draw: drawDeliveryStatus},
	{Name: "reviews", Title: "Rating by customers for service", draw: drawReviews},
	{Name: "states", Title: "Number of customers from each state", draw: drawStates},
	{Name: "cities", Title: "Number of customers from each city", draw: drawCities},
}

func lookupChart(name string) (chartDef, bool) {
	for _, c := range chartDefs {
		if c.Name == name {
			return c, true
		}
	}
	return chartDef{}, false
}

// handleChart renders /charts/{name}.svg for the requested range.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	name := strings.TrimSuffix(r.PathValue("name"), ".svg")
	def, ok := lookupChart(name)
	if !ok {
		NotFoundError("unknown chart " + name).Write(w)
		return
	}

	logger := log.FromContext(r.Context())
	opt := charts.Options{Title: def.Title}

	session := s.holder.Load()
	if session == nil {
		opt.Empty = "Dataset is loading"
		w.Header().Set("Retry-After", "5")
		writeSVG(w, http.StatusServiceUnavailable, func(buf io.Writer) error { return charts.Placeholder(buf, opt) })
		return
	}

	params := ParseRangeParams(r.URL.Query())
	view := session.Filter(params.Resolve(session))

	var buf bytes.Buffer
	if err := def.draw(&buf, opt, view, s.currency); err != nil {
		s.metrics.chartErrors.Add(1)
		log.LogError(r.Context(), "Chart render failed", err, log.ComponentCharts, log.OpRender,
			log.NewFields().WithView(view.Range.String(), len(view.Orders)).WithChart(name))
		buf.Reset()
		opt.Empty = "Chart could not be rendered"
		_ = charts.Placeholder(&buf, opt)
	}
	s.metrics.chartRenders.Add(1)

	logger.DebugContext(r.Context(), "Chart rendered",
		log.FieldChart, name,
		log.FieldRange, view.Range.String(),
		log.FieldRows, len(view.Orders),
		"bytes", buf.Len())

	w.Header().Set("Content-Type", charts.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeSVG(w http.ResponseWriter, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	_ = render(&buf)
	w.Header().Set("Content-Type", charts.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func countAxis(f float64) string {
	return format.Count(int64(math.Round(f)))
}

func currencyAxis(currency string) func(float64) string {
	return func(f float64) string {
		return format.Currency(currency, core.Money{Cents: int64(math.Round(f * 100))})
	}
}

func drawDailyOrders(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	rows := analytics.DailyOrdersOf(v)
	points := make([]charts.Point, 0, len(rows))
	for _, d := range rows {
		points = append(points, charts.Point{At: d.Day.Time, Value: float64(d.OrderCount)})
	}
	opt.YName, opt.Format = "Orders", countAxis
	return charts.Line(w, opt, points)
}

func drawDailyRevenue(w io.Writer, opt charts.Options, v analytics.View, currency string) error {
	rows := analytics.DailyOrdersOf(v)
	points := make([]charts.Point, 0, len(rows))
	for _, d := range rows {
		points = append(points, charts.Point{At: d.Day.Time, Value: d.Revenue.Units()})
	}
	opt.YName, opt.Format = "Revenue", currencyAxis(currency)
	return charts.Line(w, opt, points)
}

func drawDailySpend(w io.Writer, opt charts.Options, v analytics.View, currency string) error {
	rows := analytics.DailySpendOf(v)
	points := make([]charts.Point, 0, len(rows))
	for _, d := range rows {
		points = append(points, charts.Point{At: d.Day.Time, Value: d.TotalSpend.Units()})
	}
	opt.YName, opt.Format = "Total spend", currencyAxis(currency)
	return charts.Line(w, opt, points)
}

func productBars(counts []analytics.ProductCount) []charts.Bar {
	bars := make([]charts.Bar, 0, len(counts))
	for i, c := range counts {
		bars = append(bars, charts.Bar{Label: c.Category, Value: float64(c.Count), Highlight: i == 0})
	}
	return bars
}

func drawTopProducts(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	top := analytics.TopProducts(analytics.ProductCounts(v), analytics.ProductListSize)
	opt.YName, opt.Format = "Number of sales", countAxis
	return charts.Bars(w, opt, productBars(top))
}

func drawBottomProducts(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	bottom := analytics.BottomProducts(analytics.ProductCounts(v), analytics.ProductListSize)
	opt.YName, opt.Format = "Number of sales", countAxis
	return charts.Bars(w, opt, productBars(bottom))
}

func labelBars(counts []analytics.LabelCount, highlight string) []charts.Bar {
	bars := make([]charts.Bar, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, charts.Bar{Label: c.Label, Value: float64(c.Count), Highlight: c.Label == highlight})
	}
	return bars
}

func drawOrderStatus(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	st := analytics.Statuses(v)
	opt.YName, opt.Format = "Count", countAxis
	return charts.Bars(w, opt, labelBars(st.Orders, st.MostCommonOrder))
}

func drawDeliveryStatus(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	st := analytics.Statuses(v)
	slices := make([]charts.Slice, 0, len(st.Delivery))
	for _, d := range st.Delivery {
		slices = append(slices, charts.Slice{Label: d.Label, Value: float64(d.Count)})
	}
	return charts.Pie(w, opt, slices)
}

func drawReviews(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	rv := analytics.ReviewScores(v)
	bars := make([]charts.Bar, 0, len(rv.Scores))
	for _, sc := range rv.Scores {
		bars = append(bars, charts.Bar{Label: strconv.Itoa(sc.Score), Value: float64(sc.Count), Highlight: sc.Score == rv.Mode})
	}
	opt.YName, opt.Format = "Count", countAxis
	return charts.Bars(w, opt, bars)
}

func drawStates(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	st := analytics.CustomersByState(v)
	opt.YName, opt.Format = "Number of customers", countAxis
	return charts.Bars(w, opt, labelBars(st.States, st.MostCommon))
}

func drawCities(w io.Writer, opt charts.Options, v analytics.View, _ string) error {
	cities := analytics.CustomersByCity(v, analytics.CityListSize)
	top := ""
	if len(cities) > 0 {
		top = cities[0].Label
	}
	opt.YName, opt.Format = "Number of customers", countAxis
	return charts.Bars(w, opt, labelBars(cities, top))
}
