// Package charts renders dashboard charts to SVG with go-chart.
//
// Every renderer accepts plain points, bars or slices so it stays independent
// of the analytics types. Empty input renders a neutral placeholder instead of
// failing, since go-chart cannot draw a chart without a data range.
package charts

import (
	"fmt"
	"html"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ContentType is the media type of every rendered chart.
const ContentType = "image/svg+xml"

const (
	defaultWidth  = 900
	defaultHeight = 360
)

var (
	lineColor      = drawing.ColorFromHex("90CAF9")
	highlightColor = drawing.ColorFromHex("068DA9")
	mutedColor     = drawing.ColorFromHex("D3D3D3")
)

type (
	// Point is one value on a time axis.
	Point struct {
		At    time.Time
		Value float64
	}

	// Bar is one labelled bar. Highlighted bars are drawn in the accent color.
	Bar struct {
		Label     string
		Value     float64
		Highlight bool
	}

	// Slice is one wedge of a pie chart.
	Slice struct {
		Label string
		Value float64
	}

	// Options apply to every chart kind.
	Options struct {
		Title  string
		Width  int
		Height int
		// YName labels the value axis.
		YName string
		// Format renders axis values; nil uses go-chart's default.
		Format func(float64) string
		// Empty is the placeholder message shown when there is no data.
		Empty string
	}
)

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (o Options) formatter() chart.ValueFormatter {
	if o.Format == nil {
		return nil
	}
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return o.Format(f)
		}
		return fmt.Sprint(v)
	}
}

// Line renders a time series as a line chart.
func Line(w io.Writer, opt Options, points []Point) error {
	if len(points) == 0 {
		return Placeholder(w, opt)
	}

	xs := make([]time.Time, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	for _, p := range points {
		xs = append(xs, p.At)
		ys = append(ys, p.Value)
	}
	style := chart.Style{StrokeColor: lineColor, StrokeWidth: 2}
	if len(points) == 1 {
		// go-chart needs two distinct X values to build a range.
		xs = append(xs, xs[0].Add(time.Second))
		ys = append(ys, ys[0])
		style.DotWidth = 4
		style.DotColor = highlightColor
	}

	width, height := opt.size()
	ch := chart.Chart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name:           opt.YName,
			Range:          valueRange(ys),
			ValueFormatter: opt.formatter(),
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: opt.YName, XValues: xs, YValues: ys, Style: style},
		},
	}
	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render line chart %q: %w", opt.Title, err)
	}
	return nil
}

// Bars renders a vertical bar chart in the given order.
func Bars(w io.Writer, opt Options, bars []Bar) error {
	if len(bars) == 0 {
		return Placeholder(w, opt)
	}

	values := make([]chart.Value, 0, len(bars))
	ys := make([]float64, 0, len(bars))
	for _, b := range bars {
		fill := mutedColor
		if b.Highlight {
			fill = highlightColor
		}
		values = append(values, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		})
		ys = append(ys, b.Value)
	}

	width, height := opt.size()
	barWidth := (width - 120) / len(bars) * 2 / 3
	if barWidth < 8 {
		barWidth = 8
	}
	if barWidth > 80 {
		barWidth = 80
	}

	bc := chart.BarChart{
		Title:      opt.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 80}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name:           opt.YName,
			Range:          valueRange(ys),
			ValueFormatter: opt.formatter(),
		},
		Bars: values,
	}
	if err := bc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render bar chart %q: %w", opt.Title, err)
	}
	return nil
}

// Pie renders slices as a pie chart with percentage labels. Slices with a
// non-positive value are dropped.
func Pie(w io.Writer, opt Options, slices []Slice) error {
	var total float64
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total == 0 {
		return Placeholder(w, opt)
	}

	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.2f%%)", s.Label, s.Value/total*100),
			Value: s.Value,
		})
	}

	width, height := opt.size()
	pc := chart.PieChart{
		Title:  opt.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	if err := pc.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render pie chart %q: %w", opt.Title, err)
	}
	return nil
}

// valueRange starts the value axis at zero and keeps it non-degenerate.
func valueRange(ys []float64) *chart.ContinuousRange {
	max := 0.0
	for _, y := range ys {
		max = math.Max(max, y)
	}
	if max <= 0 {
		max = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: max * 1.05}
}

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">` +
	`<rect width="100%%" height="100%%" fill="#FAFAFA" stroke="#E0E0E0"/>` +
	`<text x="50%%" y="22" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#333">%s</text>` +
	`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#9E9E9E">%s</text>` +
	`</svg>`

// Placeholder renders an empty chart frame with the title and a message.
func Placeholder(w io.Writer, opt Options) error {
	width, height := opt.size()
	msg := opt.Empty
	if msg == "" {
		msg = "No data for the selected period"
	}
	_, err := fmt.Fprintf(w, placeholderSVG, width, height, width, height,
		html.EscapeString(opt.Title), html.EscapeString(msg))
	return err
}
