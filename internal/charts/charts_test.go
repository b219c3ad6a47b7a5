package charts

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2018, 1, d, 0, 0, 0, 0, time.UTC)
}

func assertSVG(t *testing.T, b []byte) {
	t.Helper()
	require.True(t, bytes.HasPrefix(bytes.TrimSpace(b), []byte("<svg")), "output should be an svg document")
	dec := xml.NewDecoder(bytes.NewReader(b))
	for {
		_, err := dec.Token()
		if err != nil {
			assert.Equal(t, "EOF", err.Error())
			return
		}
	}
}

func TestLine(t *testing.T) {
	var buf bytes.Buffer
	err := Line(&buf, Options{Title: "Orders", YName: "orders"}, []Point{
		{At: day(1), Value: 3},
		{At: day(2), Value: 5},
		{At: day(4), Value: 1},
	})
	require.NoError(t, err)
	assertSVG(t, buf.Bytes())
	assert.Contains(t, buf.String(), "Orders")
}

func TestLineSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Line(&buf, Options{Title: "Spend"}, []Point{{At: day(1), Value: 60}}))
	assertSVG(t, buf.Bytes())
}

func TestLineAllZero(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Line(&buf, Options{}, []Point{{At: day(1)}, {At: day(2)}}))
	assertSVG(t, buf.Bytes())
}

func TestBars(t *testing.T) {
	var bars []Bar
	for i := 0; i < 10; i++ {
		bars = append(bars, Bar{Label: fmt.Sprintf("category_%d", i), Value: float64(10 - i), Highlight: i == 0})
	}

	var buf bytes.Buffer
	require.NoError(t, Bars(&buf, Options{Title: "Top categories", Format: func(v float64) string { return fmt.Sprintf("%.0f", v) }}, bars))
	assertSVG(t, buf.Bytes())
	assert.Contains(t, buf.String(), "category_0")
}

func TestBarsEqualValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Bars(&buf, Options{}, []Bar{{Label: "a", Value: 2}, {Label: "b", Value: 2}}))
	assertSVG(t, buf.Bytes())
}

func TestPie(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pie(&buf, Options{Title: "Delivery"}, []Slice{
		{Label: "on time", Value: 3},
		{Label: "late", Value: 1},
		{Label: "others", Value: 0},
	}))
	assertSVG(t, buf.Bytes())
	assert.Contains(t, buf.String(), "on time (75.00%)")
	assert.NotContains(t, buf.String(), "others")
}

func TestEmptyInputRendersPlaceholder(t *testing.T) {
	opt := Options{Title: "Reviews & <scores>", Width: 300, Height: 200}

	renders := map[string]func(*bytes.Buffer) error{
		"line": func(b *bytes.Buffer) error { return Line(b, opt, nil) },
		"bars": func(b *bytes.Buffer) error { return Bars(b, opt, nil) },
		"pie":  func(b *bytes.Buffer) error { return Pie(b, opt, []Slice{{Label: "x", Value: 0}}) },
	}
	for name, render := range renders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, render(&buf))
			assertSVG(t, buf.Bytes())
			out := buf.String()
			assert.Contains(t, out, `width="300"`)
			assert.Contains(t, out, "Reviews &amp; &lt;scores&gt;")
			assert.True(t, strings.Contains(out, "No data for the selected period"))
		})
	}
}

func TestPlaceholderCustomMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Placeholder(&buf, Options{Empty: "Dataset loading"}))
	assert.Contains(t, buf.String(), "Dataset loading")
	assert.Contains(t, buf.String(), `width="900"`)
}
