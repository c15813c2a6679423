package render

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/pf/pkg/pf/columns"
	"github.com/komsit37/pf/pkg/pf/types"
	"github.com/komsit37/pf/pkg/pf/valuation"
)

var bars = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as one line of block characters scaled between
// their min and max.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(bars)-1))
		}
		out[i] = bars[idx]
	}
	return string(out)
}

// Downsample keeps at most n evenly spaced indexes of a series of length l,
// always including the last.
func Downsample(l, n int) []int {
	if n <= 0 || l <= n {
		idx := make([]int, l)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if n == 1 {
		return []int{l - 1}
	}
	idx := make([]int, 0, n)
	step := float64(l-1) / float64(n-1)
	for i := 0; i < n; i++ {
		idx = append(idx, int(math.Round(float64(i)*step)))
	}
	return idx
}

// TrendRenderer prints the merged portfolio value series as a sparkline
// followed by a time/value table.
type TrendRenderer struct{}

func NewTrendRenderer() *TrendRenderer { return &TrendRenderer{} }

func (r *TrendRenderer) Render(w io.Writer, res types.Result, opts RenderOptions) error {
	if len(res.Trend) == 0 {
		fmt.Fprintln(w, "no trend data")
		Warnings(w, res.Diagnostics)
		return nil
	}
	values := make([]float64, len(res.Trend))
	for i, p := range res.Trend {
		values[i] = p.Value
	}
	first, last := values[0], values[len(values)-1]
	change := last - first
	line := fmt.Sprintf("%s  %s -> %s (%s)", Sparkline(values),
		columns.Money(first, res.Currency), columns.Money(last, res.Currency),
		columns.Percent(valuation.ProfitPercent(last, first)))
	fmt.Fprintln(w, colorBySign(line, change, opts.Color))

	tw := newTable(w)
	tw.AppendHeader(table.Row{"TIME", "VALUE"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight}})
	for _, i := range Downsample(len(res.Trend), opts.Points) {
		p := res.Trend[i]
		tw.AppendRow(table.Row{p.Time.Local().Format("01-02 15:04"), columns.Money(p.Value, res.Currency)})
	}
	tw.Render()
	Warnings(w, res.Diagnostics)
	return nil
}

// DetailRenderer prints the OHLC series of one holding.
type DetailRenderer struct{}

func NewDetailRenderer() *DetailRenderer { return &DetailRenderer{} }

func (r *DetailRenderer) RenderDetail(w io.Writer, d types.Detail, opts RenderOptions) error {
	title := d.Ticker
	if d.Logo != "" {
		title += "  " + d.Logo
	}
	fmt.Fprintln(w, text.Bold.Sprint(title))
	if len(d.Samples) == 0 {
		fmt.Fprintln(w, "no price data")
		return nil
	}
	closes := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		closes[i] = s.Close
	}
	change := closes[len(closes)-1] - closes[0]
	fmt.Fprintln(w, colorBySign(Sparkline(closes), change, opts.Color))

	tw := newTable(w)
	tw.AppendHeader(table.Row{"TIME", "OPEN", "HIGH", "LOW", "CLOSE"})
	cfgs := []table.ColumnConfig{}
	for n := 2; n <= 5; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)
	for _, i := range Downsample(len(d.Samples), opts.Points) {
		s := d.Samples[i]
		row := table.Row{
			s.Time.Local().Format("01-02 15:04"),
			columns.Money(s.Open, d.Currency),
			columns.Money(s.High, d.Currency),
			columns.Money(s.Low, d.Currency),
			colorBySign(columns.Money(s.Close, d.Currency), s.Close-s.Open, opts.Color),
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}

func colorBySign(v string, x float64, color bool) string {
	if !color {
		return v
	}
	switch {
	case x > 0:
		return text.Colors{text.FgGreen}.Sprint(v)
	case x < 0:
		return text.Colors{text.FgRed}.Sprint(v)
	}
	return v
}
