package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/pf/pkg/pf/columns"
	"github.com/komsit37/pf/pkg/pf/types"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, res types.Result, opts RenderOptions) error {
	cols := columns.Compute(opts.Columns)
	if err := columns.Validate(cols); err != nil {
		return err
	}
	ctx := columns.Context{Code: res.Currency, TotalValue: res.Totals.MarketValue, Logos: opts.Logos}

	tw := newTable(w)
	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		hdr[i] = strings.ToUpper(columns.Headers[c])
	}
	tw.AppendHeader(hdr)

	// Column configs: wrap text to MaxColWidth (default 40), no truncation
	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.Numeric[c] {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
			cfg.AlignFooter = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for _, row := range res.Rows {
		out := make(table.Row, len(cols))
		for i, c := range cols {
			out[i] = signed(columns.Value(c, row, ctx), c, row.Profit, opts.Color)
		}
		tw.AppendRow(out)
	}

	tot := types.ValuationRow{
		Ticker:        "TOTAL",
		CostBasis:     res.Totals.CostBasis,
		MarketValue:   res.Totals.MarketValue,
		Profit:        res.Totals.Profit,
		ProfitPercent: res.Totals.ProfitPercent,
	}
	foot := make(table.Row, len(cols))
	for i, c := range cols {
		switch c {
		case "ticker", "cost", "value", "profit", "profit_pct":
			foot[i] = signed(columns.Value(c, tot, ctx), c, tot.Profit, opts.Color)
		case "weight":
			if len(res.Rows) > 0 {
				foot[i] = "100.0%"
			}
		default:
			foot[i] = ""
		}
	}
	tw.AppendFooter(foot)
	tw.Render()

	if res.FxRate > 0 {
		fmt.Fprintf(w, "fx %.4f per USD, as of %s\n", res.FxRate, res.ComputedAt.Format("2006-01-02 15:04:05"))
	}
	Warnings(w, res.Diagnostics)
	return nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

// signed colors v by the sign of profit when col is a signed column.
func signed(v, col string, profit float64, color bool) string {
	if !columns.Signed[col] {
		return v
	}
	return colorBySign(v, profit, color)
}
