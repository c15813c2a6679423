package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/pf/pkg/pf/types"
)

var t0 = time.Date(2025, 1, 6, 14, 30, 0, 0, time.UTC)

func sample() types.Result {
	return types.Result{
		Rows: []types.ValuationRow{
			{Ticker: "AAA", Shares: 10, CostBasis: 50, Price: 6, MarketValue: 60, Profit: 10, ProfitPercent: 20},
			{Ticker: "BBB", Shares: 2, CostBasis: 200, Price: 90, MarketValue: 180, Profit: -20, ProfitPercent: -10},
		},
		Totals:   types.Totals{MarketValue: 240, CostBasis: 250, Profit: -10, ProfitPercent: -4},
		Currency: "USD",
		Symbol:   "$",
		FxRate:   32.5,
		Trend: []types.TrendPoint{
			{Time: t0, Value: 230},
			{Time: t0.Add(15 * time.Minute), Value: 240},
		},
		Diagnostics: []types.Diagnostic{{Ticker: "ZZZZ", Kind: types.DiagEmptySeries, Message: "no price data, skipped"}},
		ComputedAt:  t0,
	}
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	err := NewTableRenderer().Render(&buf, sample(), RenderOptions{})
	require.NoError(t, err)
	out := buf.String()
	for _, s := range []string{"TICKER", "PROFIT%", "AAA", "BBB", "$60.00", "+20.00%", "-10.00%", "TOTAL", "$240.00", "$250.00", "-4.00%"} {
		assert.Contains(t, out, s)
	}
	assert.Contains(t, out, "warning: ZZZZ: no price data, skipped (empty_series)")
	assert.Contains(t, out, "fx 32.5000 per USD")
}

func TestTableRendererColumns(t *testing.T) {
	var buf bytes.Buffer
	err := NewTableRenderer().Render(&buf, sample(), RenderOptions{Columns: []string{"ticker", "weight"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "25.0%")
	assert.Contains(t, buf.String(), "75.0%")
	assert.NotContains(t, buf.String(), "PRICE")

	err = NewTableRenderer().Render(&buf, sample(), RenderOptions{Columns: []string{"bogus"}})
	assert.Error(t, err)
}

func TestTableRendererEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, types.Result{Currency: "USD"}, RenderOptions{Color: true}))
	assert.Contains(t, buf.String(), "$0.00")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().Render(&buf, sample(), RenderOptions{PrettyJSON: true}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "USD", got["currency"])
	rows := got["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, 60.0, rows[0].(map[string]any)["market_value"])
	assert.Equal(t, -4.0, got["totals"].(map[string]any)["profit_pct"])
}

func TestSymsRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSymsRenderer().Render(&buf, sample(), RenderOptions{}))
	assert.Equal(t, "AAA,BBB\n", buf.String())
}

func TestTrendRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTrendRenderer().Render(&buf, sample(), RenderOptions{}))
	out := buf.String()
	assert.Contains(t, out, "▁█")
	assert.Contains(t, out, "$230.00 -> $240.00")
	assert.Contains(t, out, "+4.35%")

	buf.Reset()
	require.NoError(t, NewTrendRenderer().Render(&buf, types.Result{}, RenderOptions{}))
	assert.Contains(t, buf.String(), "no trend data")
}

func TestDetailRenderer(t *testing.T) {
	d := types.Detail{
		Ticker:   "AAA",
		Currency: "TWD",
		Logo:     "https://logo.clearbit.com/aaa.com",
		Samples: []types.Sample{
			{Time: t0, Open: 10, High: 12, Low: 9, Close: 11},
			{Time: t0.Add(time.Hour), Open: 11, High: 11, Low: 8, Close: 8.5},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, NewDetailRenderer().RenderDetail(&buf, d, RenderOptions{}))
	out := buf.String()
	assert.Contains(t, out, "AAA  https://logo.clearbit.com/aaa.com")
	assert.Contains(t, out, "NT$12.00")
	assert.Contains(t, out, "NT$8.50")

	buf.Reset()
	require.NoError(t, NewDetailRenderer().RenderDetail(&buf, types.Detail{Ticker: "X"}, RenderOptions{}))
	assert.Contains(t, buf.String(), "no price data")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "▁▁▁", Sparkline([]float64{5, 5, 5}))
	assert.Equal(t, "▁▄█", Sparkline([]float64{0, 50, 100}))
}

func TestDownsample(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, Downsample(3, 0))
	assert.Equal(t, []int{0, 1, 2}, Downsample(3, 5))
	assert.Equal(t, []int{0, 5, 10}, Downsample(11, 3))
	assert.Equal(t, []int{4}, Downsample(5, 1))
}

func TestTrendRendererSinglePoint(t *testing.T) {
	res := sample()
	res.Trend = []types.TrendPoint{{Time: t0, Value: 100}, {Time: t0.Add(time.Hour), Value: 104}}
	var buf bytes.Buffer
	require.NoError(t, NewTrendRenderer().Render(&buf, res, RenderOptions{Points: 1}))
	assert.Contains(t, buf.String(), "104")
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "table", "json", "syms", "trend"} {
		r, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, r)
	}
	_, err := New("pdf")
	assert.Error(t, err)
}
