package types

import "time"

// Holding is one portfolio position. CostBasis is per share, in USD.
type Holding struct {
	Ticker    string  `json:"ticker" yaml:"ticker"`
	Shares    float64 `json:"shares" yaml:"shares"`
	CostBasis float64 `json:"cost" yaml:"cost"`
	// Domain is an optional company website used as a logo hint.
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// Sample is one OHLC bar.
type Sample struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// PriceSeries is a time-ordered list of samples for one ticker.
// It may be empty or have gaps.
type PriceSeries []Sample

// Last returns the most recent sample.
func (s PriceSeries) Last() (Sample, bool) {
	if len(s) == 0 {
		return Sample{}, false
	}
	return s[len(s)-1], true
}

// Currency selects the display currency.
type Currency string

const (
	Base  Currency = "base"  // USD
	Quote Currency = "quote" // configured local currency
)

// ValuationRow is the per-holding valuation in the display currency.
type ValuationRow struct {
	Ticker        string  `json:"ticker"`
	Shares        float64 `json:"shares"`
	CostBasis     float64 `json:"cost_basis"`
	Price         float64 `json:"price"`
	MarketValue   float64 `json:"market_value"`
	Profit        float64 `json:"profit"`
	ProfitPercent float64 `json:"profit_pct"`
}

// Totals aggregates the emitted rows.
type Totals struct {
	MarketValue   float64 `json:"market_value"`
	CostBasis     float64 `json:"cost_basis"`
	Profit        float64 `json:"profit"`
	ProfitPercent float64 `json:"profit_pct"`
}

// Allocation is the weight of one holding in the portfolio market value.
type Allocation struct {
	Ticker      string  `json:"ticker"`
	MarketValue float64 `json:"market_value"`
	Percent     float64 `json:"percent"`
}

// TrendPoint is one point of the merged portfolio value series.
type TrendPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// DiagnosticKind classifies a per-ticker problem recorded during a cycle.
type DiagnosticKind string

const (
	DiagFetchFailure DiagnosticKind = "fetch_failure"
	DiagEmptySeries  DiagnosticKind = "empty_series"
	DiagFxFallback   DiagnosticKind = "fx_fallback"
)

// Diagnostic is a non-fatal problem attached to a cycle result.
type Diagnostic struct {
	Ticker  string         `json:"ticker,omitempty"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

// Result is the display contract handed to renderers.
type Result struct {
	Rows        []ValuationRow `json:"rows"`
	Totals      Totals         `json:"totals"`
	Allocation  []Allocation   `json:"allocation"`
	Trend       []TrendPoint   `json:"trend"`
	Currency    string         `json:"currency"`
	Symbol      string         `json:"symbol"`
	FxRate      float64        `json:"fx_rate"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	ComputedAt  time.Time      `json:"computed_at"`
}

// Detail is the OHLC view of one holding in the display currency.
type Detail struct {
	Ticker   string   `json:"ticker"`
	Currency string   `json:"currency"`
	Symbol   string   `json:"symbol"`
	Logo     string   `json:"logo,omitempty"`
	Samples  []Sample `json:"samples"`
}
