// Package valuation turns a holdings snapshot and per-ticker price series into
// valuation rows, portfolio totals and a merged portfolio value series.
//
// Compute is a pure function; callers own fetching and rendering.
package valuation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"github.com/komsit37/pf/pkg/pf/types"
)

var (
	// ErrNoUsableData is matched by ComputationError.
	ErrNoUsableData = errors.New("no usable market data")
	// ErrInvalidFxRate is returned when a quote-currency computation gets a
	// rate that is not a positive finite number.
	ErrInvalidFxRate = errors.New("invalid fx rate")
)

// ComputationError reports a cycle in which every holding failed to fetch.
type ComputationError struct {
	Tickers []string
}

func (e *ComputationError) Error() string {
	return "no usable market data for " + strings.Join(e.Tickers, ", ")
}

func (e *ComputationError) Is(target error) bool { return target == ErrNoUsableData }

// Input is everything one computation needs.
type Input struct {
	Holdings []types.Holding
	Prices   map[string]types.PriceSeries
	// Failed carries structural fetch errors per ticker.
	Failed   map[string]error
	Fx       float64
	Currency types.Currency
	// Code is the ISO code of the display currency, e.g. "USD" or "TWD".
	Code   string
	Policy MergePolicy
	Now    time.Time
}

// Rate returns the multiplier applied to every money value.
func (in Input) Rate() float64 {
	if in.Currency == types.Quote {
		return in.Fx
	}
	return 1
}

// Compute values the holdings in order. Holdings without data are skipped and
// reported as diagnostics.
func Compute(in Input) (types.Result, error) {
	if in.Currency == types.Quote && (math.IsNaN(in.Fx) || math.IsInf(in.Fx, 0) || in.Fx <= 0) {
		return types.Result{}, fmt.Errorf("%w: %v", ErrInvalidFxRate, in.Fx)
	}
	rate := in.Rate()
	res := types.Result{
		Rows:       []types.ValuationRow{},
		Allocation: []types.Allocation{},
		Trend:      []types.TrendPoint{},
		Currency:   in.Code,
		Symbol:     Symbol(in.Code),
		FxRate:     in.Fx,
		ComputedAt: in.Now,
	}

	var (
		values [][]types.TrendPoint
		failed []string
	)
	for _, h := range in.Holdings {
		series := in.Prices[h.Ticker]
		last, ok := series.Last()
		if !ok {
			if err, bad := in.Failed[h.Ticker]; bad && err != nil {
				failed = append(failed, h.Ticker)
				res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
					Ticker: h.Ticker, Kind: types.DiagFetchFailure, Message: err.Error(),
				})
				continue
			}
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Ticker: h.Ticker, Kind: types.DiagEmptySeries, Message: "no price data, skipped",
			})
			continue
		}

		row := Row(h, last.Close, rate)
		res.Rows = append(res.Rows, row)
		res.Totals.MarketValue += row.MarketValue
		res.Totals.CostBasis += row.CostBasis
		values = append(values, SeriesValue(series, h.Shares, rate))
	}

	if len(in.Holdings) > 0 && len(failed) == len(in.Holdings) {
		return types.Result{}, &ComputationError{Tickers: failed}
	}

	res.Totals.Profit = res.Totals.MarketValue - res.Totals.CostBasis
	res.Totals.ProfitPercent = ProfitPercent(res.Totals.MarketValue, res.Totals.CostBasis)
	res.Allocation = Allocate(res.Rows, res.Totals.MarketValue)
	res.Trend = Merge(values, in.Policy)
	return res, nil
}

// Row values one holding at price (USD) converted with rate.
func Row(h types.Holding, price, rate float64) types.ValuationRow {
	marketValue := price * h.Shares
	costBasis := h.CostBasis * h.Shares
	return types.ValuationRow{
		Ticker:        h.Ticker,
		Shares:        h.Shares,
		CostBasis:     costBasis * rate,
		Price:         price * rate,
		MarketValue:   marketValue * rate,
		Profit:        (marketValue - costBasis) * rate,
		ProfitPercent: ProfitPercent(marketValue, costBasis),
	}
}

// ProfitPercent is (value-cost)/cost*100, or 0 when cost is 0.
func ProfitPercent(value, cost float64) float64 {
	if cost == 0 {
		return 0
	}
	return (value - cost) / cost * 100
}

// Allocate returns each row's share of total.
func Allocate(rows []types.ValuationRow, total float64) []types.Allocation {
	out := make([]types.Allocation, 0, len(rows))
	for _, r := range rows {
		pct := 0.0
		if total != 0 {
			pct = r.MarketValue / total * 100
		}
		out = append(out, types.Allocation{Ticker: r.Ticker, MarketValue: r.MarketValue, Percent: pct})
	}
	return out
}

// Detail converts a holding's OHLC series into the display currency.
func Detail(series types.PriceSeries, rate float64) []types.Sample {
	out := make([]types.Sample, len(series))
	for i, s := range series {
		out[i] = types.Sample{
			Time:  s.Time,
			Open:  s.Open * rate,
			High:  s.High * rate,
			Low:   s.Low * rate,
			Close: s.Close * rate,
		}
	}
	return out
}

// Symbol returns the display symbol for a currency code, "$" for USD and
// "NT$" for TWD. Unknown codes display as the code itself.
func Symbol(code string) string {
	if c := money.GetCurrency(code); c != nil {
		return c.Grapheme
	}
	return strings.ToUpper(code)
}
