// Package market fetches recent price series and the FX rate for a set of
// tickers. Everything returned is keyed by ticker regardless of how many
// tickers were requested.
package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/komsit37/pf/pkg/pf/types"
)

const (
	DefaultRange    = "5d"
	DefaultInterval = "15m"
	DefaultFxSymbol = "TWD=X"
)

// ErrUnavailable is returned when no part of a request could be served.
var ErrUnavailable = errors.New("market data unavailable")

// Request names what one cycle needs.
type Request struct {
	Tickers  []string
	FxSymbol string
	Range    string
	Interval string
}

func (r Request) withDefaults() Request {
	if r.Range == "" {
		r.Range = DefaultRange
	}
	if r.Interval == "" {
		r.Interval = DefaultInterval
	}
	return r
}

// Snapshot is the normalized answer to a Request.
type Snapshot struct {
	// Series has an entry for every requested ticker; unknown tickers map to
	// an empty series.
	Series map[string]types.PriceSeries
	// Failed holds tickers whose fetch failed for transport or payload reasons.
	Failed      map[string]error
	Fx          float64
	Diagnostics []types.Diagnostic
}

// Gateway is implemented by market data providers.
type Gateway interface {
	Fetch(ctx context.Context, req Request) (Snapshot, error)
}

// FetchError reports a failed fetch for one ticker.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
