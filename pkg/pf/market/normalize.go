package market

import (
	"sort"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/pf/pkg/pf/types"
)

// SeriesFromChart converts a chart payload into a PriceSeries. Rows without a
// close are dropped; a missing open, high or low takes the close.
func SeriesFromChart(res yfgo.ChartResult) types.PriceSeries {
	if len(res.Indicators.Quote) == 0 || len(res.Timestamp) == 0 {
		return types.PriceSeries{}
	}
	q := res.Indicators.Quote[0]
	out := make(types.PriceSeries, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c, ok := at(q.Close, i)
		if !ok {
			continue
		}
		s := types.Sample{Time: time.Unix(ts, 0).UTC(), Open: c, High: c, Low: c, Close: c}
		if v, ok := at(q.Open, i); ok {
			s.Open = v
		}
		if v, ok := at(q.High, i); ok {
			s.High = v
		}
		if v, ok := at(q.Low, i); ok {
			s.Low = v
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Time.Before(out[b].Time) })
	return out
}

func at(xs []*float64, i int) (float64, bool) {
	if i >= len(xs) || xs[i] == nil {
		return 0, false
	}
	return *xs[i], true
}

// notFound reports whether err means the provider has no data for the
// symbol, as opposed to a transport failure.
func notFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"no chart data", "chart error", "404 not found", "no data found"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
