package market

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/komsit37/pf/pkg/pf/types"
)

type fakeAPI struct {
	mu     sync.Mutex
	charts map[string]yfgo.ChartResult
	errs   map[string]error
	calls  map[string]int
	opts   []yfgo.ChartOptions
}

func newFake() *fakeAPI {
	return &fakeAPI{charts: map[string]yfgo.ChartResult{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeAPI) QuoteSummary(context.Context, string, []yfgo.QuoteSummaryModule) (any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) QuoteSummaryTyped(context.Context, string, []yfgo.QuoteSummaryModule) (yfgo.QuoteSummaryTyped, error) {
	return yfgo.QuoteSummaryTyped{}, errors.New("not implemented")
}

func (f *fakeAPI) Quote(context.Context, []string) ([]yfgo.Quote, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) Chart(context.Context, string, yfgo.ChartOptions) (any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) ChartTyped(ctx context.Context, sym string, opts yfgo.ChartOptions) (yfgo.ChartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[sym]++
	f.opts = append(f.opts, opts)
	if err := ctx.Err(); err != nil {
		return yfgo.ChartResult{}, err
	}
	if err, ok := f.errs[sym]; ok {
		return yfgo.ChartResult{}, err
	}
	if c, ok := f.charts[sym]; ok {
		return c, nil
	}
	return yfgo.ChartResult{}, errors.New("no chart data returned")
}

func fp(v float64) *float64 { return &v }

func chart(sym string, start int64, closes ...*float64) yfgo.ChartResult {
	ts := make([]int64, len(closes))
	for i := range closes {
		ts[i] = start + int64(i)*900
	}
	return yfgo.ChartResult{
		Meta:      yfgo.ChartMeta{Symbol: sym, Currency: "USD"},
		Timestamp: ts,
		Indicators: yfgo.ChartIndicators{Quote: []yfgo.ChartQuoteSeries{{
			Open: closes, High: closes, Low: closes, Close: closes,
		}}},
	}
}

const start = int64(1736173800)

func TestSeriesFromChartDropsMissingCloses(t *testing.T) {
	res := chart("AAA", start, fp(10), nil, fp(12))
	res.Indicators.Quote[0].Open = []*float64{fp(9), fp(10)}

	s := SeriesFromChart(res)
	require.Len(t, s, 2)
	assert.Equal(t, types.Sample{Time: time.Unix(start, 0).UTC(), Open: 9, High: 10, Low: 10, Close: 10}, s[0])
	assert.Equal(t, time.Unix(start+1800, 0).UTC(), s[1].Time)
	assert.Equal(t, 12.0, s[1].Open, "missing open takes the close")

	assert.Empty(t, SeriesFromChart(yfgo.ChartResult{}))
}

func TestFetchNormalizesPerTicker(t *testing.T) {
	api := newFake()
	api.charts["AAA"] = chart("AAA", start, fp(10), fp(11))
	api.charts["BBB"] = chart("BBB", start, fp(5))
	api.charts["TWD=X"] = chart("TWD=X", start, fp(32.1), fp(32.2))
	api.errs["ZZZZ"] = errors.New("yahoo finance error: 404 Not Found: {}")

	g := NewYFGateway(api, Options{}, zaptest.NewLogger(t))
	snap, err := g.Fetch(context.Background(), Request{Tickers: []string{"AAA", "BBB", "ZZZZ"}, FxSymbol: "TWD=X"})
	require.NoError(t, err)

	assert.Len(t, snap.Series, 3)
	assert.Len(t, snap.Series["AAA"], 2)
	assert.Len(t, snap.Series["BBB"], 1)
	assert.Empty(t, snap.Series["ZZZZ"], "unknown ticker is an empty series")
	assert.Empty(t, snap.Failed)
	assert.Equal(t, 32.2, snap.Fx)
	assert.Empty(t, snap.Diagnostics)

	for _, o := range api.opts {
		assert.Equal(t, DefaultRange, o.Range)
		assert.Equal(t, DefaultInterval, o.Interval)
	}
}

func TestFetchSingleTicker(t *testing.T) {
	api := newFake()
	api.charts["AAA"] = chart("AAA", start, fp(10))
	g := NewYFGateway(api, Options{}, nil)

	snap, err := g.Fetch(context.Background(), Request{Tickers: []string{"AAA"}, Range: "1d", Interval: "5m"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA"}, keys(snap.Series))
	assert.Equal(t, "1d", api.opts[0].Range)
	assert.Equal(t, "5m", api.opts[0].Interval)
}

func keys(m map[string]types.PriceSeries) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestFetchRecordsTransportFailures(t *testing.T) {
	api := newFake()
	api.charts["AAA"] = chart("AAA", start, fp(10))
	api.errs["BBB"] = errors.New("connection reset by peer")
	g := NewYFGateway(api, Options{}, zaptest.NewLogger(t))

	snap, err := g.Fetch(context.Background(), Request{Tickers: []string{"AAA", "BBB"}})
	require.NoError(t, err)
	require.Contains(t, snap.Failed, "BBB")
	var fe *FetchError
	require.ErrorAs(t, snap.Failed["BBB"], &fe)
	assert.Equal(t, "BBB", fe.Ticker)
	assert.Empty(t, snap.Series["BBB"])
}

func TestFetchAllFailed(t *testing.T) {
	api := newFake()
	api.errs["AAA"] = errors.New("dial tcp: i/o timeout")
	g := NewYFGateway(api, Options{}, nil)

	snap, err := g.Fetch(context.Background(), Request{Tickers: []string{"AAA"}})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, snap.Failed, "AAA")
}

func TestFetchCancelled(t *testing.T) {
	g := NewYFGateway(newFake(), Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Fetch(ctx, Request{Tickers: []string{"AAA"}})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFxIsCachedAndFallsBack(t *testing.T) {
	api := newFake()
	api.charts["TWD=X"] = chart("TWD=X", start, fp(31.9))
	g := NewYFGateway(api, Options{FxFallback: 30}, nil)
	ctx := context.Background()

	snap, err := g.Fetch(ctx, Request{FxSymbol: "TWD=X"})
	require.NoError(t, err)
	assert.Equal(t, 31.9, snap.Fx)

	_, err = g.Fetch(ctx, Request{FxSymbol: "TWD=X"})
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls["TWD=X"], "second fetch served from cache")

	// no rate yet for this symbol
	snap, err = g.Fetch(ctx, Request{FxSymbol: "JPY=X"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, snap.Fx)
	require.Len(t, snap.Diagnostics, 1)
	assert.Equal(t, types.DiagFxFallback, snap.Diagnostics[0].Kind)
}

func TestFxCacheUsesLastKnownRate(t *testing.T) {
	fx := NewFxCache(time.Millisecond, DefaultFxFallback)
	fx.Set("TWD=X", 31.5)
	time.Sleep(5 * time.Millisecond)

	r, diag := fx.Get(context.Background(), "TWD=X", func(context.Context) (float64, error) {
		return 0, errors.New("timeout")
	})
	assert.Equal(t, 31.5, r)
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "last known")

	r, diag = fx.Get(context.Background(), "EUR=X", func(context.Context) (float64, error) {
		return -1, nil
	})
	assert.Equal(t, DefaultFxFallback, r)
	require.NotNil(t, diag)
	assert.Contains(t, diag.Message, "invalid rate")
}

func TestConcurrencyLimit(t *testing.T) {
	var inflight, peak int32
	api := &slowAPI{fakeAPI: newFake(), inflight: &inflight, peak: &peak}
	g := NewYFGateway(api, Options{Concurrency: 2}, nil)

	tickers := []string{"A", "B", "C", "D", "E", "F"}
	_, err := g.Fetch(context.Background(), Request{Tickers: tickers})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

type slowAPI struct {
	*fakeAPI
	inflight, peak *int32
}

func (s *slowAPI) ChartTyped(ctx context.Context, sym string, opts yfgo.ChartOptions) (yfgo.ChartResult, error) {
	n := atomic.AddInt32(s.inflight, 1)
	defer atomic.AddInt32(s.inflight, -1)
	for {
		p := atomic.LoadInt32(s.peak)
		if n <= p || atomic.CompareAndSwapInt32(s.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return chart(sym, start, fp(1)), nil
}

func TestNotFound(t *testing.T) {
	assert.True(t, notFound(errors.New("chart error: No data found, symbol may be delisted")))
	assert.True(t, notFound(errors.New("no chart data returned")))
	assert.False(t, notFound(errors.New("context deadline exceeded")))
	assert.False(t, notFound(nil))
}

func TestSeriesOneTicker(t *testing.T) {
	api := newFake()
	api.charts["AAA"] = chart("AAA", start, fp(10))
	api.errs["BAD"] = errors.New("connection reset")
	g := NewYFGateway(api, Options{}, zaptest.NewLogger(t))

	s, err := g.Series(context.Background(), "AAA", Request{Range: "1d"})
	require.NoError(t, err)
	assert.Len(t, s, 1)
	assert.Equal(t, "1d", api.opts[0].Range)
	assert.Equal(t, DefaultInterval, api.opts[0].Interval)

	s, err = g.Series(context.Background(), "NOPE", Request{})
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = g.Series(context.Background(), "BAD", Request{})
	assert.Error(t, err)
}
