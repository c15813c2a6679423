package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Options tunes a YFGateway. Zero values take defaults.
type Options struct {
	// Timeout bounds each chart call.
	Timeout time.Duration
	// Concurrency caps in-flight chart calls.
	Concurrency int
	// RequestsPerSecond limits chart calls across the gateway; 0 disables.
	RequestsPerSecond float64
	FxFallback        float64
	FxTTL             time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.FxFallback <= 0 {
		o.FxFallback = DefaultFxFallback
	}
	if o.FxTTL <= 0 {
		o.FxTTL = time.Hour
	}
	return o
}

// YFGateway implements Gateway using yf-go charts.
type YFGateway struct {
	api     yfgo.API
	opts    Options
	limiter *rate.Limiter
	fx      *FxCache
	logger  *zap.Logger
}

// NewYFGateway wraps api. A nil api uses a default yf-go client.
func NewYFGateway(api yfgo.API, opts Options, logger *zap.Logger) *YFGateway {
	if api == nil {
		api = yfgo.NewClient()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	g := &YFGateway{
		api:    api,
		opts:   opts,
		fx:     NewFxCache(opts.FxTTL, opts.FxFallback),
		logger: logger,
	}
	if opts.RequestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Concurrency)
	}
	return g
}

// Fetch requests every ticker concurrently and the FX rate. Per-ticker
// failures are recorded in Snapshot.Failed and never abort the batch.
func (g *YFGateway) Fetch(ctx context.Context, req Request) (Snapshot, error) {
	req = req.withDefaults()
	snap := Snapshot{
		Series: make(map[string]types.PriceSeries, len(req.Tickers)),
		Failed: map[string]error{},
	}

	var mu sync.Mutex
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for _, t := range req.Tickers {
		eg.Go(func() error {
			series, err := g.series(ectx, t, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				snap.Series[t] = series
			case notFound(err):
				g.logger.Debug("no data for ticker", zap.String("ticker", t), zap.Error(err))
				snap.Series[t] = types.PriceSeries{}
			default:
				g.logger.Warn("fetch failed", zap.String("ticker", t), zap.Error(err))
				snap.Series[t] = types.PriceSeries{}
				snap.Failed[t] = &FetchError{Ticker: t, Err: err}
			}
			return nil
		})
	}

	var (
		fx     float64
		fxDiag *types.Diagnostic
	)
	if req.FxSymbol != "" {
		eg.Go(func() error {
			fx, fxDiag = g.fx.Get(ectx, req.FxSymbol, func(ctx context.Context) (float64, error) {
				s, err := g.series(ctx, req.FxSymbol, req)
				if err != nil {
					return 0, err
				}
				last, ok := s.Last()
				if !ok {
					return 0, fmt.Errorf("empty series for %s", req.FxSymbol)
				}
				return last.Close, nil
			})
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	snap.Fx = fx
	if fxDiag != nil {
		g.logger.Warn("fx fallback", zap.String("symbol", req.FxSymbol), zap.String("reason", fxDiag.Message))
		snap.Diagnostics = append(snap.Diagnostics, *fxDiag)
	}
	if len(req.Tickers) > 0 && len(snap.Failed) == len(req.Tickers) {
		return snap, fmt.Errorf("%w: all %d tickers failed", ErrUnavailable, len(req.Tickers))
	}
	return snap, nil
}

// Series fetches one ticker outside a refresh cycle.
func (g *YFGateway) Series(ctx context.Context, ticker string, req Request) (types.PriceSeries, error) {
	s, err := g.series(ctx, ticker, req.withDefaults())
	if notFound(err) {
		return types.PriceSeries{}, nil
	}
	return s, err
}

func (g *YFGateway) series(ctx context.Context, sym string, req Request) (types.PriceSeries, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	cctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	res, err := g.api.ChartTyped(cctx, sym, yfgo.ChartOptions{Range: req.Range, Interval: req.Interval})
	if err != nil {
		return nil, err
	}
	return SeriesFromChart(res), nil
}
