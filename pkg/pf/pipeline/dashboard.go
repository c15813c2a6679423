package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/komsit37/pf/pkg/pf/filter"
	"github.com/komsit37/pf/pkg/pf/holdings"
	"github.com/komsit37/pf/pkg/pf/logo"
	"github.com/komsit37/pf/pkg/pf/market"
	"github.com/komsit37/pf/pkg/pf/types"
	"github.com/komsit37/pf/pkg/pf/valuation"
)

var (
	// ErrNoResult is returned by queries before the first successful cycle.
	ErrNoResult = errors.New("no successful refresh yet")
	// ErrNoHolding is returned when a detail view names no known holding.
	ErrNoHolding = errors.New("no such holding")
)

// Options configures a Dashboard.
type Options struct {
	Request market.Request
	// QuoteCode is the ISO code of the quote currency, e.g. "TWD".
	QuoteCode    string
	Currency     types.Currency
	Policy       valuation.MergePolicy
	FetchTimeout time.Duration
	// Filter limits which holdings are valued; nil values all.
	Filter filter.Filter
}

// Dashboard drives refresh cycles over a holdings store and applies user
// actions. One cycle runs at a time; actions may run concurrently with it
// and are seen by the next cycle.
type Dashboard struct {
	store  *holdings.Store
	gw     market.Gateway
	logos  *logo.Resolver
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	cycle sync.Mutex

	mu       sync.RWMutex
	currency types.Currency
	detail   string
	snap     *market.Snapshot
	last     *types.Result
	lastErr  error
}

// NewDashboard wires a store to a gateway. logos may be nil.
func NewDashboard(store *holdings.Store, gw market.Gateway, logos *logo.Resolver, opts Options, logger *zap.Logger) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.QuoteCode == "" {
		opts.QuoteCode = "TWD"
	}
	if opts.Request.FxSymbol == "" {
		opts.Request.FxSymbol = market.DefaultFxSymbol
	}
	if opts.Currency == "" {
		opts.Currency = types.Base
	}
	return &Dashboard{
		store:    store,
		gw:       gw,
		logos:    logos,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		currency: opts.Currency,
	}
}

func (d *Dashboard) Store() *holdings.Store { return d.store }

// AddOrUpdateHolding validates and upserts a holding. An empty ticker is
// ignored.
func (d *Dashboard) AddOrUpdateHolding(ticker string, shares, cost float64, domain string) error {
	if err := holdings.Validate(shares, cost); err != nil {
		return err
	}
	if d.store.UpsertHolding(types.Holding{Ticker: ticker, Shares: shares, CostBasis: cost, Domain: domain}) {
		d.logger.Info("holding saved", zap.String("ticker", holdings.Normalize(ticker)),
			zap.Float64("shares", shares), zap.Float64("cost", cost))
	}
	return nil
}

func (d *Dashboard) RemoveHolding(ticker string) bool {
	ok := d.store.Remove(ticker)
	if ok {
		d.logger.Info("holding removed", zap.String("ticker", holdings.Normalize(ticker)))
	}
	return ok
}

// ResetPortfolio clears every holding. Defaults are not restored.
func (d *Dashboard) ResetPortfolio() {
	d.store.Reset()
	d.logger.Info("portfolio reset")
}

// SetDisplayCurrency switches the display currency for later results.
func (d *Dashboard) SetDisplayCurrency(c types.Currency) error {
	c, err := ParseCurrency(string(c))
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.currency = c
	d.mu.Unlock()
	return nil
}

// Currency returns the current display currency.
func (d *Dashboard) Currency() types.Currency {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currency
}

// SelectDetailTicker chooses the holding shown by Detail.
func (d *Dashboard) SelectDetailTicker(ticker string) {
	d.mu.Lock()
	d.detail = holdings.Normalize(ticker)
	d.mu.Unlock()
}

// TriggerRefresh runs a cycle now.
func (d *Dashboard) TriggerRefresh(ctx context.Context) (types.Result, error) {
	return d.Refresh(ctx)
}

// Refresh runs one cycle: snapshot the store, fetch, compute. On failure the
// previous result is kept and returned along with the error.
func (d *Dashboard) Refresh(ctx context.Context) (types.Result, error) {
	d.cycle.Lock()
	defer d.cycle.Unlock()

	hs := d.holdings()
	req := d.opts.Request
	req.Tickers = make([]string, 0, len(hs))
	for _, h := range hs {
		req.Tickers = append(req.Tickers, h.Ticker)
	}

	start := time.Now()
	fctx, cancel := context.WithTimeout(ctx, d.opts.FetchTimeout)
	snap, err := d.gw.Fetch(fctx, req)
	cancel()
	// A batch where every ticker failed still carries per-ticker errors;
	// Compute turns it into a ComputationError with diagnostics.
	if err != nil && len(snap.Failed) == 0 {
		return d.fail(fmt.Errorf("fetch: %w", err))
	}
	d.logger.Debug("fetched", zap.Int("tickers", len(req.Tickers)), zap.Duration("took", time.Since(start)))

	res, err := d.compute(hs, snap)
	if err != nil {
		return d.fail(err)
	}
	d.mu.Lock()
	d.snap = &snap
	d.last = &res
	d.lastErr = nil
	d.mu.Unlock()
	d.logger.Info("refreshed",
		zap.Int("rows", len(res.Rows)),
		zap.Float64("value", res.Totals.MarketValue),
		zap.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

// Recompute values the current holdings against the last fetched data
// without fetching. Holdings added since then show as empty series.
func (d *Dashboard) Recompute() (types.Result, error) {
	d.cycle.Lock()
	defer d.cycle.Unlock()

	d.mu.RLock()
	snap := d.snap
	d.mu.RUnlock()
	if snap == nil {
		return types.Result{}, ErrNoResult
	}
	res, err := d.compute(d.holdings(), *snap)
	if err != nil {
		return d.fail(err)
	}
	d.mu.Lock()
	d.last = &res
	d.mu.Unlock()
	return res, nil
}

func (d *Dashboard) holdings() []types.Holding {
	hs := d.store.List()
	if d.opts.Filter != nil {
		hs = filter.Apply(d.opts.Filter, hs)
	}
	return hs
}

func (d *Dashboard) compute(hs []types.Holding, snap market.Snapshot) (types.Result, error) {
	cur := d.Currency()
	res, err := valuation.Compute(valuation.Input{
		Holdings: hs,
		Prices:   snap.Series,
		Failed:   snap.Failed,
		Fx:       snap.Fx,
		Currency: cur,
		Code:     d.code(cur),
		Policy:   d.opts.Policy,
		Now:      d.now(),
	})
	if err != nil {
		return types.Result{}, err
	}
	res.Diagnostics = append(res.Diagnostics, snap.Diagnostics...)
	return res, nil
}

func (d *Dashboard) fail(err error) (types.Result, error) {
	d.mu.Lock()
	d.lastErr = err
	last := d.last
	d.mu.Unlock()
	d.logger.Warn("refresh failed, keeping previous result", zap.Error(err))
	if last != nil {
		return *last, err
	}
	return types.Result{}, err
}

func (d *Dashboard) code(c types.Currency) string {
	if c == types.Quote {
		return strings.ToUpper(d.opts.QuoteCode)
	}
	return "USD"
}

// Last returns the latest successful result.
func (d *Dashboard) Last() (types.Result, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return types.Result{}, false
	}
	return *d.last, true
}

// LastError returns the error of the latest cycle, nil if it succeeded.
func (d *Dashboard) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// Detail returns the OHLC view of the selected holding from the last fetched
// data, or of the first holding when none is selected.
func (d *Dashboard) Detail(ctx context.Context) (types.Detail, error) {
	d.mu.RLock()
	ticker, snap, cur := d.detail, d.snap, d.currency
	d.mu.RUnlock()

	if ticker == "" {
		if hs := d.holdings(); len(hs) > 0 {
			ticker = hs[0].Ticker
		}
	}
	h, ok := d.store.Get(ticker)
	if !ok {
		return types.Detail{}, fmt.Errorf("%w: %q", ErrNoHolding, ticker)
	}
	if d.opts.Filter != nil && !d.opts.Filter.Match(h.Ticker) {
		return types.Detail{}, fmt.Errorf("%w: %q is excluded by the filter", ErrNoHolding, h.Ticker)
	}
	if snap == nil {
		return types.Detail{}, ErrNoResult
	}
	rate := 1.0
	if cur == types.Quote {
		rate = snap.Fx
	}
	code := d.code(cur)
	out := types.Detail{
		Ticker:   h.Ticker,
		Currency: code,
		Symbol:   valuation.Symbol(code),
		Samples:  valuation.Detail(snap.Series[h.Ticker], rate),
	}
	if d.logos != nil {
		out.Logo = d.logos.Resolve(ctx, h)
	}
	return out, nil
}

// Logos resolves logo URLs for every holding.
func (d *Dashboard) Logos(ctx context.Context) map[string]string {
	out := map[string]string{}
	if d.logos == nil {
		return out
	}
	for _, h := range d.store.List() {
		out[h.Ticker] = d.logos.Resolve(ctx, h)
	}
	return out
}

// Logo resolves the logo URL of one holding.
func (d *Dashboard) Logo(ctx context.Context, ticker string) (string, error) {
	h, ok := d.store.Get(ticker)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoHolding, holdings.Normalize(ticker))
	}
	if d.logos == nil {
		return logo.Avatar(h.Ticker), nil
	}
	return d.logos.Resolve(ctx, h), nil
}

// Watch refreshes immediately and then every interval until ctx is done.
// onCycle, when set, receives each cycle's outcome.
func (d *Dashboard) Watch(ctx context.Context, interval time.Duration, onCycle func(types.Result, error)) error {
	if interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", interval)
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		res, err := d.Refresh(ctx)
		if onCycle != nil {
			onCycle(res, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// ParseCurrency accepts "usd"/"base" and "quote" or a quote code such as "twd".
func ParseCurrency(s string) (types.Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "usd", "base":
		return types.Base, nil
	case "quote", "local", "twd":
		return types.Quote, nil
	}
	return "", fmt.Errorf("unknown currency %q (allowed: usd, quote)", s)
}
