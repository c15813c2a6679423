package market

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/komsit37/pf/pkg/pf/types"
)

// DefaultFxFallback is the TWD per USD rate used when no rate has ever been
// fetched.
const DefaultFxFallback = 32.5

// FxCache holds FX rates for ttl so a rate is fetched at most once per ttl.
// The last good rate per symbol outlives ttl and backs failed refreshes.
type FxCache struct {
	c        *cache.Cache
	fallback float64
}

func NewFxCache(ttl time.Duration, fallback float64) *FxCache {
	return &FxCache{c: cache.New(ttl, 2*ttl), fallback: fallback}
}

// Get returns the rate for sym, calling fetch on a cache miss. The diagnostic
// is non-nil when the returned rate did not come from a fresh fetch or a
// fresh cache entry.
func (f *FxCache) Get(ctx context.Context, sym string, fetch func(context.Context) (float64, error)) (float64, *types.Diagnostic) {
	if v, ok := f.c.Get("rate:" + sym); ok {
		return v.(float64), nil
	}
	r, err := fetch(ctx)
	if err == nil && (math.IsNaN(r) || math.IsInf(r, 0) || r <= 0) {
		err = fmt.Errorf("invalid rate %v", r)
	}
	if err == nil {
		f.Set(sym, r)
		return r, nil
	}
	if v, ok := f.c.Get("last:" + sym); ok {
		r := v.(float64)
		return r, &types.Diagnostic{
			Ticker:  sym,
			Kind:    types.DiagFxFallback,
			Message: fmt.Sprintf("using last known rate %.4f: %v", r, err),
		}
	}
	return f.fallback, &types.Diagnostic{
		Ticker:  sym,
		Kind:    types.DiagFxFallback,
		Message: fmt.Sprintf("using fallback rate %.4f: %v", f.fallback, err),
	}
}

// Set stores a freshly fetched rate.
func (f *FxCache) Set(sym string, r float64) {
	f.c.Set("rate:"+sym, r, cache.DefaultExpiration)
	f.c.Set("last:"+sym, r, cache.NoExpiration)
}

