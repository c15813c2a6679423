// Package logo resolves a display logo URL for a holding. Resolution never
// fails: when no company domain can be found a generated avatar is used.
package logo

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	yfgo "github.com/komsit37/yf-go"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/komsit37/pf/pkg/pf/types"
)

const (
	LogoBase   = "https://logo.clearbit.com/"
	AvatarBase = "https://ui-avatars.com/api/"
)

var errNoWebsite = errors.New("no website in asset profile")

// Options tunes a Resolver. Zero values take defaults.
type Options struct {
	Timeout  time.Duration
	MaxTries uint
	// RetryDelay is the initial backoff between lookups.
	RetryDelay time.Duration
	TTL        time.Duration
}

// Resolver maps holdings to logo URLs, looking up company websites through
// yf-go when the holding carries no domain.
type Resolver struct {
	api    yfgo.API
	opts   Options
	cache  *cache.Cache
	logger *zap.Logger
}

func NewResolver(api yfgo.API, opts Options, logger *zap.Logger) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{api: api, opts: opts, cache: cache.New(opts.TTL, time.Hour), logger: logger}
}

// Resolve returns the logo URL for h.
func (r *Resolver) Resolve(ctx context.Context, h types.Holding) string {
	key := h.Ticker + "|" + h.Domain
	if v, ok := r.cache.Get(key); ok {
		return v.(string)
	}
	domain := Host(h.Domain)
	if domain == "" && r.api != nil {
		site, err := r.website(ctx, h.Ticker)
		if err != nil {
			r.logger.Debug("logo lookup failed", zap.String("ticker", h.Ticker), zap.Error(err))
		}
		domain = Host(site)
	}
	u := Avatar(h.Ticker)
	if domain != "" {
		u = LogoBase + domain
	}
	if ctx.Err() == nil {
		r.cache.Set(key, u, cache.DefaultExpiration)
	}
	return u
}

func (r *Resolver) website(ctx context.Context, ticker string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.opts.RetryDelay
	b.MaxInterval = r.opts.RetryDelay * 10

	op := func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
		res, err := r.api.QuoteSummaryTyped(cctx, ticker, []yfgo.QuoteSummaryModule{yfgo.ModuleAssetProfile})
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(ctx.Err())
			}
			return "", err
		}
		if res.AssetProfile == nil || res.AssetProfile.Website == "" {
			return "", backoff.Permanent(errNoWebsite)
		}
		return res.AssetProfile.Website, nil
	}
	notify := func(err error, d time.Duration) {
		r.logger.Debug("retrying asset profile", zap.String("ticker", ticker), zap.Error(err), zap.Duration("backoff", d))
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.opts.MaxTries),
		backoff.WithNotify(notify))
}

// Host reduces a website or domain to a bare host name without "www.".
func Host(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Avatar is the generated placeholder image for a ticker.
func Avatar(ticker string) string {
	q := url.Values{}
	q.Set("name", ticker)
	q.Set("background", "random")
	q.Set("color", "fff")
	return AvatarBase + "?" + q.Encode()
}
