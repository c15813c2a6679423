package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/komsit37/pf/pkg/pf/columns"
	"github.com/komsit37/pf/pkg/pf/market"
	"github.com/komsit37/pf/pkg/pf/pipeline"
	"github.com/komsit37/pf/pkg/pf/types"
	"github.com/komsit37/pf/pkg/pf/valuation"
)

// EnvPrefix prefixes every environment override, e.g. PF_FX_SYMBOL.
const EnvPrefix = "PF"

type Config struct {
	File              string        `mapstructure:"file"`
	Holdings          []string      `mapstructure:"holding"`
	Range             string        `mapstructure:"range"`
	Interval          string        `mapstructure:"interval"`
	FxSymbol          string        `mapstructure:"fx_symbol"`
	QuoteCurrency     string        `mapstructure:"quote_currency"`
	Currency          string        `mapstructure:"currency"`
	MergePolicy       string        `mapstructure:"merge_policy"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	FxFallback        float64       `mapstructure:"fx_fallback"`
	FxCacheTTL        time.Duration `mapstructure:"fx_cache_ttl"`
	LogoCacheTTL      time.Duration `mapstructure:"logo_cache_ttl"`
	RefreshEvery      time.Duration `mapstructure:"refresh_every"`
	Addr              string        `mapstructure:"addr"`
	APIRateLimit      float64       `mapstructure:"api_rate_limit"`
	LogLevel          string        `mapstructure:"log_level"`
	Columns           []string      `mapstructure:"columns"`
	Filter            string        `mapstructure:"filter"`
	MaxColWidth       int           `mapstructure:"max_col_width"`
	Color             bool          `mapstructure:"color"`
}

// Defaults holds the value of every key before files, env and flags apply.
var Defaults = map[string]any{
	"file":                "",
	"holding":             []string{},
	"range":               market.DefaultRange,
	"interval":            market.DefaultInterval,
	"fx_symbol":           market.DefaultFxSymbol,
	"quote_currency":      "TWD",
	"currency":            "usd",
	"merge_policy":        "zero-fill",
	"fetch_timeout":       10 * time.Second,
	"request_timeout":     5 * time.Second,
	"concurrency":         4,
	"requests_per_second": 4.0,
	"fx_fallback":         market.DefaultFxFallback,
	"fx_cache_ttl":        time.Hour,
	"logo_cache_ttl":      24 * time.Hour,
	"refresh_every":       time.Minute,
	"addr":                ":8080",
	"api_rate_limit":      10.0,
	"log_level":           "info",
	"columns":             []string{},
	"filter":              "",
	"max_col_width":       40,
	"color":               true,
}

// Load reads v into a Config. When v has a config file set it is read
// first; PF_* environment variables and bound flags override it.
func Load(v *viper.Viper) (Config, error) {
	for key, value := range Defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.FxSymbol) == "" {
		return errors.New("fx_symbol is empty")
	}
	if strings.TrimSpace(cfg.QuoteCurrency) == "" {
		return errors.New("quote_currency is empty")
	}
	if _, err := pipeline.ParseCurrency(cfg.Currency); err != nil {
		return err
	}
	if _, err := valuation.ParseMergePolicy(cfg.MergePolicy); err != nil {
		return err
	}
	for name, d := range map[string]time.Duration{
		"fetch_timeout":   cfg.FetchTimeout,
		"request_timeout": cfg.RequestTimeout,
		"fx_cache_ttl":    cfg.FxCacheTTL,
		"logo_cache_ttl":  cfg.LogoCacheTTL,
		"refresh_every":   cfg.RefreshEvery,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s: %s", name, d)
		}
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("invalid concurrency: %d", cfg.Concurrency)
	}
	if cfg.RequestsPerSecond < 0 || cfg.APIRateLimit < 0 {
		return errors.New("rate limits must not be negative")
	}
	if math.IsNaN(cfg.FxFallback) || math.IsInf(cfg.FxFallback, 0) || cfg.FxFallback <= 0 {
		return fmt.Errorf("invalid fx_fallback: %v", cfg.FxFallback)
	}
	if len(cfg.Columns) > 0 {
		if err := columns.Validate(ExpandColumns(cfg.Columns)); err != nil {
			return err
		}
	}
	return nil
}

// DisplayCurrency is the parsed currency setting.
func (c Config) DisplayCurrency() types.Currency {
	cur, _ := pipeline.ParseCurrency(c.Currency)
	return cur
}

// Policy is the parsed merge policy setting.
func (c Config) Policy() valuation.MergePolicy {
	p, _ := valuation.ParseMergePolicy(c.MergePolicy)
	return p
}

// ColumnList expands column set names, e.g. "compact", into columns.
func (c Config) ColumnList() []string {
	return ExpandColumns(c.Columns)
}

// ExpandColumns splits comma lists and replaces set names with their columns.
func ExpandColumns(in []string) []string {
	var out []string
	for _, c := range in {
		for _, part := range strings.Split(c, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := columns.Sets[part]; ok {
				set, _ := columns.ExpandSets([]string{part})
				out = append(out, set...)
				continue
			}
			out = append(out, part)
		}
	}
	return columns.Compute(out)
}

// Request builds the market request template.
func (c Config) Request() market.Request {
	return market.Request{FxSymbol: c.FxSymbol, Range: c.Range, Interval: c.Interval}
}

// MarketOptions builds gateway options.
func (c Config) MarketOptions() market.Options {
	return market.Options{
		Timeout:           c.RequestTimeout,
		Concurrency:       c.Concurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		FxFallback:        c.FxFallback,
		FxTTL:             c.FxCacheTTL,
	}
}
