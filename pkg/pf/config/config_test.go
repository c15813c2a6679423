package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/pf/pkg/pf/types"
	"github.com/komsit37/pf/pkg/pf/valuation"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "5d", cfg.Range)
	assert.Equal(t, "15m", cfg.Interval)
	assert.Equal(t, "TWD=X", cfg.FxSymbol)
	assert.Equal(t, 32.5, cfg.FxFallback)
	assert.Equal(t, time.Hour, cfg.FxCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, types.Base, cfg.DisplayCurrency())
	assert.Equal(t, valuation.ZeroFill, cfg.Policy())
	assert.Equal(t, []string{"ticker", "shares", "cost", "price", "value", "profit", "profit_pct"}, cfg.ColumnList())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
currency: quote
merge_policy: forward-fill
fetch_timeout: 3s
columns: [compact, weight]
holding: ["NVDA:10:100"]
`), 0o644))
	t.Setenv("PF_FX_SYMBOL", "JPY=X")
	t.Setenv("PF_CONCURRENCY", "8")

	v := viper.New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, types.Quote, cfg.DisplayCurrency())
	assert.Equal(t, valuation.ForwardFill, cfg.Policy())
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "JPY=X", cfg.FxSymbol)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, []string{"NVDA:10:100"}, cfg.Holdings)
	assert.Equal(t, []string{"ticker", "value", "profit_pct", "weight"}, cfg.ColumnList())

	mo := cfg.MarketOptions()
	assert.Equal(t, 8, mo.Concurrency)
	assert.Equal(t, "JPY=X", cfg.Request().FxSymbol)
}

func TestExpandColumns(t *testing.T) {
	assert.Equal(t, []string{"ticker", "value", "profit_pct", "logo"}, ExpandColumns([]string{"compact", "logo"}))
	assert.Equal(t, []string{"ticker", "price"}, ExpandColumns([]string{"ticker, price", "ticker"}))
}

func TestLoadMissingFile(t *testing.T) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(t.TempDir(), "none.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load(viper.New())
	require.NoError(t, err)

	tests := map[string]func(c *Config){
		"currency":    func(c *Config) { c.Currency = "eur" },
		"policy":      func(c *Config) { c.MergePolicy = "linear" },
		"timeout":     func(c *Config) { c.FetchTimeout = 0 },
		"concurrency": func(c *Config) { c.Concurrency = 0 },
		"fallback":    func(c *Config) { c.FxFallback = -1 },
		"fx symbol":   func(c *Config) { c.FxSymbol = " " },
		"rate":        func(c *Config) { c.RequestsPerSecond = -1 },
		"columns":     func(c *Config) { c.Columns = []string{"ticker", "pe"} },
		"quote":       func(c *Config) { c.QuoteCurrency = "" },
		"refresh":     func(c *Config) { c.RefreshEvery = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base
			mutate(&c)
			assert.Error(t, Validate(c))
		})
	}
}
