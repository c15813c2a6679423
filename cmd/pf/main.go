package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/pf/pkg/pf/columns"
	"github.com/komsit37/pf/pkg/pf/config"
	"github.com/komsit37/pf/pkg/pf/filter"
	"github.com/komsit37/pf/pkg/pf/holdings"
	"github.com/komsit37/pf/pkg/pf/logging"
	"github.com/komsit37/pf/pkg/pf/logo"
	"github.com/komsit37/pf/pkg/pf/market"
	"github.com/komsit37/pf/pkg/pf/pipeline"
	"github.com/komsit37/pf/pkg/pf/source"
	"github.com/komsit37/pf/pkg/pf/types"
)

// app is what every command needs once flags and config are resolved.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	d       *pipeline.Dashboard
	columns []string
}

func main() {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "pf",
		Short:         "Value a stock portfolio against live market data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml)")
	pf.String("file", "", "portfolio YAML file or directory")
	pf.StringArray("holding", nil, "holding as TICKER:SHARES:COST[:DOMAIN] (repeatable)")
	pf.String("currency", "usd", "display currency: usd|quote")
	pf.String("merge-policy", "zero-fill", "trend merge policy: zero-fill|forward-fill")
	pf.String("range", market.DefaultRange, "price history range")
	pf.String("interval", market.DefaultInterval, "price history interval")
	pf.Bool("color", true, "colorize output")
	pf.String("log-level", "info", "log level")
	pf.StringSlice("columns", nil, "columns or column sets, comma separated")
	pf.String("filter", "", "ticker filter: substring, glob, /regex/ or comma list")
	for key, flag := range map[string]string{
		"file":         "file",
		"holding":      "holding",
		"currency":     "currency",
		"merge_policy": "merge-policy",
		"range":        "range",
		"interval":     "interval",
		"color":        "color",
		"log_level":    "log-level",
		"columns":      "columns",
		"filter":       "filter",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	setup := func(cmd *cobra.Command, jsonLogs bool) (*app, error) {
		return newApp(cmd.Context(), v, jsonLogs)
	}
	rootCmd.AddCommand(
		valueCmd(setup),
		trendCmd(setup),
		detailCmd(setup),
		watchCmd(v, setup),
		serveCmd(v, setup),
		symsCmd(setup),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, v *viper.Viper, jsonLogs bool) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, jsonLogs, nil)
	if err != nil {
		return nil, err
	}

	seed, fileColumns, err := loadHoldings(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var f filter.Filter
	if cfg.Filter != "" {
		if f, err = filter.Parse(cfg.Filter); err != nil {
			return nil, err
		}
	}

	api := yfgo.NewClient()
	gw := market.NewYFGateway(api, cfg.MarketOptions(), logging.WithComponent(logger, "market"))
	logos := logo.NewResolver(api, logo.Options{TTL: cfg.LogoCacheTTL, Timeout: cfg.RequestTimeout}, logging.WithComponent(logger, "logo"))
	d := pipeline.NewDashboard(holdings.NewStore(seed...), gw, logos, pipeline.Options{
		Request:      cfg.Request(),
		QuoteCode:    cfg.QuoteCurrency,
		Currency:     cfg.DisplayCurrency(),
		Policy:       cfg.Policy(),
		FetchTimeout: cfg.FetchTimeout,
		Filter:       f,
	}, logging.WithComponent(logger, "dashboard"))

	cols := cfg.ColumnList()
	if len(cfg.Columns) == 0 && len(fileColumns) > 0 {
		cols = config.ExpandColumns(fileColumns)
		if err := columns.Validate(cols); err != nil {
			return nil, err
		}
	}
	return &app{cfg: cfg, logger: logger, d: d, columns: cols}, nil
}

// loadHoldings picks the starting holdings: --holding flags, then the
// portfolio file, then the built-in defaults.
func loadHoldings(ctx context.Context, cfg config.Config) ([]types.Holding, []string, error) {
	if len(cfg.Holdings) > 0 {
		out := make([]types.Holding, 0, len(cfg.Holdings))
		for _, spec := range cfg.Holdings {
			h, err := holdings.ParseSpec(spec)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, h)
		}
		return out, nil, nil
	}
	if cfg.File != "" {
		var src source.Source = source.YAMLSource{}
		ps, err := src.Load(ctx, cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return source.Holdings(ps), source.Columns(ps), nil
	}
	return holdings.Defaults(), nil, nil
}
