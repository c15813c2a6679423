package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/komsit37/pf/pkg/pf/filter"
	"github.com/komsit37/pf/pkg/pf/pipeline"
	"github.com/komsit37/pf/pkg/pf/render"
	"github.com/komsit37/pf/pkg/pf/server"
	"github.com/komsit37/pf/pkg/pf/types"
)

type setupFunc func(cmd *cobra.Command, jsonLogs bool) (*app, error)

func (a *app) executeOptions(pretty bool, points int) pipeline.ExecuteOptions {
	return pipeline.ExecuteOptions{
		Columns:     a.columns,
		Color:       a.cfg.Color,
		PrettyJSON:  pretty,
		MaxColWidth: maxColWidth(a.cfg.MaxColWidth, len(a.columns)),
		Points:      points,
	}
}

// maxColWidth narrows columns to fit the terminal when its width is known.
func maxColWidth(configured, ncols int) int {
	width := detectTerminalWidth()
	if width <= 0 || ncols == 0 {
		return configured
	}
	per := width / ncols
	if per < 8 {
		per = 8
	}
	if configured > 0 && configured < per {
		return configured
	}
	return per
}

func valueCmd(setup setupFunc) *cobra.Command {
	var output string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "value",
		Short: "Fetch prices and print the valuation table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := render.New(output)
			if err != nil {
				return err
			}
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			runner := &pipeline.Runner{Dashboard: a.d, Renderer: r, Writer: cmd.OutOrStdout()}
			return runner.Execute(cmd.Context(), a.executeOptions(pretty, 0))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json|syms")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}

func trendCmd(setup setupFunc) *cobra.Command {
	var points int
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Print the merged portfolio value over time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			runner := &pipeline.Runner{Dashboard: a.d, Renderer: render.NewTrendRenderer(), Writer: cmd.OutOrStdout()}
			return runner.Execute(cmd.Context(), a.executeOptions(false, points))
		},
	}
	cmd.Flags().IntVar(&points, "points", 20, "max rows in the trend table, 0 for all")
	return cmd
}

func detailCmd(setup setupFunc) *cobra.Command {
	var output string
	var points int
	cmd := &cobra.Command{
		Use:   "detail [ticker]",
		Short: "Print the OHLC history of one holding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			if len(args) == 1 {
				a.d.SelectDetailTicker(args[0])
			}
			if _, err := a.d.Refresh(cmd.Context()); err != nil {
				return err
			}
			d, err := a.d.Detail(cmd.Context())
			if err != nil {
				return err
			}
			opts := render.RenderOptions{Color: a.cfg.Color, Points: points}
			switch output {
			case "table":
				return render.NewDetailRenderer().RenderDetail(cmd.OutOrStdout(), d, opts)
			case "json":
				return render.NewJSONRenderer().RenderDetail(cmd.OutOrStdout(), d, opts)
			}
			return fmt.Errorf("unknown output %q (allowed: table, json)", output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json")
	cmd.Flags().IntVar(&points, "points", 20, "max rows in the OHLC table, 0 for all")
	return cmd
}

func watchCmd(v *viper.Viper, setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the valuation table on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			out := cmd.OutOrStdout()
			runner := &pipeline.Runner{Dashboard: a.d, Renderer: render.NewTableRenderer(), Writer: out}
			opts := a.executeOptions(false, 0)
			err = a.d.Watch(cmd.Context(), a.cfg.RefreshEvery, func(res types.Result, err error) {
				if err != nil {
					if _, ok := a.d.Last(); !ok {
						fmt.Fprintln(out, "refresh failed:", err)
						return
					}
					res.Diagnostics = append(res.Diagnostics, types.Diagnostic{Kind: types.DiagFetchFailure, Message: "stale result: " + err.Error()})
				}
				clearScreen(out, a.cfg.Color)
				fmt.Fprintf(out, "%s  every %s\n\n", time.Now().Format("15:04:05"), a.cfg.RefreshEvery)
				if rerr := runner.Render(cmd.Context(), res, opts); rerr != nil {
					a.logger.Warn("render failed", zap.Error(rerr))
				}
			})
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("every", time.Minute, "refresh interval")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		_ = v.BindPFlag("refresh_every", cmd.Flags().Lookup("every"))
	}
	return cmd
}

func clearScreen(w io.Writer, ansi bool) {
	if ansi {
		fmt.Fprint(w, "\033[H\033[2J")
	}
}

func serveCmd(v *viper.Viper, setup setupFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			srv := server.New(a.d, server.Options{
				Addr:              a.cfg.Addr,
				RequestsPerSecond: a.cfg.APIRateLimit,
				RefreshEvery:      a.cfg.RefreshEvery,
			}, a.logger.Named("http"))
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Duration("every", time.Minute, "background refresh interval")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		_ = v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
		_ = v.BindPFlag("refresh_every", cmd.Flags().Lookup("every"))
	}
	return cmd
}

// symsCmd lists the tickers that would be valued, without fetching.
func symsCmd(setup setupFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "syms",
		Short: "Print the portfolio tickers, comma separated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, false)
			if err != nil {
				return err
			}
			hs := a.d.Store().List()
			if a.cfg.Filter != "" {
				f, err := filter.Parse(a.cfg.Filter)
				if err != nil {
					return err
				}
				hs = filter.Apply(f, hs)
			}
			tickers := make([]string, 0, len(hs))
			for _, h := range hs {
				tickers = append(tickers, h.Ticker)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tickers, ","))
			return err
		},
	}
}
