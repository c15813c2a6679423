package pipeline

import (
	"context"
	"io"

	"github.com/komsit37/pf/pkg/pf/columns"
	"github.com/komsit37/pf/pkg/pf/render"
	"github.com/komsit37/pf/pkg/pf/types"
)

// Runner renders one dashboard cycle.
type Runner struct {
	Dashboard *Dashboard
	Renderer  render.Renderer
	Writer    io.Writer
}

type ExecuteOptions struct {
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	Points      int
}

// Execute refreshes and renders. A failed refresh with a previous result
// renders that result with the failure as a diagnostic.
func (r *Runner) Execute(ctx context.Context, opts ExecuteOptions) error {
	res, err := r.Dashboard.Refresh(ctx)
	if err != nil {
		if _, ok := r.Dashboard.Last(); !ok {
			return err
		}
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{Kind: types.DiagFetchFailure, Message: "stale result: " + err.Error()})
	}
	return r.Render(ctx, res, opts)
}

// Render renders res, resolving logos when a logo column is requested.
func (r *Runner) Render(ctx context.Context, res types.Result, opts ExecuteOptions) error {
	ro := render.RenderOptions{
		Columns:     opts.Columns,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
		Points:      opts.Points,
	}
	for _, c := range columns.Compute(opts.Columns) {
		if c == "logo" {
			ro.Logos = r.Dashboard.Logos(ctx)
			break
		}
	}
	return r.Renderer.Render(r.Writer, res, ro)
}
