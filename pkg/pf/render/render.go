package render

import (
	"fmt"
	"io"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Renderer renders a valuation result to an output writer.
type Renderer interface {
	Render(w io.Writer, res types.Result, opts RenderOptions) error
}

type RenderOptions struct {
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	// Logos maps ticker to logo URL for the "logo" column.
	Logos map[string]string
	// Points caps the rows of a trend or detail table; 0 shows all.
	Points int
}

// New returns the renderer for an output name.
func New(output string) (Renderer, error) {
	switch output {
	case "", "table":
		return NewTableRenderer(), nil
	case "json":
		return NewJSONRenderer(), nil
	case "syms":
		return NewSymsRenderer(), nil
	case "trend":
		return NewTrendRenderer(), nil
	}
	return nil, fmt.Errorf("unknown output %q (allowed: table, json, syms, trend)", output)
}

// Warnings writes one line per diagnostic.
func Warnings(w io.Writer, diags []types.Diagnostic) {
	for _, d := range diags {
		if d.Ticker != "" {
			fmt.Fprintf(w, "warning: %s: %s (%s)\n", d.Ticker, d.Message, d.Kind)
			continue
		}
		fmt.Fprintf(w, "warning: %s (%s)\n", d.Message, d.Kind)
	}
}
