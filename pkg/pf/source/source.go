package source

import (
	"context"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Portfolio is one seed document: a named holdings list with an optional
// explicit column order.
type Portfolio struct {
	Name     string
	Columns  []string
	Holdings []types.Holding
}

// Source loads seed portfolios from a location such as a filepath.
type Source interface {
	Load(ctx context.Context, spec any) ([]Portfolio, error)
}

// Holdings flattens portfolios in order. Later entries for a ticker replace
// earlier ones when fed through holdings.Store.
func Holdings(ps []Portfolio) []types.Holding {
	var out []types.Holding
	for _, p := range ps {
		out = append(out, p.Holdings...)
	}
	return out
}

// Columns returns the first explicit column list, if any.
func Columns(ps []Portfolio) []string {
	for _, p := range ps {
		if len(p.Columns) > 0 {
			return p.Columns
		}
	}
	return nil
}
