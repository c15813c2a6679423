package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/pf/pkg/pf/types"
)

// symsRenderer prints all valued tickers in a single comma-separated line.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, res types.Result, _ RenderOptions) error {
	symbols := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		symbols = append(symbols, r.Ticker)
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
