package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/pf/pkg/pf/types"
)

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, res types.Result, opts RenderOptions) error {
	return encode(w, res, opts.PrettyJSON)
}

// RenderDetail writes a detail view as JSON.
func (r *JSONRenderer) RenderDetail(w io.Writer, d types.Detail, opts RenderOptions) error {
	return encode(w, d, opts.PrettyJSON)
}

func encode(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
