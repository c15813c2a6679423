package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/pf/pkg/pf/holdings"
	"github.com/komsit37/pf/pkg/pf/types"
)

// YAMLSource loads portfolios from a YAML file or a directory of them.
type YAMLSource struct{}

// Load expects spec to be a string filepath.
func (YAMLSource) Load(ctx context.Context, spec any) ([]Portfolio, error) { //nolint:revive // ctx reserved for future use
	path, ok := spec.(string)
	if !ok {
		return nil, fmt.Errorf("yaml source expects filepath string spec")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		p, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return []Portfolio{p}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []Portfolio
	for _, full := range files {
		p, err := loadFile(full)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", full, err)
		}
		if p.Name == "" {
			rel, err := filepath.Rel(path, full)
			if err != nil {
				rel = filepath.Base(full)
			}
			p.Name = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		}
		all = append(all, p)
	}
	return all, nil
}

func loadFile(path string) (Portfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Portfolio{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return Portfolio{}, err
	}
	return parseYAML(data)
}

// parseYAML reads the seed format:
//
//	name: core
//	columns: [ticker, value, profit_pct]
//	holdings:
//	  - ticker: NVDA
//	    shares: 10
//	    cost: 100
//	    domain: nvidia.com
//
// "sym" is accepted for "ticker".
func parseYAML(data []byte) (Portfolio, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Portfolio{}, err
	}
	if root == nil {
		return Portfolio{}, fmt.Errorf("invalid yaml: expected map with 'holdings'")
	}

	var p Portfolio
	if name, ok := root["name"]; ok && name != nil {
		p.Name = fmt.Sprint(name)
	}
	p.Columns = toStringSlice(root["columns"])

	node, ok := root["holdings"]
	if !ok {
		return Portfolio{}, fmt.Errorf("invalid yaml: missing 'holdings'")
	}
	list, ok := node.([]any)
	if !ok && node != nil {
		return Portfolio{}, fmt.Errorf("invalid yaml: 'holdings' must be a list")
	}
	for i, e := range list {
		h, err := toHolding(e)
		if err != nil {
			return Portfolio{}, fmt.Errorf("holding %d: %w", i+1, err)
		}
		p.Holdings = append(p.Holdings, h)
	}
	return p, nil
}

func toHolding(v any) (types.Holding, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.Holding{}, fmt.Errorf("expected map, got %T", v)
	}
	var h types.Holding
	for _, k := range []string{"ticker", "sym"} {
		if t, ok := m[k]; ok && t != nil {
			h.Ticker = holdings.Normalize(fmt.Sprint(t))
			break
		}
	}
	if h.Ticker == "" {
		return types.Holding{}, fmt.Errorf("missing ticker")
	}
	var err error
	if h.Shares, err = toFloat(m["shares"]); err != nil {
		return types.Holding{}, fmt.Errorf("%s shares: %w", h.Ticker, err)
	}
	if h.CostBasis, err = toFloat(m["cost"]); err != nil {
		return types.Holding{}, fmt.Errorf("%s cost: %w", h.Ticker, err)
	}
	if err := holdings.Validate(h.Shares, h.CostBasis); err != nil {
		return types.Holding{}, fmt.Errorf("%s: %w", h.Ticker, err)
	}
	if d, ok := m["domain"]; ok && d != nil {
		h.Domain = strings.TrimSpace(fmt.Sprint(d))
	}
	return h, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

func toStringSlice(v any) []string {
	s, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(s))
	for _, e := range s {
		if e == nil {
			continue
		}
		out = append(out, fmt.Sprint(e))
	}
	return out
}
