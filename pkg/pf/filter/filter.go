package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Filter matches a ticker.
type Filter interface {
	Match(ticker string) bool
}

// Parse builds a filter from an expression:
// - Comma-separated exact tickers: "NVDA,AAPL"
// - Glob: "IO*"
// - Regex: "/^E/"
// - Anything else: case-insensitive substring
//
// Exact and glob matching ignore case; tickers are stored upper-case.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			set[p] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		pattern := strings.ToUpper(expr)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: pattern}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Apply keeps the holdings whose ticker matches f, preserving order.
func Apply(f Filter, hs []types.Holding) []types.Holding {
	out := make([]types.Holding, 0, len(hs))
	for _, h := range hs {
		if f.Match(h.Ticker) {
			out = append(out, h)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(ticker string) bool {
	_, ok := e.set[strings.ToUpper(ticker)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(ticker string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(ticker))
	return ok
}

func (g Glob) String() string { return fmt.Sprintf("glob:%s", g.pattern) }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(ticker string) bool { return r.re.MatchString(ticker) }

// SubstrCI matches if ticker contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(ticker string) bool {
	return strings.Contains(strings.ToLower(ticker), strings.ToLower(s.needle))
}

func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
