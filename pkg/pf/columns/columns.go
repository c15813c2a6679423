package columns

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/komsit37/pf/pkg/pf/types"
)

// Context carries per-render values that resolvers need beyond the row.
type Context struct {
	// Code is the display currency code, e.g. "USD".
	Code       string
	TotalValue float64
	// Logos maps ticker to logo URL; optional.
	Logos map[string]string
}

// Resolver converts a valuation row into the string shown for a column.
type Resolver func(r types.ValuationRow, c Context) string

// Registry maps column keys to resolvers.
var Registry = map[string]Resolver{}

// Headers maps column keys to table headers.
var Headers = map[string]string{}

// Signed lists columns whose value follows the sign of the row's profit.
var Signed = map[string]bool{"profit": true, "profit_pct": true}

// Numeric lists right-aligned columns.
var Numeric = map[string]bool{}

func register(key, header string, numeric bool, r Resolver) {
	Registry[key] = r
	Headers[key] = header
	if numeric {
		Numeric[key] = true
	}
}

func init() {
	register("ticker", "Ticker", false, func(r types.ValuationRow, _ Context) string { return r.Ticker })
	register("shares", "Shares", true, func(r types.ValuationRow, _ Context) string {
		return formatFloatComma(r.Shares, decimals(r.Shares))
	})
	register("cost", "Cost", true, func(r types.ValuationRow, c Context) string { return Money(r.CostBasis, c.Code) })
	register("price", "Price", true, func(r types.ValuationRow, c Context) string { return Money(r.Price, c.Code) })
	register("value", "Value", true, func(r types.ValuationRow, c Context) string { return Money(r.MarketValue, c.Code) })
	register("profit", "Profit", true, func(r types.ValuationRow, c Context) string { return Money(r.Profit, c.Code) })
	register("profit_pct", "Profit%", true, func(r types.ValuationRow, _ Context) string { return Percent(r.ProfitPercent) })
	register("weight", "Weight", true, func(r types.ValuationRow, c Context) string {
		if c.TotalValue == 0 {
			return Percent(0)
		}
		return fmt.Sprintf("%.1f%%", r.MarketValue/c.TotalValue*100)
	})
	register("logo", "Logo", false, func(r types.ValuationRow, c Context) string { return c.Logos[r.Ticker] })
}

// Validate reports the first unknown column.
func Validate(cols []string) error {
	for _, c := range cols {
		if _, ok := Registry[c]; !ok {
			return &UnknownColumnError{Name: c}
		}
	}
	return nil
}

// UnknownColumnError reports a column key with no resolver.
type UnknownColumnError struct {
	Name string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(Sets["full"], ", ")
}

// Compute returns the explicit columns deduplicated in order, or the
// default set when none are given.
func Compute(explicit []string) []string {
	if len(explicit) == 0 {
		return append([]string(nil), Sets["default"]...)
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))
	for _, k := range explicit {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Value calls the resolver for col.
func Value(col string, r types.ValuationRow, c Context) string {
	if res, ok := Registry[col]; ok {
		return res(r, c)
	}
	return ""
}

// Money formats v in the currency code using go-money's symbol and
// separators. Unknown codes fall back to two decimals with the code as suffix.
func Money(v float64, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		s := formatFloatComma(v, 2)
		if code == "" {
			return s
		}
		return s + " " + strings.ToUpper(code)
	}
	minor := int64(math.Round(v * math.Pow10(cur.Fraction)))
	return money.New(minor, cur.Code).Display()
}

// Percent formats a percentage with two decimals and an explicit sign.
func Percent(p float64) string {
	if p == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%+.2f%%", p)
}

// decimals is the number of fraction digits needed to show v, at most 4.
func decimals(v float64) int {
	s := strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		return len(s) - dot - 1
	}
	return 0
}

// formatFloatComma formats a float with a fixed number of decimals and comma separators.
func formatFloatComma(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + fracPart
}
