package valuation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/komsit37/pf/pkg/pf/types"
)

// MergePolicy decides what a holding contributes at a timestamp where it has
// no sample.
type MergePolicy int

const (
	// ZeroFill counts a missing sample as 0. A portfolio whose series are not
	// aligned is under-counted at the misaligned timestamps.
	ZeroFill MergePolicy = iota
	// ForwardFill counts a missing sample as the holding's last known value,
	// and 0 before its first sample.
	ForwardFill
)

func (p MergePolicy) String() string {
	switch p {
	case ZeroFill:
		return "zero-fill"
	case ForwardFill:
		return "forward-fill"
	}
	return fmt.Sprintf("MergePolicy(%d)", int(p))
}

// ParseMergePolicy accepts "zero-fill" and "forward-fill".
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero-fill", "zero":
		return ZeroFill, nil
	case "forward-fill", "ffill":
		return ForwardFill, nil
	}
	return ZeroFill, fmt.Errorf("unknown merge policy %q (allowed: zero-fill, forward-fill)", s)
}

// SeriesValue scales each close by shares and rate.
func SeriesValue(series types.PriceSeries, shares, rate float64) []types.TrendPoint {
	out := make([]types.TrendPoint, 0, len(series))
	for _, s := range series {
		out = append(out, types.TrendPoint{Time: s.Time, Value: s.Close * shares * rate})
	}
	return out
}

// Merge outer-joins value series on timestamp and sums them. The result is
// sorted by time. Duplicate timestamps within one series are summed.
func Merge(series [][]types.TrendPoint, policy MergePolicy) []types.TrendPoint {
	// per-series lookup by unix nanos; times from different zones compare equal
	lookup := make([]map[int64]float64, len(series))
	union := map[int64]time.Time{}
	for i, s := range series {
		lookup[i] = make(map[int64]float64, len(s))
		for _, p := range s {
			k := p.Time.UnixNano()
			lookup[i][k] += p.Value
			if _, ok := union[k]; !ok {
				union[k] = p.Time
			}
		}
	}
	keys := make([]int64, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	out := make([]types.TrendPoint, 0, len(keys))
	last := make([]float64, len(series))
	for _, k := range keys {
		var sum float64
		for i := range series {
			v, ok := lookup[i][k]
			switch {
			case ok:
				last[i] = v
				sum += v
			case policy == ForwardFill:
				sum += last[i]
			}
		}
		out = append(out, types.TrendPoint{Time: union[k], Value: sum})
	}
	return out
}
