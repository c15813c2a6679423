package holdings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/komsit37/pf/pkg/pf/types"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid holding input")

// InvalidInputError reports a malformed add-holding request.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid " + e.Field + " " + strconv.Quote(e.Value) + ": " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// Validate checks the numeric fields of a holding.
func Validate(shares, costBasis float64) error {
	if err := checkAmount("shares", shares); err != nil {
		return err
	}
	return checkAmount("cost", costBasis)
}

func checkAmount(field string, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return &InvalidInputError{Field: field, Value: fmt.Sprint(v), Reason: "not a finite number"}
	case v < 0:
		return &InvalidInputError{Field: field, Value: fmt.Sprint(v), Reason: "must not be negative"}
	}
	return nil
}

// ParseSpec parses "TICKER:SHARES:COST[:DOMAIN]", e.g. "NVDA:10:100:nvidia.com".
func ParseSpec(spec string) (types.Holding, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return types.Holding{}, &InvalidInputError{Field: "holding", Value: spec, Reason: "expected TICKER:SHARES:COST[:DOMAIN]"}
	}
	ticker := Normalize(parts[0])
	if ticker == "" {
		return types.Holding{}, &InvalidInputError{Field: "ticker", Value: parts[0], Reason: "empty"}
	}
	shares, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.Holding{}, &InvalidInputError{Field: "shares", Value: parts[1], Reason: "not a number"}
	}
	cost, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return types.Holding{}, &InvalidInputError{Field: "cost", Value: parts[2], Reason: "not a number"}
	}
	if err := Validate(shares, cost); err != nil {
		return types.Holding{}, err
	}
	h := types.Holding{Ticker: ticker, Shares: shares, CostBasis: cost}
	if len(parts) == 4 {
		h.Domain = strings.TrimSpace(parts[3])
	}
	return h, nil
}
