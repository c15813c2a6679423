package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/pf/pkg/pf/types"
)

func TestEveryColumnInSetsIsRegistered(t *testing.T) {
	for name, cols := range Sets {
		assert.NoError(t, Validate(cols), name)
		for _, c := range cols {
			assert.NotEmpty(t, Headers[c], c)
		}
	}
}

func TestExpandSets(t *testing.T) {
	cols, err := ExpandSets([]string{"compact", "allocation"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "value", "profit_pct", "weight"}, cols)

	_, err = ExpandSets([]string{"nope"})
	var use *UnknownSetError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, []string{"allocation", "compact", "default", "full"}, use.Available)
}

func TestCompute(t *testing.T) {
	assert.Equal(t, Sets["default"], Compute(nil))
	assert.Equal(t, []string{"value", "ticker"}, Compute([]string{"value", " ticker", "value", ""}))
}

func TestValidate(t *testing.T) {
	err := Validate([]string{"ticker", "pe"})
	var uce *UnknownColumnError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "pe", uce.Name)
}

func TestValues(t *testing.T) {
	row := types.ValuationRow{
		Ticker: "AAA", Shares: 1234.5, CostBasis: 50, Price: 6,
		MarketValue: 60, Profit: 10, ProfitPercent: 20,
	}
	c := Context{Code: "USD", TotalValue: 240, Logos: map[string]string{"AAA": "https://logo.clearbit.com/aaa.com"}}

	assert.Equal(t, "AAA", Value("ticker", row, c))
	assert.Equal(t, "1,234.5", Value("shares", row, c))
	assert.Equal(t, "$60.00", Value("value", row, c))
	assert.Equal(t, "$50.00", Value("cost", row, c))
	assert.Equal(t, "+20.00%", Value("profit_pct", row, c))
	assert.Equal(t, "25.0%", Value("weight", row, c))
	assert.Equal(t, "https://logo.clearbit.com/aaa.com", Value("logo", row, c))
	assert.Equal(t, "", Value("missing", row, c))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,234.57", Money(1234.567, "usd"))
	assert.Equal(t, "1,234.50 XXY", Money(1234.5, "XXY"))
	assert.Equal(t, "12.00", Money(12, ""))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0.00%", Percent(0))
	assert.Equal(t, "-3.25%", Percent(-3.25))
}

func TestFormatFloatComma(t *testing.T) {
	assert.Equal(t, "-1,234,567.0", formatFloatComma(-1234567, 1))
	assert.Equal(t, "999", formatFloatComma(999, 0))
	assert.Equal(t, 0, decimals(30))
	assert.Equal(t, 3, decimals(45.498))
}
