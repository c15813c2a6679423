package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/pf/pkg/pf/holdings"
	"github.com/komsit37/pf/pkg/pf/types"
)

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.yaml")
	write(t, path, `
columns: [ticker, value]
holdings:
  - ticker: nvda
    shares: 10
    cost: 100.5
    domain: nvidia.com
  - sym: AAPL
    shares: "5"
    cost: 180
`)
	ps, err := YAMLSource{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "core", ps[0].Name)
	assert.Equal(t, []string{"ticker", "value"}, ps[0].Columns)
	assert.Equal(t, []types.Holding{
		{Ticker: "NVDA", Shares: 10, CostBasis: 100.5, Domain: "nvidia.com"},
		{Ticker: "AAPL", Shares: 5, CostBasis: 180},
	}, ps[0].Holdings)
}

func TestLoadDirLaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.yaml"), "holdings:\n  - {ticker: IONQ, shares: 30, cost: 45.498}\n  - {ticker: EOSE, shares: 100, cost: 11.747}\n")
	write(t, filepath.Join(dir, "sub", "b.yml"), "name: extra\nholdings:\n  - {ticker: IONQ, shares: 1, cost: 2}\n")
	write(t, filepath.Join(dir, "notes.txt"), "ignored")

	ps, err := YAMLSource{}.Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "a", ps[0].Name)
	assert.Equal(t, "extra", ps[1].Name)

	store := holdings.NewStore(Holdings(ps)...)
	assert.Equal(t, []string{"IONQ", "EOSE"}, store.Tickers())
	h, _ := store.Get("IONQ")
	assert.Equal(t, 1.0, h.Shares)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"missing.yaml":  "name: x\n",
		"negative.yaml": "holdings:\n  - {ticker: A, shares: -1, cost: 1}\n",
		"noticker.yaml": "holdings:\n  - {shares: 1, cost: 1}\n",
		"badnum.yaml":   "holdings:\n  - {ticker: A, shares: lots, cost: 1}\n",
		"notlist.yaml":  "holdings: {ticker: A}\n",
	}
	for name, body := range tests {
		path := filepath.Join(dir, name)
		write(t, path, body)
		_, err := YAMLSource{}.Load(context.Background(), path)
		assert.Error(t, err, name)
	}

	_, err := YAMLSource{}.Load(context.Background(), 42)
	assert.Error(t, err)
	_, err = YAMLSource{}.Load(context.Background(), filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestNegativeIsInvalidInput(t *testing.T) {
	_, err := parseYAML([]byte("holdings:\n  - {ticker: A, shares: 1, cost: -3}\n"))
	assert.ErrorIs(t, err, holdings.ErrInvalidInput)
}

func TestColumns(t *testing.T) {
	assert.Nil(t, Columns(nil))
	assert.Equal(t, []string{"x"}, Columns([]Portfolio{{}, {Columns: []string{"x"}}}))
}
