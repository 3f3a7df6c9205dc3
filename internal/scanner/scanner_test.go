package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

type fakeSource struct {
	opps []types.Opportunity
	err  error
}

func (f *fakeSource) Scan(context.Context, []string, float64) ([]types.Opportunity, error) {
	return f.opps, f.err
}

func (f *fakeSource) SupportedAssets(context.Context) ([]string, error) {
	return []string{"XLM", "USDC"}, nil
}

func newTestScanner(src MarketSource) *Scanner {
	return New(src, NewSynthetic(42), zap.NewNop())
}

func TestScan_SortsByProfitDescending(t *testing.T) {
	t0 := time.Now()
	src := &fakeSource{opps: []types.Opportunity{
		{Pair: "A", ProfitPct: 0.5, DiscoveredAt: t0},
		{Pair: "B", ProfitPct: 2.0, DiscoveredAt: t0},
		{Pair: "C", ProfitPct: 1.0, DiscoveredAt: t0},
	}}

	opps, err := newTestScanner(src).Scan(context.Background(), []string{"XLM"}, 0.5)
	require.NoError(t, err)
	require.Len(t, opps, 3)
	assert.Equal(t, "B", opps[0].Pair)
	assert.Equal(t, "C", opps[1].Pair)
	assert.Equal(t, "A", opps[2].Pair)
}

func TestScan_TiesBrokenByEarliestDiscovery(t *testing.T) {
	t0 := time.Now()
	src := &fakeSource{opps: []types.Opportunity{
		{Pair: "later", ProfitPct: 1.0, DiscoveredAt: t0.Add(time.Second)},
		{Pair: "earlier", ProfitPct: 1.0, DiscoveredAt: t0},
	}}

	opps, err := newTestScanner(src).Scan(context.Background(), []string{"XLM"}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "earlier", opps[0].Pair)
	assert.Equal(t, "later", opps[1].Pair)
}

func TestScan_EmptyResultIsNotAFailure(t *testing.T) {
	opps, err := newTestScanner(&fakeSource{}).Scan(context.Background(), []string{"XLM"}, 0.5)
	assert.NoError(t, err)
	assert.Empty(t, opps)
}

func TestScan_FallsBackToSyntheticOnError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}

	opps, err := newTestScanner(src).Scan(context.Background(), []string{"XLM", "USDC", "AQUA"}, 0.5)
	assert.Error(t, err, "the failure still counts even though synthetic opportunities are returned")
	require.NotEmpty(t, opps)
	for _, o := range opps {
		assert.Equal(t, types.SourceSynthetic, o.Source)
	}
}

func TestSynthetic_BoundedProfit(t *testing.T) {
	g := NewSynthetic(1)

	for i := 0; i < 100; i++ {
		opps := g.Generate([]string{"XLM", "USDC", "AQUA"})
		require.Len(t, opps, 2)
		for _, o := range opps {
			assert.GreaterOrEqual(t, o.ProfitPct, synthMinProfitPct)
			assert.LessOrEqual(t, o.ProfitPct, synthMaxProfitPct)
			assert.Greater(t, o.SellPrice, o.BuyPrice)
			assert.Equal(t, types.SourceSynthetic, o.Source)
		}
	}
}

func TestSynthetic_Deterministic(t *testing.T) {
	a := NewSynthetic(7).Generate([]string{"XLM", "USDC"})
	b := NewSynthetic(7).Generate([]string{"XLM", "USDC"})
	require.Len(t, a, 1)
	assert.Equal(t, a[0].ProfitPct, b[0].ProfitPct)
}

func TestSynthetic_DefaultPairWhenAssetsMissing(t *testing.T) {
	opps := NewSynthetic(3).Generate(nil)
	require.Len(t, opps, 1)
	assert.Equal(t, "AQUA/yUSDC", opps[0].Pair)
}
