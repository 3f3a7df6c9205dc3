package scanner

import (
	"math/rand"
	"time"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

const (
	synthMinProfitPct = 0.1
	synthMaxProfitPct = 2.5
	synthBasePrice    = 0.015
	synthAmount       = 100.0
)

// Synthetic is the lower-fidelity fallback generator. Profit percentages
// are drawn from a bounded range off a seeded source, so tests and degraded
// runs are reproducible.
type Synthetic struct {
	rng *rand.Rand
}

func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces one opportunity per adjacent asset pair. All records
// carry the synthetic source tag.
func (g *Synthetic) Generate(assets []string) []types.Opportunity {
	if len(assets) < 2 {
		assets = []string{"AQUA", "yUSDC"}
	}
	now := time.Now()
	out := make([]types.Opportunity, 0, len(assets)-1)
	for i := 0; i+1 < len(assets); i++ {
		profitPct := synthMinProfitPct + g.rng.Float64()*(synthMaxProfitPct-synthMinProfitPct)
		buy := synthBasePrice
		sell := buy * (1 + profitPct/100)
		out = append(out, types.Opportunity{
			Pair:              assets[i] + "/" + assets[i+1],
			BuyVenue:          "Stellar DEX",
			SellVenue:         "Reflector",
			BuyPrice:          buy,
			SellPrice:         sell,
			ProfitPct:         profitPct,
			EstimatedProfit:   (sell - buy) * synthAmount,
			EstimatedSlippage: g.rng.Float64(),
			Source:            types.SourceSynthetic,
			DiscoveredAt:      now,
		})
	}
	return out
}
