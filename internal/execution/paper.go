package execution

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

// PaperExecutor simulates fills instead of submitting ledger transactions.
// Realized P&L follows the opportunity's estimate with a random fill ratio;
// a small fraction of trades slips into a loss.
type PaperExecutor struct {
	log *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPaperExecutor(seed int64, log *zap.Logger) *PaperExecutor {
	return &PaperExecutor{log: log, rng: rand.New(rand.NewSource(seed))}
}

func (p *PaperExecutor) ExecuteTrade(ctx context.Context, opp types.Opportunity, positionSize float64) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	p.mu.Lock()
	fill := 0.7 + p.rng.Float64()*0.3
	slipped := p.rng.Float64() < 0.1
	p.mu.Unlock()

	pnl := positionSize * opp.ProfitPct / 100 * fill
	if slipped {
		pnl = -positionSize * opp.EstimatedSlippage / 100
	}

	p.log.Info("paper fill",
		zap.String("pair", opp.Pair),
		zap.Float64("position_size", positionSize),
		zap.Float64("fill_ratio", fill),
		zap.Float64("pnl", pnl),
	)
	return pnl, pnl >= 0, nil
}
