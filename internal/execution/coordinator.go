package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

// TradeExecutor is the external collaborator that actually moves funds.
type TradeExecutor interface {
	ExecuteTrade(ctx context.Context, opp types.Opportunity, positionSize float64) (pnl float64, success bool, err error)
}

// Ledger persists terminal trade records. Fire-and-forget: failures are
// logged, never fatal to the loop.
type Ledger interface {
	RecordTrade(ctx context.Context, tr types.TradeRecord) error
}

type riskGate interface {
	RecordTradeStart(id string, positionSize float64, opp types.Opportunity) error
	RecordTradeEnd(id string, pnl float64, success bool) (types.TradeRecord, bool)
}

type Outcome struct {
	TradeID string
	PnL     float64
	Success bool
	Err     error
}

// Coordinator sequences one trade lifecycle: open the record, run the
// executor, close the record, then persist.
type Coordinator struct {
	exec   TradeExecutor
	ledger Ledger
	risk   riskGate
	log    *zap.Logger
}

func NewCoordinator(exec TradeExecutor, ledger Ledger, risk riskGate, log *zap.Logger) *Coordinator {
	return &Coordinator{exec: exec, ledger: ledger, risk: risk, log: log}
}

// Execute runs one approved opportunity. Completion bookkeeping runs even
// when the executor fails: the trade always leaves the active set with a
// terminal record, defaulting to pnl 0 / failed unless a more specific
// loss is known.
func (c *Coordinator) Execute(ctx context.Context, opp types.Opportunity, as risk.Assessment) Outcome {
	id := uuid.NewString()

	if err := c.risk.RecordTradeStart(id, as.RecommendedPositionSize, opp); err != nil {
		c.log.Warn("trade refused by risk state", zap.String("trade_id", id), zap.Error(err))
		return Outcome{TradeID: id, Err: err}
	}

	pnl, success, err := c.exec.ExecuteTrade(ctx, opp, as.RecommendedPositionSize)
	if err != nil {
		c.log.Error("trade execution failed",
			zap.String("trade_id", id),
			zap.String("pair", opp.Pair),
			zap.Error(err),
		)
		success = false
		if pnl > 0 {
			// an executor error never yields a profit; keep only known losses
			pnl = 0
		}
	}

	rec, ok := c.risk.RecordTradeEnd(id, pnl, success)
	if ok && c.ledger != nil {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if lerr := c.ledger.RecordTrade(lctx, rec); lerr != nil {
			c.log.Warn("ledger write failed", zap.String("trade_id", id), zap.Error(lerr))
		}
	}

	return Outcome{TradeID: id, PnL: pnl, Success: success, Err: err}
}
