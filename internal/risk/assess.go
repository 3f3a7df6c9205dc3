package risk

import (
	"fmt"
	"time"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Assessment is derived from the current state and one opportunity. It is
// never persisted; compute a fresh one per decision.
type Assessment struct {
	Level                   Level
	Score                   float64
	Warnings                []string
	RecommendedPositionSize float64
	ShouldExecute           bool
}

// StateView is the snapshot of mutable risk state the scorer reads. The
// manager takes it under its lock; tests can build one directly.
type StateView struct {
	DailyPnL     float64
	ActiveTrades int
	LastLossTime time.Time
	Now          time.Time
}

// Assess scores one opportunity against the current state. Pure function:
// no hidden reads, no mutation.
//
// The additive score and the boolean execute decision are evaluated
// independently and can disagree; both gates apply.
func Assess(opp types.Opportunity, st StateView, p Parameters) Assessment {
	var warnings []string
	score := 0.0

	if opp.ProfitPct < p.MinProfitThreshold {
		warnings = append(warnings, fmt.Sprintf("Low profit margin: %.2f%%", opp.ProfitPct))
		score += 20
	}
	if opp.EstimatedSlippage > p.MaxSlippagePct {
		warnings = append(warnings, fmt.Sprintf("High slippage risk: %.2f%%", opp.EstimatedSlippage))
		score += 30
	}
	if st.DailyPnL < -p.MaxDailyLoss {
		warnings = append(warnings, "Daily loss limit exceeded")
		score += 50
	}
	if st.ActiveTrades >= p.MaxConcurrentTrades {
		warnings = append(warnings, "Maximum concurrent trades reached")
		score += 25
	}
	if !st.LastLossTime.IsZero() && st.Now.Sub(st.LastLossTime) < p.Cooldown {
		warnings = append(warnings, "Still in cooldown period after recent loss")
		score += 30
	}
	if score > 100 {
		score = 100
	}

	var level Level
	switch {
	case score >= 80:
		level = LevelCritical
	case score >= 60:
		level = LevelHigh
	case score >= 30:
		level = LevelMedium
	default:
		level = LevelLow
	}

	base := p.MaxPositionSize
	if base > 50 {
		base = 50
	}
	multiplier := 1.0 - score/100
	if multiplier < 0.1 {
		multiplier = 0.1
	}

	shouldExecute := level != LevelCritical &&
		opp.ProfitPct >= p.MinProfitThreshold &&
		st.DailyPnL > -p.MaxDailyLoss &&
		st.ActiveTrades < p.MaxConcurrentTrades

	return Assessment{
		Level:                   level,
		Score:                   score,
		Warnings:                warnings,
		RecommendedPositionSize: base * multiplier,
		ShouldExecute:           shouldExecute,
	}
}
