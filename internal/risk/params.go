package risk

import (
	"time"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/config"
)

// Parameters bound what the engine is allowed to risk. Loaded once at
// startup and never mutated afterwards.
type Parameters struct {
	MaxPositionSize     float64
	MaxDailyLoss        float64
	StopLossPct         float64
	MaxSlippagePct      float64
	MinProfitThreshold  float64
	MaxConcurrentTrades int
	Cooldown            time.Duration
}

func DefaultParameters() Parameters {
	return Parameters{
		MaxPositionSize:     100.0,
		MaxDailyLoss:        50.0,
		StopLossPct:         5.0,
		MaxSlippagePct:      2.0,
		MinProfitThreshold:  0.5,
		MaxConcurrentTrades: 3,
		Cooldown:            5 * time.Minute,
	}
}

func ParametersFromConfig(cfg *config.Config) Parameters {
	return Parameters{
		MaxPositionSize:     cfg.Risk.MaxPositionSize,
		MaxDailyLoss:        cfg.Risk.MaxDailyLoss,
		StopLossPct:         cfg.Risk.StopLossPct,
		MaxSlippagePct:      cfg.Risk.MaxSlippagePct,
		MinProfitThreshold:  cfg.Risk.MinProfitThreshold,
		MaxConcurrentTrades: cfg.Risk.MaxConcurrentTrades,
		Cooldown:            cfg.Cooldown(),
	}
}
