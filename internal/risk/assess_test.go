package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

func testParams() Parameters {
	return Parameters{
		MaxPositionSize:     100.0,
		MaxDailyLoss:        50.0,
		StopLossPct:         5.0,
		MaxSlippagePct:      2.0,
		MinProfitThreshold:  0.5,
		MaxConcurrentTrades: 3,
		Cooldown:            300 * time.Second,
	}
}

func goodOpp() types.Opportunity {
	return types.Opportunity{
		Pair:         "AQUA/yUSDC",
		ProfitPct:    2.0,
		DiscoveredAt: time.Now(),
	}
}

func cleanState() StateView {
	return StateView{Now: time.Now()}
}

func TestAssess_CleanState(t *testing.T) {
	as := Assess(goodOpp(), cleanState(), testParams())

	assert.Equal(t, 0.0, as.Score)
	assert.Equal(t, LevelLow, as.Level)
	assert.Empty(t, as.Warnings)
	assert.True(t, as.ShouldExecute)
	assert.Equal(t, 50.0, as.RecommendedPositionSize)
}

func TestAssess_LowProfitOnly(t *testing.T) {
	opp := goodOpp()
	opp.ProfitPct = 0.3
	opp.EstimatedSlippage = 1.0

	as := Assess(opp, cleanState(), testParams())

	assert.Equal(t, 20.0, as.Score)
	assert.Equal(t, LevelLow, as.Level)
	assert.False(t, as.ShouldExecute, "profit below threshold must veto execution")
	assert.Len(t, as.Warnings, 1)
	assert.Contains(t, as.Warnings[0], "Low profit margin")
}

func TestAssess_DailyLossBreached(t *testing.T) {
	st := cleanState()
	st.DailyPnL = -60

	as := Assess(goodOpp(), st, testParams())

	assert.Equal(t, 50.0, as.Score)
	assert.Equal(t, LevelMedium, as.Level)
	assert.False(t, as.ShouldExecute, "daily loss breach must veto execution regardless of score")
	assert.Contains(t, as.Warnings, "Daily loss limit exceeded")
}

func TestAssess_SlippageScoresButDoesNotVeto(t *testing.T) {
	opp := goodOpp()
	opp.EstimatedSlippage = 3.0

	as := Assess(opp, cleanState(), testParams())

	assert.Equal(t, 30.0, as.Score)
	assert.Equal(t, LevelMedium, as.Level)
	assert.True(t, as.ShouldExecute, "slippage feeds the score, not the boolean gate")
}

func TestAssess_ConcurrentCapVetoesAtLowScore(t *testing.T) {
	st := cleanState()
	st.ActiveTrades = 3

	as := Assess(goodOpp(), st, testParams())

	assert.Equal(t, 25.0, as.Score)
	assert.Equal(t, LevelLow, as.Level)
	assert.False(t, as.ShouldExecute)
	assert.Contains(t, as.Warnings, "Maximum concurrent trades reached")
}

func TestAssess_LevelBands(t *testing.T) {
	p := testParams()
	now := time.Now()

	cases := []struct {
		name  string
		opp   types.Opportunity
		st    StateView
		score float64
		level Level
	}{
		{
			name:  "25_low",
			opp:   goodOpp(),
			st:    StateView{ActiveTrades: 3, Now: now},
			score: 25, level: LevelLow,
		},
		{
			name:  "30_medium",
			opp:   types.Opportunity{ProfitPct: 2.0, EstimatedSlippage: 3.0},
			st:    StateView{Now: now},
			score: 30, level: LevelMedium,
		},
		{
			name:  "55_medium",
			opp:   types.Opportunity{ProfitPct: 2.0, EstimatedSlippage: 3.0},
			st:    StateView{ActiveTrades: 3, Now: now},
			score: 55, level: LevelMedium,
		},
		{
			name:  "60_high",
			opp:   types.Opportunity{ProfitPct: 2.0, EstimatedSlippage: 3.0},
			st:    StateView{LastLossTime: now.Add(-10 * time.Second), Now: now},
			score: 60, level: LevelHigh,
		},
		{
			name:  "75_high",
			opp:   goodOpp(),
			st:    StateView{DailyPnL: -60, ActiveTrades: 3, Now: now},
			score: 75, level: LevelHigh,
		},
		{
			name:  "80_critical",
			opp:   types.Opportunity{ProfitPct: 0.3, EstimatedSlippage: 3.0},
			st:    StateView{LastLossTime: now.Add(-10 * time.Second), Now: now},
			score: 80, level: LevelCritical,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			as := Assess(tc.opp, tc.st, p)
			assert.Equal(t, tc.score, as.Score)
			assert.Equal(t, tc.level, as.Level)
		})
	}
}

func TestAssess_ScoreSaturatesAt100(t *testing.T) {
	opp := types.Opportunity{ProfitPct: 0.1, EstimatedSlippage: 5.0}
	st := StateView{
		DailyPnL:     -100,
		ActiveTrades: 3,
		LastLossTime: time.Now().Add(-time.Second),
		Now:          time.Now(),
	}

	as := Assess(opp, st, testParams())

	assert.Equal(t, 100.0, as.Score)
	assert.Equal(t, LevelCritical, as.Level)
	assert.False(t, as.ShouldExecute)
	assert.Len(t, as.Warnings, 5)
}

func TestAssess_CooldownBoundary(t *testing.T) {
	p := testParams()
	now := time.Now()

	inCooldown := Assess(goodOpp(), StateView{LastLossTime: now.Add(-299 * time.Second), Now: now}, p)
	assert.Equal(t, 30.0, inCooldown.Score)

	elapsed := Assess(goodOpp(), StateView{LastLossTime: now.Add(-300 * time.Second), Now: now}, p)
	assert.Equal(t, 0.0, elapsed.Score, "exactly one cooldown period means the cooldown is over")
}

func TestAssess_PositionSizing(t *testing.T) {
	p := testParams()

	// clean state, max position above the 50 base cap
	as := Assess(goodOpp(), cleanState(), p)
	assert.Equal(t, 50.0, as.RecommendedPositionSize)

	// max position below the cap becomes the base
	p.MaxPositionSize = 30
	as = Assess(goodOpp(), cleanState(), p)
	assert.Equal(t, 30.0, as.RecommendedPositionSize)

	// score 100 floors the multiplier at 0.1
	p = testParams()
	st := StateView{
		DailyPnL:     -100,
		ActiveTrades: 3,
		LastLossTime: time.Now().Add(-time.Second),
		Now:          time.Now(),
	}
	as = Assess(types.Opportunity{ProfitPct: 0.1, EstimatedSlippage: 5.0}, st, p)
	assert.InDelta(t, 5.0, as.RecommendedPositionSize, 1e-9)

	// never exceeds the configured maximum
	assert.LessOrEqual(t, as.RecommendedPositionSize, p.MaxPositionSize)
	assert.GreaterOrEqual(t, as.RecommendedPositionSize, 0.0)
}
