package execution

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

type fakeExecutor struct {
	pnl     float64
	success bool
	err     error
	called  bool
}

func (f *fakeExecutor) ExecuteTrade(context.Context, types.Opportunity, float64) (float64, bool, error) {
	f.called = true
	return f.pnl, f.success, f.err
}

type fakeRisk struct {
	mu       sync.Mutex
	startErr error
	calls    []string
	endPnL   float64
	endOK    bool
}

func (f *fakeRisk) RecordTradeStart(id string, positionSize float64, opp types.Opportunity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "start")
	return f.startErr
}

func (f *fakeRisk) RecordTradeEnd(id string, pnl float64, success bool) (types.TradeRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "end")
	f.endPnL = pnl
	f.endOK = success
	return types.TradeRecord{ID: id, PnL: pnl, Success: success, Status: types.TradeCompleted}, true
}

type fakeLedger struct {
	mu     sync.Mutex
	err    error
	trades []types.TradeRecord
	calls  *fakeRisk // to observe ordering against risk calls
}

func (f *fakeLedger) RecordTrade(ctx context.Context, tr types.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls != nil {
		f.calls.mu.Lock()
		f.calls.calls = append(f.calls.calls, "ledger")
		f.calls.mu.Unlock()
	}
	f.trades = append(f.trades, tr)
	return f.err
}

func approvedAssessment() risk.Assessment {
	return risk.Assessment{
		Level:                   risk.LevelLow,
		RecommendedPositionSize: 25.0,
		ShouldExecute:           true,
	}
}

func TestExecute_SuccessPath(t *testing.T) {
	exec := &fakeExecutor{pnl: 4.2, success: true}
	rk := &fakeRisk{}
	led := &fakeLedger{calls: rk}
	c := NewCoordinator(exec, led, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{Pair: "AQUA/yUSDC"}, approvedAssessment())

	require.NoError(t, out.Err)
	assert.True(t, out.Success)
	assert.Equal(t, 4.2, out.PnL)
	assert.NotEmpty(t, out.TradeID)
	// the ledger write happens only after the trade reached a terminal state
	assert.Equal(t, []string{"start", "end", "ledger"}, rk.calls)
	require.Len(t, led.trades, 1)
	assert.Equal(t, out.TradeID, led.trades[0].ID)
}

func TestExecute_ExecutorFailureStillCompletesBookkeeping(t *testing.T) {
	exec := &fakeExecutor{pnl: 7.0, err: errors.New("horizon timeout")}
	rk := &fakeRisk{}
	c := NewCoordinator(exec, &fakeLedger{}, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{Pair: "AQUA/yUSDC"}, approvedAssessment())

	assert.Error(t, out.Err)
	assert.False(t, out.Success)
	assert.Equal(t, 0.0, out.PnL, "an errored execution never books a profit")
	assert.Equal(t, []string{"start", "end"}, rk.calls)
	assert.Equal(t, 0.0, rk.endPnL)
	assert.False(t, rk.endOK)
}

func TestExecute_KnownLossIsKeptOnFailure(t *testing.T) {
	exec := &fakeExecutor{pnl: -2.5, err: errors.New("partial fill")}
	rk := &fakeRisk{}
	c := NewCoordinator(exec, &fakeLedger{}, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{}, approvedAssessment())

	assert.Error(t, out.Err)
	assert.Equal(t, -2.5, rk.endPnL)
	assert.Equal(t, -2.5, out.PnL)
}

func TestExecute_RefusedStartSkipsExecutor(t *testing.T) {
	exec := &fakeExecutor{}
	rk := &fakeRisk{startErr: errors.New("concurrent trade limit reached")}
	c := NewCoordinator(exec, &fakeLedger{}, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{}, approvedAssessment())

	assert.Error(t, out.Err)
	assert.False(t, exec.called)
	assert.Equal(t, []string{"start"}, rk.calls)
}

func TestExecute_LedgerFailureIsNotFatal(t *testing.T) {
	exec := &fakeExecutor{pnl: 1.0, success: true}
	rk := &fakeRisk{}
	led := &fakeLedger{err: errors.New("redis down")}
	c := NewCoordinator(exec, led, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{}, approvedAssessment())

	assert.NoError(t, out.Err)
	assert.True(t, out.Success)
}

func TestExecute_NilLedger(t *testing.T) {
	exec := &fakeExecutor{pnl: 1.0, success: true}
	rk := &fakeRisk{}
	c := NewCoordinator(exec, nil, rk, zap.NewNop())

	out := c.Execute(context.Background(), types.Opportunity{}, approvedAssessment())
	assert.NoError(t, out.Err)
}

func TestPaperExecutor_RespectsCancelledContext(t *testing.T) {
	p := NewPaperExecutor(1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, success, err := p.ExecuteTrade(ctx, types.Opportunity{ProfitPct: 1.0}, 10)
	assert.Error(t, err)
	assert.False(t, success)
}

func TestPaperExecutor_FillWithinBounds(t *testing.T) {
	p := NewPaperExecutor(2, zap.NewNop())
	opp := types.Opportunity{ProfitPct: 2.0, EstimatedSlippage: 1.0}

	for i := 0; i < 50; i++ {
		pnl, success, err := p.ExecuteTrade(context.Background(), opp, 100)
		require.NoError(t, err)
		if success {
			// profit bounded by estimate at full fill
			assert.LessOrEqual(t, pnl, 100*opp.ProfitPct/100)
			assert.GreaterOrEqual(t, pnl, 0.0)
		} else {
			assert.Less(t, pnl, 0.0)
		}
	}
}
