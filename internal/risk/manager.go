package risk

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/metrics"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

const historyRetention = 7 * 24 * time.Hour

// Manager owns all mutable risk state: daily P&L, the active trade set,
// the cooldown timer and the bounded trade history. Every access goes
// through its methods; mutations are serialized by the mutex.
type Manager struct {
	params Parameters
	log    *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	dailyPnL     float64
	active       map[string]*types.TradeRecord
	lastLossTime time.Time
	history      []types.TradeRecord
}

func NewManager(params Parameters, log *zap.Logger) *Manager {
	return &Manager{
		params: params,
		log:    log,
		now:    time.Now,
		active: make(map[string]*types.TradeRecord),
	}
}

func (m *Manager) Params() Parameters { return m.params }

// AssessTradeRisk scores one opportunity against a snapshot of the current
// state taken under the lock.
func (m *Manager) AssessTradeRisk(opp types.Opportunity) Assessment {
	m.mu.Lock()
	st := StateView{
		DailyPnL:     m.dailyPnL,
		ActiveTrades: len(m.active),
		LastLossTime: m.lastLossTime,
		Now:          m.now(),
	}
	m.mu.Unlock()
	return Assess(opp, st, m.params)
}

// RecordTradeStart inserts a trade into the active set. Duplicate ids and
// inserts past the concurrency cap are refused so the invariants hold no
// matter how callers race.
func (m *Manager) RecordTradeStart(id string, positionSize float64, opp types.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[id]; ok {
		m.log.Warn("trade already tracked, ignoring start", zap.String("trade_id", id))
		return fmt.Errorf("risk: trade %s already active", id)
	}
	if len(m.active) >= m.params.MaxConcurrentTrades {
		m.log.Warn("concurrent trade limit reached, refusing start",
			zap.String("trade_id", id),
			zap.Int("limit", m.params.MaxConcurrentTrades),
		)
		return fmt.Errorf("risk: concurrent trade limit %d reached", m.params.MaxConcurrentTrades)
	}

	m.active[id] = &types.TradeRecord{
		ID:           id,
		StartTime:    m.now(),
		PositionSize: positionSize,
		Opportunity:  opp,
		Status:       types.TradeActive,
	}
	metrics.ActiveTrades.Set(float64(len(m.active)))
	m.log.Info("tracking trade",
		zap.String("trade_id", id),
		zap.String("pair", opp.Pair),
		zap.Float64("position_size", positionSize),
	)
	return nil
}

// RecordTradeEnd moves a trade to the history with its realized P&L. The
// second call for the same id is a no-op with a warning, so P&L is applied
// exactly once. Returns the terminal record for persistence.
func (m *Manager) RecordTradeEnd(id string, pnl float64, success bool) (types.TradeRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, ok := m.active[id]
	if !ok {
		m.log.Warn("trade not found in active set, ignoring end", zap.String("trade_id", id))
		return types.TradeRecord{}, false
	}
	delete(m.active, id)

	now := m.now()
	tr.EndTime = now
	tr.PnL = pnl
	tr.Success = success
	if success {
		tr.Status = types.TradeCompleted
	} else {
		tr.Status = types.TradeFailed
	}
	m.history = append(m.history, *tr)

	m.dailyPnL += pnl
	if pnl < 0 && now.After(m.lastLossTime) {
		m.lastLossTime = now
	}

	metrics.ActiveTrades.Set(float64(len(m.active)))
	metrics.DailyPnL.Set(m.dailyPnL)
	if success {
		metrics.TradesExecuted.WithLabelValues("success").Inc()
	} else {
		metrics.TradesExecuted.WithLabelValues("failed").Inc()
	}

	m.log.Info("trade completed",
		zap.String("trade_id", id),
		zap.Float64("pnl", pnl),
		zap.Bool("success", success),
		zap.Float64("daily_pnl", m.dailyPnL),
	)
	return *tr, true
}

// ShouldStopTrading reports whether the loop should skip the next scan.
// Reasons are checked in priority order: daily loss, concurrency, cooldown.
func (m *Manager) ShouldStopTrading() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dailyPnL <= -m.params.MaxDailyLoss {
		return true, fmt.Sprintf("daily loss limit of %g exceeded", m.params.MaxDailyLoss)
	}
	if len(m.active) >= m.params.MaxConcurrentTrades {
		return true, fmt.Sprintf("maximum concurrent trades (%d) reached", m.params.MaxConcurrentTrades)
	}
	if !m.lastLossTime.IsZero() {
		if elapsed := m.now().Sub(m.lastLossTime); elapsed < m.params.Cooldown {
			return true, fmt.Sprintf("in cooldown period for %.0f more seconds", (m.params.Cooldown - elapsed).Seconds())
		}
	}
	return false, ""
}

// Summary is a read-only snapshot of the current risk metrics.
type Summary struct {
	DailyPnL              float64       `json:"daily_pnl"`
	ActiveTrades          int           `json:"active_trades"`
	MaxConcurrentTrades   int           `json:"max_concurrent_trades"`
	DailyLossLimit        float64       `json:"daily_loss_limit"`
	RemainingLossCapacity float64       `json:"remaining_loss_capacity"`
	InCooldown            bool          `json:"in_cooldown"`
	CooldownRemaining     time.Duration `json:"cooldown_remaining"`
	TradesLast24h         int           `json:"trades_last_24h"`
}

func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var cooldownRemaining time.Duration
	if !m.lastLossTime.IsZero() {
		if left := m.params.Cooldown - now.Sub(m.lastLossTime); left > 0 {
			cooldownRemaining = left
		}
	}
	recent := 0
	for _, tr := range m.history {
		if now.Sub(tr.StartTime) < 24*time.Hour {
			recent++
		}
	}
	return Summary{
		DailyPnL:              m.dailyPnL,
		ActiveTrades:          len(m.active),
		MaxConcurrentTrades:   m.params.MaxConcurrentTrades,
		DailyLossLimit:        m.params.MaxDailyLoss,
		RemainingLossCapacity: m.params.MaxDailyLoss + m.dailyPnL,
		InCooldown:            cooldownRemaining > 0,
		CooldownRemaining:     cooldownRemaining,
		TradesLast24h:         recent,
	}
}

// ResetDailyMetrics zeroes the daily P&L and prunes history older than the
// retention window. Driven by an external day-boundary scheduler, never by
// the trading loop itself.
func (m *Manager) ResetDailyMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dailyPnL = 0
	cutoff := m.now().Add(-historyRetention)
	kept := m.history[:0]
	for _, tr := range m.history {
		if tr.StartTime.After(cutoff) {
			kept = append(kept, tr)
		}
	}
	m.history = kept
	metrics.DailyPnL.Set(0)
	m.log.Info("daily risk metrics reset", zap.Int("history_retained", len(m.history)))
}
