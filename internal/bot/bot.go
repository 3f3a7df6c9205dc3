package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/config"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/execution"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/metrics"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

type Scanner interface {
	Scan(ctx context.Context, assets []string, minProfit float64) ([]types.Opportunity, error)
}

type Executor interface {
	Execute(ctx context.Context, opp types.Opportunity, as risk.Assessment) execution.Outcome
}

// FundChecker is consulted only from the extended-backoff path, never from
// the hot loop.
type FundChecker interface {
	EnsureFunded(ctx context.Context, accountID string, minBalance float64) (bool, error)
}

// OpportunityLedger records every assessed opportunity with its execute
// decision. Fire-and-forget.
type OpportunityLedger interface {
	RecordOpportunity(ctx context.Context, opp types.Opportunity, executed bool) error
}

// Supervisor drives the scan/assess/execute/wait cycle and keeps it alive
// through transient failures. One cycle is in flight at a time; approved
// executions within a cycle run concurrently up to the trade cap.
type Supervisor struct {
	cfg     *config.Config
	scanner Scanner
	risk    *risk.Manager
	exec    Executor
	opps    OpportunityLedger
	fund    FundChecker
	log     *zap.Logger

	interval            time.Duration
	events              chan Event
	consecutiveFailures int
}

func NewSupervisor(cfg *config.Config, sc Scanner, rm *risk.Manager, ex Executor, opps OpportunityLedger, fund FundChecker, log *zap.Logger) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		scanner:  sc,
		risk:     rm,
		exec:     ex,
		opps:     opps,
		fund:     fund,
		log:      log,
		interval: cfg.ScanInterval(),
		events:   make(chan Event, 256),
	}
}

// Events exposes the loop's progress stream. Closed when Run returns.
func (s *Supervisor) Events() <-chan Event { return s.events }

// Run loops until ctx is cancelled. In-flight executions are drained
// before returning, so the risk state is never left inconsistent.
func (s *Supervisor) Run(ctx context.Context) {
	s.log.Info("arbitrage engine starting",
		zap.Strings("assets", s.cfg.Engine.Assets),
		zap.Duration("scan_interval", s.interval),
	)
	s.emit(Event{State: StateScanning, Message: "arbitrage engine started"})
	defer close(s.events)

	for ctx.Err() == nil {
		if stop, reason := s.risk.ShouldStopTrading(); stop {
			// risk gate closed: skip the scan, does not count as a failure
			s.log.Warn("trading halted by risk gate", zap.String("reason", reason))
			s.emit(Event{State: StateWaiting, Message: "trading halted: " + reason})
			if !s.wait(ctx, s.interval) {
				break
			}
			continue
		}

		failed := s.runCycle(ctx)
		if failed {
			s.consecutiveFailures++
		} else {
			s.consecutiveFailures = 0
		}
		metrics.ConsecutiveFailures.Set(float64(s.consecutiveFailures))

		if s.consecutiveFailures >= s.cfg.Engine.MaxConsecutiveFailures {
			s.extendedPause(ctx)
			continue
		}

		s.emit(Event{State: StateWaiting, Message: fmt.Sprintf("waiting %s before next scan", s.interval)})
		if !s.wait(ctx, s.interval) {
			break
		}
	}
	s.log.Info("arbitrage engine stopped")
}

// runCycle performs one scan/assess/execute pass and reports whether the
// cycle counts as a failure.
func (s *Supervisor) runCycle(ctx context.Context) (failed bool) {
	s.emit(Event{State: StateScanning, Message: "scanning for opportunities"})

	start := time.Now()
	opps, err := s.scanner.Scan(ctx, s.cfg.Engine.Assets, s.cfg.Risk.MinProfitThreshold)
	metrics.ScanLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		failed = true
		s.log.Warn("scan failed", zap.Error(err))
		s.emit(Event{State: StateScanning, Message: "scan failed: " + err.Error()})
	} else {
		s.log.Info("scan complete", zap.Int("opportunities", len(opps)))
		s.emit(Event{State: StateScanning, Message: fmt.Sprintf("scan complete: %d opportunities", len(opps))})
	}

	if len(opps) > 0 {
		approved := s.assess(ctx, opps)
		if len(approved) > 0 && !s.executeAll(ctx, approved) {
			// every accepted execution errored out
			failed = true
		}
	}

	sum := s.risk.Summary()
	s.log.Info("cycle risk summary",
		zap.Float64("daily_pnl", sum.DailyPnL),
		zap.Int("active_trades", sum.ActiveTrades),
		zap.Float64("remaining_loss_capacity", sum.RemainingLossCapacity),
		zap.Duration("cooldown_remaining", sum.CooldownRemaining),
		zap.Int("trades_last_24h", sum.TradesLast24h),
	)
	s.emit(Event{
		State:   StateWaiting,
		Message: fmt.Sprintf("daily pnl %.2f, %d active trades", sum.DailyPnL, sum.ActiveTrades),
		PnL:     sum.DailyPnL,
	})
	return failed
}

type approvedOpp struct {
	opp types.Opportunity
	as  risk.Assessment
}

func (s *Supervisor) assess(ctx context.Context, opps []types.Opportunity) []approvedOpp {
	s.emit(Event{State: StateAssessing, Message: fmt.Sprintf("assessing %d opportunities", len(opps))})

	approved := make([]approvedOpp, 0, len(opps))
	for _, opp := range opps {
		as := s.risk.AssessTradeRisk(opp)
		s.emit(Event{
			State:   StateAssessing,
			Message: fmt.Sprintf("risk %s (execute=%t)", as.Level, as.ShouldExecute),
			Pair:    opp.Pair,
			Score:   as.Score,
		})
		if s.opps != nil {
			if err := s.opps.RecordOpportunity(ctx, opp, as.ShouldExecute); err != nil {
				s.log.Warn("opportunity ledger write failed", zap.String("pair", opp.Pair), zap.Error(err))
			}
		}
		if as.ShouldExecute {
			approved = append(approved, approvedOpp{opp: opp, as: as})
		} else {
			// expected outcome, not a failure
			s.log.Info("opportunity rejected by risk gate",
				zap.String("pair", opp.Pair),
				zap.String("source", string(opp.Source)),
				zap.Float64("risk_score", as.Score),
				zap.Strings("warnings", as.Warnings),
			)
		}
	}
	return approved
}

// executeAll runs approved opportunities concurrently, bounded by the
// concurrent-trade cap, and waits for all of them. Reports whether at
// least one execution completed without an executor error.
func (s *Supervisor) executeAll(ctx context.Context, approved []approvedOpp) bool {
	s.emit(Event{State: StateExecuting, Message: fmt.Sprintf("executing %d approved opportunities", len(approved))})

	sem := make(chan struct{}, s.risk.Params().MaxConcurrentTrades)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		anyOK bool
	)
	for _, a := range approved {
		wg.Add(1)
		go func(a approvedOpp) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out := s.exec.Execute(ctx, a.opp, a.as)
			if out.Err != nil {
				s.emit(Event{State: StateExecuting, Message: "execution failed: " + out.Err.Error(), Pair: a.opp.Pair, TradeID: out.TradeID})
				return
			}
			mu.Lock()
			anyOK = true
			mu.Unlock()
			s.emit(Event{
				State:   StateExecuting,
				Message: fmt.Sprintf("trade done (success=%t)", out.Success),
				Pair:    a.opp.Pair,
				TradeID: out.TradeID,
				PnL:     out.PnL,
			})
		}(a)
	}
	wg.Wait()
	return anyOK
}

// extendedPause is the failure-escalation path: announce, optionally check
// funding, sleep three scan intervals, reset the counter.
func (s *Supervisor) extendedPause(ctx context.Context) {
	pause := 3 * s.interval
	s.log.Warn("too many consecutive failures, entering extended pause",
		zap.Int("consecutive_failures", s.consecutiveFailures),
		zap.Duration("pause", pause),
	)
	s.emit(Event{State: StateWaiting, Message: fmt.Sprintf("too many consecutive failures (%d), pausing for %s", s.consecutiveFailures, pause)})

	if s.fund != nil && s.cfg.Funding.AccountID != "" {
		ok, err := s.fund.EnsureFunded(ctx, s.cfg.Funding.AccountID, s.cfg.Funding.MinBalance)
		switch {
		case err != nil:
			s.log.Warn("funding check failed", zap.Error(err))
		case !ok:
			s.log.Warn("trading account below minimum balance",
				zap.String("account_id", s.cfg.Funding.AccountID),
				zap.Float64("min_balance", s.cfg.Funding.MinBalance),
			)
		default:
			s.log.Info("trading account sufficiently funded")
		}
	}

	s.wait(ctx, pause)
	s.consecutiveFailures = 0
	metrics.ConsecutiveFailures.Set(0)
}

func (s *Supervisor) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Supervisor) emit(ev Event) {
	ev.Ts = time.Now()
	select {
	case s.events <- ev:
	default:
		s.log.Debug("event channel full, dropping", zap.String("message", ev.Message))
	}
}

func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}
