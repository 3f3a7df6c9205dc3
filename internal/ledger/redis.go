// Package ledger persists trade and opportunity records to Redis streams.
// All writes are fire-and-forget from the loop's point of view: callers
// log errors and move on.
package ledger

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Codex-zero-source/Stellar-arbitrage/internal/config"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/risk"
	"github.com/Codex-zero-source/Stellar-arbitrage/internal/types"
)

const summaryKey = "arb:risk:summary"

type Redis struct {
	rdb         *redis.Client
	tradeStream string
	oppStream   string
	log         *zap.Logger
}

func NewRedis(cfg *config.Config, log *zap.Logger) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Redis{
		rdb:         rdb,
		tradeStream: cfg.Redis.TradeStream,
		oppStream:   cfg.Redis.OppStream,
		log:         log,
	}
}

func newWithClient(rdb *redis.Client, tradeStream, oppStream string, log *zap.Logger) *Redis {
	return &Redis{rdb: rdb, tradeStream: tradeStream, oppStream: oppStream, log: log}
}

// RecordTrade appends a terminal trade record to the trade stream. Only
// called after the trade reaches a terminal state.
func (l *Redis) RecordTrade(ctx context.Context, tr types.TradeRecord) error {
	return l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: l.tradeStream,
		Values: map[string]interface{}{
			"id":            tr.ID,
			"pair":          tr.Opportunity.Pair,
			"source":        string(tr.Opportunity.Source),
			"position_size": tr.PositionSize,
			"status":        string(tr.Status),
			"pnl":           tr.PnL,
			"success":       tr.Success,
			"start_ms":      tr.StartTime.UnixMilli(),
			"end_ms":        tr.EndTime.UnixMilli(),
		},
	}).Err()
}

func (l *Redis) RecordOpportunity(ctx context.Context, opp types.Opportunity, executed bool) error {
	return l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: l.oppStream,
		Values: map[string]interface{}{
			"pair":       opp.Pair,
			"buy_venue":  opp.BuyVenue,
			"sell_venue": opp.SellVenue,
			"buy_price":  opp.BuyPrice,
			"sell_price": opp.SellPrice,
			"profit_pct": opp.ProfitPct,
			"source":     string(opp.Source),
			"executed":   executed,
			"ts_ms":      opp.DiscoveredAt.UnixMilli(),
		},
	}).Err()
}

// UpsertRiskSummary keeps the latest risk snapshot in a hash for external
// viewers.
func (l *Redis) UpsertRiskSummary(ctx context.Context, s risk.Summary) error {
	return l.rdb.HSet(ctx, summaryKey, map[string]interface{}{
		"daily_pnl":               s.DailyPnL,
		"active_trades":           s.ActiveTrades,
		"remaining_loss_capacity": s.RemainingLossCapacity,
		"in_cooldown":             s.InCooldown,
		"cooldown_remaining_s":    int64(s.CooldownRemaining.Seconds()),
		"trades_last_24h":         s.TradesLast24h,
	}).Err()
}

func (l *Redis) Close() error { return l.rdb.Close() }
