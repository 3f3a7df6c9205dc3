package types

import "time"

// Source tells whether an opportunity came from the live market source or
// from the synthetic fallback generator.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSynthetic Source = "synthetic"
)

// Opportunity is a detected price discrepancy for an asset pair across two
// venues. Immutable once created.
type Opportunity struct {
	Pair              string
	BuyVenue          string
	SellVenue         string
	BuyPrice          float64
	SellPrice         float64
	ProfitPct         float64
	EstimatedProfit   float64
	EstimatedSlippage float64
	Source            Source
	DiscoveredAt      time.Time
}

type TradeStatus string

const (
	TradeActive    TradeStatus = "active"
	TradeCompleted TradeStatus = "completed"
	TradeFailed    TradeStatus = "failed"
)

// TradeRecord tracks one trade from open to terminal state. While active it
// is owned by the risk manager; on completion it moves to the history log.
type TradeRecord struct {
	ID           string
	StartTime    time.Time
	EndTime      time.Time
	PositionSize float64
	Opportunity  Opportunity
	Status       TradeStatus
	PnL          float64
	Success      bool
}
