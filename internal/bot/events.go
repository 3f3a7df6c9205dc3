package bot

import "time"

// State names the supervisor's position in the scan/assess/execute/wait
// cycle. Failure counting is an overlay, not a state of its own.
type State string

const (
	StateScanning  State = "scanning"
	StateAssessing State = "assessing"
	StateExecuting State = "executing"
	StateWaiting   State = "waiting"
)

// Event is one structured progress message from the loop. Consumers (log
// sink, dashboard, websocket feed) attach to the supervisor's channel; the
// loop itself never blocks on them.
type Event struct {
	Ts      time.Time `json:"ts"`
	State   State     `json:"state"`
	Message string    `json:"message"`
	Pair    string    `json:"pair,omitempty"`
	TradeID string    `json:"trade_id,omitempty"`
	Score   float64   `json:"score,omitempty"`
	PnL     float64   `json:"pnl,omitempty"`
}
