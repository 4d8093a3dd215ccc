package models

// TradeAction is the side of a simulated trading event.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// MTradingEvent is an annotation attached to a chart point. Immutable once emitted.
type MTradingEvent struct {
	Timestamp string      `json:"timestamp"`
	Action    TradeAction `json:"action"`
	Trigger   string      `json:"trigger"`
}

// MChartDataPoint is one sample of the hold-vs-strategy portfolio series.
type MChartDataPoint struct {
	Time          string          `json:"time"`
	HoldValue     int64           `json:"holdValue"`
	StrategyValue int64           `json:"strategyValue"`
	Events        []MTradingEvent `json:"events,omitempty"`
}
