package simulator

import (
	"context"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"market-sync/src/models"
)

const (
	quoteCurrency = "USDT"

	driftLimit      = 0.003
	momentumWeight  = 0.2
	changeStep      = 0.3
	changeLimit     = 10.0
	priceFloorRatio = 0.01
	rangeJitter     = 0.05
	volumeMin       = 500_000_000
	volumeMax       = 1_500_000_000
)

// BaseQuote seeds one symbol of the ticker table.
type BaseQuote struct {
	Symbol string
	Price  float64
}

// DefaultBaseQuotes is the fixed table the simulator walks from.
var DefaultBaseQuotes = []BaseQuote{
	{Symbol: "BTC", Price: 43250},
	{Symbol: "ETH", Price: 2280},
	{Symbol: "BNB", Price: 312},
	{Symbol: "SOL", Price: 98.5},
	{Symbol: "XRP", Price: 0.62},
	{Symbol: "ADA", Price: 0.58},
	{Symbol: "DOGE", Price: 0.085},
	{Symbol: "AVAX", Price: 36.4},
}

// -----------------------------------------------------------------------------

type symbolState struct {
	mu         sync.Mutex
	base       float64
	lastPrice  float64
	lastChange float64
}

// TickerSimulator advances an independent random walk per symbol on every
// read. Each symbol is guarded by its own lock so concurrent readers of
// different symbols never contend.
type TickerSimulator struct {
	order  []string
	states map[string]*symbolState
	rng    RandFunc
}

// -----------------------------------------------------------------------------

func NewTickerSimulator(table []BaseQuote, rng RandFunc) *TickerSimulator {
	if len(table) == 0 {
		table = DefaultBaseQuotes
	}
	if rng == nil {
		rng = DefaultRand()
	}

	t := &TickerSimulator{
		order:  make([]string, 0, len(table)),
		states: make(map[string]*symbolState, len(table)),
		rng:    rng,
	}
	for _, q := range table {
		if _, dup := t.states[q.Symbol]; dup {
			continue
		}
		t.order = append(t.order, q.Symbol)
		t.states[q.Symbol] = &symbolState{base: q.Price, lastPrice: q.Price}
	}

	return t
}

// -----------------------------------------------------------------------------

func (t *TickerSimulator) Name() string {
	return "simulator"
}

// -----------------------------------------------------------------------------

// Tickers implements interfaces.ITickerSource.
func (t *TickerSimulator) Tickers(_ context.Context, symbols []string) ([]models.MTickerItem, error) {
	return t.Tick(symbols), nil
}

// -----------------------------------------------------------------------------

// Symbols returns the simulated symbols in table order.
func (t *TickerSimulator) Symbols() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// -----------------------------------------------------------------------------

// Tick advances and returns the requested symbols. Unknown symbols are
// ignored, duplicates collapse, and an empty filter selects the whole table.
func (t *TickerSimulator) Tick(symbols []string) []models.MTickerItem {
	if len(symbols) == 0 {
		symbols = t.order
	}

	items := make([]models.MTickerItem, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		st, ok := t.states[sym]
		if !ok {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		items = append(items, t.step(sym, st))
	}

	return items
}

// -----------------------------------------------------------------------------

// Snapshot reports the current walk position of a symbol without advancing it.
func (t *TickerSimulator) Snapshot(symbol string) (price, change float64, ok bool) {
	st, ok := t.states[symbol]
	if !ok {
		return 0, 0, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastPrice, st.lastChange, true
}

// -----------------------------------------------------------------------------

func (t *TickerSimulator) step(symbol string, st *symbolState) models.MTickerItem {
	st.mu.Lock()
	defer st.mu.Unlock()

	drift := uniform(t.rng, -driftLimit, driftLimit)
	pct := (st.lastChange/100)*momentumWeight + drift
	next := math.Max(st.base*priceFloorRatio, st.lastPrice*(1+pct))

	change := st.lastChange + uniform(t.rng, -changeStep, changeStep)
	change = math.Max(-changeLimit, math.Min(changeLimit, change))

	j1 := next * (1 + uniform(t.rng, -rangeJitter, rangeJitter))
	j2 := next * (1 + uniform(t.rng, -rangeJitter, rangeJitter))
	high := math.Max(next, math.Max(j1, j2))
	low := math.Min(next, math.Min(j1, j2))

	volume := uniform(t.rng, volumeMin, volumeMax)

	st.lastPrice = next
	st.lastChange = change

	places := PricePlaces(next)
	return models.MTickerItem{
		Symbol:    symbol,
		Pair:      symbol + "/" + quoteCurrency,
		Price:     models.NewPrice(next, places),
		Change:    roundTo(change, 2),
		Volume24h: math.Round(volume),
		High24h:   roundTo(high, places),
		Low24h:    roundTo(low, places),
	}
}

// -----------------------------------------------------------------------------

// PricePlaces is the display precision for a simulated price: cents for
// prices of at least one unit, six places for sub-unit coins.
func PricePlaces(price float64) int32 {
	if price >= 1 {
		return 2
	}
	return 6
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
