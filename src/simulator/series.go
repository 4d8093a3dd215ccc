// Package simulator holds the local generators that stand in for the upstream
// pipeline: a fixed-length portfolio series and a per-symbol random-walk ticker.
package simulator

import (
	"math"
	"time"

	"market-sync/src/helpers"
	"market-sync/src/models"
	"market-sync/src/utils"
)

const (
	// SeriesLength is the fixed number of points in every generated series.
	SeriesLength = 24
	// OpeningPrice anchors both the hold and the strategy curves.
	OpeningPrice = 45000.0
	// EventEvery is the index cadence of trading annotations.
	EventEvery = 6

	defaultWindow = 24 * time.Hour

	buyTrigger  = "RSI oversold (<30) with bullish MACD crossover"
	sellTrigger = "RSI overbought (>70) with bearish MACD divergence"
)

// -----------------------------------------------------------------------------

// SeriesSimulator produces a hold-vs-strategy series with oscillator shape and
// bounded uniform noise.
type SeriesSimulator struct {
	rng RandFunc
	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewSeriesSimulator(rng RandFunc, now func() time.Time) *SeriesSimulator {
	if rng == nil {
		rng = DefaultRand()
	}
	if now == nil {
		now = time.Now
	}
	return &SeriesSimulator{rng: rng, now: now}
}

// -----------------------------------------------------------------------------

// Window resolves the optional start/end query values. With neither set the
// window is the trailing 24 hours; with one set the other is 24 hours away.
func (s *SeriesSimulator) Window(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, hasStart := utils.ParseTimestamp(startRaw)
	if startRaw != "" && !hasStart {
		return time.Time{}, time.Time{}, helpers.NewValidationError("invalid startDateTime %q", startRaw)
	}
	end, hasEnd := utils.ParseTimestamp(endRaw)
	if endRaw != "" && !hasEnd {
		return time.Time{}, time.Time{}, helpers.NewValidationError("invalid endDateTime %q", endRaw)
	}

	switch {
	case !hasStart && !hasEnd:
		end = s.now().UTC()
		start = end.Add(-defaultWindow)
	case !hasEnd:
		end = start.Add(defaultWindow)
	case !hasStart:
		start = end.Add(-defaultWindow)
	}

	return start, end, nil
}

// -----------------------------------------------------------------------------

// Generate builds SeriesLength points spanning [start, end] at equal intervals.
func (s *SeriesSimulator) Generate(start, end time.Time) ([]models.MChartDataPoint, error) {
	if !end.After(start) {
		return nil, helpers.NewValidationError("endDateTime must be after startDateTime")
	}

	span := end.Sub(start)
	if !start.Add(span).Equal(end) {
		return nil, helpers.NewValidationError("time window is too long")
	}
	if span/(SeriesLength-1) < time.Millisecond {
		return nil, helpers.NewValidationError("time window is too short")
	}

	points := make([]models.MChartDataPoint, 0, SeriesLength)
	for i := 0; i < SeriesLength; i++ {
		points = append(points, s.point(i, start.Add(offsetAt(span, i))))
	}

	return points, nil
}

// -----------------------------------------------------------------------------

func (s *SeriesSimulator) point(i int, at time.Time) models.MChartDataPoint {
	x := float64(i)

	priceOffset := math.Sin(x/4)*2000 + uniform(s.rng, -500, 500)
	strategyOffset := math.Cos(x/5)*1500 + uniform(s.rng, -250, 250)

	hold := int64(math.Round(OpeningPrice + priceOffset))
	strategy := int64(math.Round(OpeningPrice + priceOffset + strategyOffset))

	p := models.MChartDataPoint{
		Time:          utils.FormatISO(at),
		HoldValue:     hold,
		StrategyValue: strategy,
	}

	if IsEventIndex(i) {
		p.Events = []models.MTradingEvent{tradingEvent(at, hold, strategy)}
	}

	return p
}

// offsetAt splits span into SeriesLength-1 equal steps without drifting off
// the end bound through truncation.
func offsetAt(span time.Duration, i int) time.Duration {
	steps := time.Duration(SeriesLength - 1)
	n := time.Duration(i)
	return span/steps*n + span%steps*n/steps
}

// -----------------------------------------------------------------------------

// IsEventIndex reports whether a trading event is emitted at index i.
func IsEventIndex(i int) bool {
	return i > 0 && i%EventEvery == 0
}

// -----------------------------------------------------------------------------

func tradingEvent(at time.Time, hold, strategy int64) models.MTradingEvent {
	if strategy > hold {
		return models.MTradingEvent{Timestamp: utils.FormatISO(at), Action: models.ActionBuy, Trigger: buyTrigger}
	}
	return models.MTradingEvent{Timestamp: utils.FormatISO(at), Action: models.ActionSell, Trigger: sellTrigger}
}
