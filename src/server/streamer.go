package server

import (
	"context"
	"time"

	"market-sync/src/interfaces"
	"market-sync/src/logger"
	"market-sync/src/models"
)

// -----------------------------------------------------------------------------
// TickerStreamer
// -----------------------------------------------------------------------------

// TickerStreamer polls a ticker source on a fixed interval and hands every
// snapshot to a broadcaster.
type TickerStreamer struct {
	Source   interfaces.ITickerSource
	Sink     interfaces.IBroadcaster
	Interval time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

func NewTickerStreamer(src interfaces.ITickerSource, sink interfaces.IBroadcaster, interval time.Duration, log *logger.Logger) *TickerStreamer {
	return &TickerStreamer{
		Source:   src,
		Sink:     sink,
		Interval: interval,
		Logger:   log,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run ticks until ctx is done. Source failures are logged and the loop goes on.
func (t *TickerStreamer) Run(ctx context.Context) error {
	t.Logger.Info("Ticker stream from %s every %v", t.Source.Name(), t.Interval)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		t.tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// -----------------------------------------------------------------------------

func (t *TickerStreamer) tick(ctx context.Context) {
	items, err := t.Source.Tickers(ctx, nil)
	if err != nil {
		if ctx.Err() == nil {
			t.Logger.Warning("Ticker stream: %s failed: %v", t.Source.Name(), err)
		}
		return
	}

	t.Sink.Broadcast(&models.MTickerFrame{
		Type:      frameUpdate,
		Items:     items,
		Timestamp: t.Now().UnixMilli(),
	})
}
