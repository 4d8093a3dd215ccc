package interfaces

import (
	"context"

	"market-sync/src/models"
)

// -----------------------------------------------------------------------------
// ITickerSource produces quote snapshots, either simulated or fetched upstream.
// -----------------------------------------------------------------------------

type ITickerSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Tickers returns one snapshot per requested symbol (all known symbols when the
	// filter is empty), following the order of the filter.
	Tickers(ctx context.Context, symbols []string) ([]models.MTickerItem, error)
}
