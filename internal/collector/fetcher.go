package collector

import (
	"context"

	"b3monitor/internal/model"
)

// Fetcher defines the interface for fetching historical prices.
type Fetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, days int) ([]model.DailyClose, error)
	Name() string
}
