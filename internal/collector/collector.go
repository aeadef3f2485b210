package collector

import (
	"context"
	"sort"
	"sync"
	"time"

	"b3monitor/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string][]model.DailyClose
	Price  float64
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, symbol string, days int) ([]model.DailyClose, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Series[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.DailyClose {
	bars := make([]model.DailyClose, count)
	for i := 0; i < count; i++ {
		bars[i] = model.DailyClose{
			Date:  time.Now().UTC().AddDate(0, 0, -(count - i)),
			Close: basePrice * (1 + float64(i-count/2)*0.001),
		}
	}
	return bars
}

// Collector fetches price series for a whole universe of tickers with
// bounded concurrency. Individual ticker failures do not abort the run.
type Collector struct {
	Fetcher       Fetcher
	LookbackDays  int
	MaxConcurrent int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays, maxConcurrent int) *Collector {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Collector{Fetcher: fetcher, LookbackDays: lookbackDays, MaxConcurrent: maxConcurrent}
}

// CollectAll fetches daily closes for every symbol and returns the
// snapshot plus the symbols that failed.
func (c *Collector) CollectAll(ctx context.Context, symbols []string) *model.Snapshot {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		series   = make(map[string]*model.PriceSeries, len(symbols))
		failures []string
	)
	sem := make(chan struct{}, c.MaxConcurrent)
	now := time.Now().UTC()

	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(sym string) {
			defer wg.Done()
			defer func() { <-sem }()

			bars, err := c.Fetcher.FetchDailyCloses(ctx, sym, c.LookbackDays)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, sym)
				return
			}
			series[sym] = &model.PriceSeries{Symbol: sym, Bars: bars, FetchedAt: now}
		}(sym)
	}
	wg.Wait()

	sort.Strings(failures)
	return &model.Snapshot{
		Series:       series,
		UniverseSize: len(symbols),
		Failures:     failures,
		FetchedAt:    now,
	}
}
