package model

import "time"

// DailyClose represents one trading day's closing price.
type DailyClose struct {
	Date  time.Time
	Close float64
}

// PriceSeries holds the fetched daily closes for one ticker,
// ascending by date. Never mutated after fetch.
type PriceSeries struct {
	Symbol    string
	Bars      []DailyClose
	FetchedAt time.Time
}

// Snapshot is the result of one collection pass over the universe.
type Snapshot struct {
	Series       map[string]*PriceSeries
	UniverseSize int
	Failures     []string
	FetchedAt    time.Time
}
