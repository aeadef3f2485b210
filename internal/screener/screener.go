// Package screener runs the percentage-change screen over the cached
// price snapshot and keeps that snapshot fresh.
package screener

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"b3monitor/internal/calculator"
	"b3monitor/internal/collector"
	"b3monitor/internal/model"
	"b3monitor/internal/recorder"
	"b3monitor/internal/universe"
)

// ErrNoSnapshot is returned when no collection pass has completed yet.
var ErrNoSnapshot = errors.New("no price snapshot available yet")

// Screener owns the latest price snapshot and computes gainer rows
// from it on demand.
type Screener struct {
	Universe  *universe.Resolver
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Defaults  model.ScreenParams

	mu   sync.RWMutex
	snap *model.Snapshot
}

// New creates a Screener.
func New(u *universe.Resolver, c *collector.Collector, rec recorder.Recorder, defaults model.ScreenParams) *Screener {
	return &Screener{Universe: u, Collector: c, Recorder: rec, Defaults: defaults}
}

// Refresh resolves the universe, collects prices and swaps in the new
// snapshot. The run is recorded with the default screen parameters.
func (s *Screener) Refresh(ctx context.Context) error {
	start := time.Now()

	tickers, err := s.Universe.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}
	log.Printf("[INFO] collecting prices for %d tickers", len(tickers))

	snap := s.Collector.CollectAll(ctx, tickers)
	if len(snap.Series) == 0 {
		return fmt.Errorf("all %d price fetches failed", snap.UniverseSize)
	}
	if n := len(snap.Failures); n > 0 {
		log.Printf("[WARN] %d of %d price fetches failed", n, snap.UniverseSize)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	res, err := s.Gainers(s.Defaults.Weeks, s.Defaults.MinReturnPct)
	if err != nil {
		return err
	}
	if err := s.Recorder.RecordRun(&recorder.RunRecord{
		Params:       res.Params,
		Rows:         res.Rows,
		UniverseSize: snap.UniverseSize,
		Fetched:      len(snap.Series),
		Failed:       len(snap.Failures),
		Duration:     time.Since(start),
	}); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}

	log.Printf("[INFO] refresh done in %s: %d gainers >= %.1f%% over %dw",
		time.Since(start).Round(time.Millisecond), len(res.Rows), res.Params.MinReturnPct, res.Params.Weeks)
	return nil
}

// Snapshot returns the current snapshot, or nil before the first refresh.
func (s *Screener) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Gainers computes the filtered, descending-sorted result rows from
// the cached snapshot.
func (s *Screener) Gainers(weeks int, minPct float64) (*model.ScreenResult, error) {
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	rows := make([]model.GainerRow, 0, 32)
	for sym, series := range snap.Series {
		pct, last, ref, err := calculator.ChangeOverWeeks(series.Bars, weeks)
		if err != nil {
			continue // series too short or unusable, skip silently
		}
		if pct < minPct {
			continue
		}
		rows = append(rows, model.GainerRow{
			Ticker:    strings.TrimSuffix(sym, ".SA"),
			ChangePct: round(pct, 2),
			LastClose: round(last.Close, 4),
			RefClose:  round(ref.Close, 4),
			LastDate:  last.Date,
			RefDate:   ref.Date,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChangePct != rows[j].ChangePct {
			return rows[i].ChangePct > rows[j].ChangePct
		}
		return rows[i].Ticker < rows[j].Ticker
	})

	return &model.ScreenResult{
		Params:       model.ScreenParams{Weeks: weeks, MinReturnPct: minPct},
		Rows:         rows,
		UniverseSize: snap.UniverseSize,
		Fetched:      len(snap.Series),
		Failed:       len(snap.Failures),
		FetchedAt:    snap.FetchedAt,
	}, nil
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
