package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"b3monitor/internal/model"
)

func TestBrapiFetcher_FetchDailyCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/quote/PETR4" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		// out of order, with one null close to be skipped
		fmt.Fprint(w, `{"results":[{"symbol":"PETR4","historicalDataPrice":[
			{"date":1717372800,"close":38.5},
			{"date":1704153600,"close":35.0},
			{"date":1709510400,"close":0},
			{"date":1706832000,"close":36.2}
		]}]}`)
	}))
	defer srv.Close()

	f := NewBrapiFetcher(srv.URL, "token", "")
	bars, err := f.FetchDailyCloses(context.Background(), "PETR4.SA", 180)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	if !reflect.DeepEqual(closes, []float64{35.0, 36.2, 38.5}) {
		t.Errorf("closes = %v, want ascending without nulls", closes)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Date.Before(bars[i].Date) {
			t.Errorf("dates not strictly increasing at %d", i)
		}
	}
}

func TestBrapiFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"results":[],"error":true,"message":"quote not found"}`)
	}))
	defer srv.Close()

	f := NewBrapiFetcher(srv.URL, "", "")
	if _, err := f.FetchDailyCloses(context.Background(), "NOPE3.SA", 180); err == nil {
		t.Fatal("expected error for api error payload")
	}
}

// slowFetcher tracks the number of simultaneous fetches.
type slowFetcher struct {
	active  int32
	maxSeen int32
	mu      sync.Mutex
	fail    map[string]bool
}

func (s *slowFetcher) Name() string { return "slow" }

func (s *slowFetcher) FetchDailyCloses(_ context.Context, symbol string, _ int) ([]model.DailyClose, error) {
	n := atomic.AddInt32(&s.active, 1)
	defer atomic.AddInt32(&s.active, -1)
	s.mu.Lock()
	if n > s.maxSeen {
		s.maxSeen = n
	}
	s.mu.Unlock()
	time.Sleep(10 * time.Millisecond)

	if s.fail[symbol] {
		return nil, fmt.Errorf("boom")
	}
	return []model.DailyClose{{Date: time.Now().UTC(), Close: 10}}, nil
}

func TestCollectAll(t *testing.T) {
	f := &slowFetcher{fail: map[string]bool{"BAD3.SA": true, "BAD4.SA": true}}
	c := NewCollector(f, 180, 3)

	symbols := []string{"A3.SA", "B3.SA", "C3.SA", "D3.SA", "BAD3.SA", "BAD4.SA", "E3.SA", "F3.SA"}
	snap := c.CollectAll(context.Background(), symbols)

	if snap.UniverseSize != len(symbols) {
		t.Errorf("universe size = %d, want %d", snap.UniverseSize, len(symbols))
	}
	if len(snap.Series) != 6 {
		t.Errorf("series = %d, want 6", len(snap.Series))
	}
	if !reflect.DeepEqual(snap.Failures, []string{"BAD3.SA", "BAD4.SA"}) {
		t.Errorf("failures = %v", snap.Failures)
	}
	if f.maxSeen > 3 {
		t.Errorf("max concurrent fetches = %d, want <= 3", f.maxSeen)
	}
}
