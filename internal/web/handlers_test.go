package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"b3monitor/internal/collector"
	"b3monitor/internal/model"
	"b3monitor/internal/recorder"
	"b3monitor/internal/screener"
	"b3monitor/internal/universe"
)

type stubLister struct{ tickers []string }

func (s stubLister) ListTickers(_ context.Context) ([]string, error) { return s.tickers, nil }

type stubFetcher struct{ series map[string][]model.DailyClose }

func (s stubFetcher) Name() string { return "stub" }

func (s stubFetcher) FetchDailyCloses(_ context.Context, symbol string, _ int) ([]model.DailyClose, error) {
	if bars, ok := s.series[symbol]; ok {
		return bars, nil
	}
	return nil, fmt.Errorf("no data for %s", symbol)
}

type stubRefresher struct{ called atomic.Bool }

func (r *stubRefresher) RunRefreshNow() { r.called.Store(true) }

func pair(refClose, lastClose float64) []model.DailyClose {
	return []model.DailyClose{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: refClose},
		{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Close: lastClose},
	}
}

func newTestServer(t *testing.T, refreshed bool) (*Server, *stubRefresher) {
	t.Helper()
	lister := stubLister{tickers: []string{"ALFA3.SA", "GAMA3.SA"}}
	fetcher := stubFetcher{series: map[string][]model.DailyClose{
		"ALFA3.SA": pair(100, 160),
		"GAMA3.SA": pair(100, 110),
	}}
	scr := screener.New(
		universe.NewResolver(lister, ""),
		collector.NewCollector(fetcher, 180, 2),
		recorder.NewNoopRecorder(),
		model.ScreenParams{Weeks: 12, MinReturnPct: 30},
	)
	if refreshed {
		if err := scr.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	ref := &stubRefresher{}
	srv := NewServer(":0", scr, ref, model.ScreenParams{Weeks: 12, MinReturnPct: 30},
		Limits{MinWeeks: 4, MaxWeeks: 52, MaxReturnPct: 1000})
	return srv, ref
}

func TestHandleGainers_JSON(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/gainers?weeks=12&min=30", nil)
	w := httptest.NewRecorder()
	srv.handleGainers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var res model.ScreenResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Ticker != "ALFA3" {
		t.Errorf("rows = %+v, want single ALFA3", res.Rows)
	}
	if res.Params.Weeks != 12 || res.Params.MinReturnPct != 30 {
		t.Errorf("params echoed = %+v", res.Params)
	}
}

func TestHandleGainers_ClampsParams(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/gainers?weeks=999&min=-5", nil)
	w := httptest.NewRecorder()
	srv.handleGainers(w, req)

	var res model.ScreenResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Params.Weeks != 52 {
		t.Errorf("weeks = %d, want clamped to 52", res.Params.Weeks)
	}
	if res.Params.MinReturnPct != 0 {
		t.Errorf("min = %f, want clamped to 0", res.Params.MinReturnPct)
	}
}

func TestHandleGainers_BeforeFirstRefresh(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/gainers", nil)
	w := httptest.NewRecorder()
	srv.handleGainers(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHandleIndex_HTML(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/?weeks=12&min=30", nil)
	w := httptest.NewRecorder()
	srv.handleIndex(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "ALFA3") {
		t.Error("expected ALFA3 in rendered table")
	}
	if strings.Contains(body, "GAMA3") {
		t.Error("GAMA3 is below the threshold and must not render")
	}
}

func TestHandleIndex_NotFoundPath(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	srv.handleIndex(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleCSV(t *testing.T) {
	srv, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/gainers.csv?weeks=12&min=30", nil)
	w := httptest.NewRecorder()
	srv.handleCSV(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "b3_monitor_12w_min30pct.csv") {
		t.Errorf("content-disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[1], "ALFA3,60.00,") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestHandleRefresh(t *testing.T) {
	srv, ref := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	w := httptest.NewRecorder()
	srv.handleRefresh(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	// the refresh runs in a goroutine; poll briefly
	deadline := time.Now().Add(time.Second)
	for !ref.called.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !ref.called.Load() {
		t.Error("expected refresher to be triggered")
	}

	get := httptest.NewRequest(http.MethodGet, "/refresh", nil)
	w = httptest.NewRecorder()
	srv.handleRefresh(w, get)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /refresh status = %d, want 405", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	var status map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["status"] != "warming_up" {
		t.Errorf("status = %v, want warming_up before first refresh", status["status"])
	}
}
