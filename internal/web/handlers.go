package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"b3monitor/internal/model"
	"b3monitor/internal/screener"
)

// parseParams reads weeks/min from the query string, clamping to the
// configured bounds. Missing or malformed values fall back to defaults.
func (s *Server) parseParams(r *http.Request) model.ScreenParams {
	p := s.defaults

	if v := r.URL.Query().Get("weeks"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Weeks = n
		}
	}
	if v := r.URL.Query().Get("min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.MinReturnPct = f
		}
	}

	if p.Weeks < s.limits.MinWeeks {
		p.Weeks = s.limits.MinWeeks
	}
	if p.Weeks > s.limits.MaxWeeks {
		p.Weeks = s.limits.MaxWeeks
	}
	if p.MinReturnPct < 0 {
		p.MinReturnPct = 0
	}
	if s.limits.MaxReturnPct > 0 && p.MinReturnPct > s.limits.MaxReturnPct {
		p.MinReturnPct = s.limits.MaxReturnPct
	}
	return p
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := s.parseParams(r)
	view := dashboardView{
		Params:   params,
		MinWeeks: s.limits.MinWeeks,
		MaxWeeks: s.limits.MaxWeeks,
	}

	res, err := s.screener.Gainers(params.Weeks, params.MinReturnPct)
	switch {
	case errors.Is(err, screener.ErrNoSnapshot):
		view.Waiting = true
	case err != nil:
		log.Printf("[ERROR] screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	default:
		view.Result = res
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, view); err != nil {
		log.Printf("[ERROR] render dashboard: %v", err)
	}
}

func (s *Server) handleGainers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := s.parseParams(r)
	res, err := s.screener.Gainers(params.Weeks, params.MinReturnPct)
	if errors.Is(err, screener.ErrNoSnapshot) {
		writeJSONError(w, http.StatusServiceUnavailable, "first data collection still in progress")
		return
	}
	if err != nil {
		log.Printf("[ERROR] screen: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(res)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params := s.parseParams(r)
	res, err := s.screener.Gainers(params.Weeks, params.MinReturnPct)
	if errors.Is(err, screener.ErrNoSnapshot) {
		http.Error(w, "first data collection still in progress", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("[ERROR] screen: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("b3_monitor_%dw_min%.0fpct.csv", params.Weeks, params.MinReturnPct)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	cw := csv.NewWriter(w)
	cw.Write([]string{"ticker", "change_pct", "last_close", "ref_close", "last_date", "ref_date"})
	for _, row := range res.Rows {
		cw.Write([]string{
			row.Ticker,
			strconv.FormatFloat(row.ChangePct, 'f', 2, 64),
			strconv.FormatFloat(row.LastClose, 'f', 4, 64),
			strconv.FormatFloat(row.RefClose, 'f', 4, 64),
			row.LastDate.Format("2006-01-02"),
			row.RefDate.Format("2006-01-02"),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[ERROR] write csv: %v", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	go s.refresher.RunRefreshNow()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	if snap := s.screener.Snapshot(); snap != nil {
		status["fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
		status["snapshot_age_seconds"] = int(time.Since(snap.FetchedAt).Seconds())
		status["series"] = len(snap.Series)
	} else {
		status["status"] = "warming_up"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
