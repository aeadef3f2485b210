// Package web serves the dashboard UI and the JSON/CSV endpoints.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"b3monitor/internal/model"
	"b3monitor/internal/screener"
)

// Refresher triggers an immediate snapshot refresh.
type Refresher interface {
	RunRefreshNow()
}

// Limits bounds the user-adjustable screen parameters.
type Limits struct {
	MinWeeks     int
	MaxWeeks     int
	MaxReturnPct float64
}

// Server is the HTTP server for the dashboard.
type Server struct {
	addr      string
	screener  *screener.Screener
	refresher Refresher
	defaults  model.ScreenParams
	limits    Limits
	server    *http.Server
}

// NewServer creates a new dashboard server.
func NewServer(addr string, scr *screener.Screener, refresher Refresher, defaults model.ScreenParams, limits Limits) *Server {
	return &Server{
		addr:      addr,
		screener:  scr,
		refresher: refresher,
		defaults:  defaults,
		limits:    limits,
	}
}

// Start builds the route table and blocks serving HTTP.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/gainers", s.handleGainers)
	mux.HandleFunc("/gainers.csv", s.handleCSV)
	mux.HandleFunc("/refresh", s.handleRefresh)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	log.Printf("[INFO] dashboard listening on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
