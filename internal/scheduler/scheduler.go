package scheduler

import (
	"context"
	"fmt"
	"log"

	"b3monitor/internal/screener"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes the price snapshot on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Screener *screener.Screener
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, scr *screener.Screener) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Screener: scr,
		Ctx:      ctx,
	}
}

// Register registers the periodic refresh task.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running snapshot refresh")
	if err := s.Screener.Refresh(s.Ctx); err != nil {
		log.Printf("[ERROR] snapshot refresh: %v", err)
	}
}
