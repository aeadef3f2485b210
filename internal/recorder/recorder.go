package recorder

import (
	"time"

	"b3monitor/internal/model"
)

// RunRecord holds all data for one screening run.
type RunRecord struct {
	Params       model.ScreenParams
	Rows         []model.GainerRow
	UniverseSize int
	Fetched      int
	Failed       int
	Duration     time.Duration
}

// Recorder persists screening runs for later analysis.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	Close() error
}
