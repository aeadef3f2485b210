package model

import "time"

// GainerRow is one screening result: a ticker whose price change over
// the lookback window cleared the minimum-return threshold.
type GainerRow struct {
	Ticker    string    `json:"ticker"`
	ChangePct float64   `json:"change_pct"`
	LastClose float64   `json:"last_close"`
	RefClose  float64   `json:"ref_close"`
	LastDate  time.Time `json:"last_date"`
	RefDate   time.Time `json:"ref_date"`
}

// ScreenParams are the user-adjustable screening inputs.
type ScreenParams struct {
	Weeks        int     `json:"weeks"`
	MinReturnPct float64 `json:"min_return_pct"`
}

// ScreenResult bundles the rows with the parameters and snapshot
// metadata they were computed from.
type ScreenResult struct {
	Params       ScreenParams `json:"params"`
	Rows         []GainerRow  `json:"rows"`
	UniverseSize int          `json:"universe_size"`
	Fetched      int          `json:"fetched"`
	Failed       int          `json:"failed"`
	FetchedAt    time.Time    `json:"fetched_at"`
}
