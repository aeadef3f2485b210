package calculator

import (
	"errors"

	"b3monitor/internal/model"
)

// ErrNoReferenceBar is returned when the series does not reach back far
// enough to cover the requested lookback window.
var ErrNoReferenceBar = errors.New("no bar at or before the reference date")

// ChangeOverWeeks computes the percentage change between the latest
// close and the close from weeks ago. The reference bar is the latest
// bar dated at or before (latest date - 7*weeks days), so weekends and
// holidays resolve to the prior trading day. Bars must be ascending.
func ChangeOverWeeks(bars []model.DailyClose, weeks int) (pct float64, last, ref model.DailyClose, err error) {
	if weeks <= 0 {
		return 0, last, ref, errors.New("weeks must be positive")
	}
	if len(bars) == 0 {
		return 0, last, ref, errors.New("no bars provided")
	}

	last = bars[len(bars)-1]
	target := last.Date.AddDate(0, 0, -7*weeks)

	found := false
	for i := len(bars) - 1; i >= 0; i-- {
		if !bars[i].Date.After(target) {
			ref = bars[i]
			found = true
			break
		}
	}
	if !found {
		return 0, last, ref, ErrNoReferenceBar
	}
	if ref.Close <= 0 {
		return 0, last, ref, errors.New("reference close is not positive")
	}

	pct = (last.Close/ref.Close - 1) * 100
	return pct, last, ref, nil
}
