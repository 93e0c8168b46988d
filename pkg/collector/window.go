package collector

import (
	"fmt"
	"time"
)

const (
	// windowSize is the width of the rollup queried for each metric,
	// matching servicebus.RollupFiveMinutes.
	//
	windowSize = 5 * time.Minute

	// reportingDelay is how far in the past windows end, giving the
	// service time to finish aggregating a rollup.
	//
	reportingDelay = 15 * time.Minute

	filterTimeLayout = "2006-01-02T15:04:05Z"
)

// RateWindow is the [Lower, Upper) interval metric rollups are queried for.
//
type RateWindow struct {
	Lower time.Time
	Upper time.Time
}

// NewRateWindow computes the window for a pass happening at `now`: it ends
// 15 minutes before `now`, snapped down to a multiple of 5 minutes, and spans
// 5 minutes.
//
//	now=10:07:33 -> [09:45:00, 09:50:00)
//
func NewRateWindow(now time.Time) RateWindow {
	base := now.UTC().Add(-reportingDelay)

	upper := time.Date(
		base.Year(), base.Month(), base.Day(),
		base.Hour(), base.Minute()-base.Minute()%5, 0, 0,
		time.UTC,
	)

	return RateWindow{
		Lower: upper.Add(-windowSize),
		Upper: upper,
	}
}

// Timestamp is the unix time (in seconds) every windowed metric of a pass is
// reported at.
//
func (w RateWindow) Timestamp() int64 {
	return w.Upper.Unix()
}

// Filter renders the window as an OData filter expression for the metric
// values endpoint.
//
func (w RateWindow) Filter() string {
	return fmt.Sprintf(
		"Timestamp ge datetime'%s' and Timestamp lt datetime'%s'",
		w.Lower.Format(filterTimeLayout),
		w.Upper.Format(filterTimeLayout),
	)
}
