package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRateWindow(t *testing.T) {
	for _, tc := range []struct {
		name  string
		now   time.Time
		lower time.Time
		upper time.Time
	}{
		{
			name:  "mid interval",
			now:   time.Date(2023, 1, 1, 10, 7, 33, 0, time.UTC),
			lower: time.Date(2023, 1, 1, 9, 45, 0, 0, time.UTC),
			upper: time.Date(2023, 1, 1, 9, 50, 0, 0, time.UTC),
		},
		{
			name:  "on the boundary",
			now:   time.Date(2023, 1, 1, 10, 15, 0, 0, time.UTC),
			lower: time.Date(2023, 1, 1, 9, 55, 0, 0, time.UTC),
			upper: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "sub-second precision is dropped",
			now:   time.Date(2023, 1, 1, 10, 19, 59, 999999999, time.UTC),
			lower: time.Date(2023, 1, 1, 9, 55, 0, 0, time.UTC),
			upper: time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "crossing midnight",
			now:   time.Date(2023, 1, 1, 0, 3, 0, 0, time.UTC),
			lower: time.Date(2022, 12, 31, 23, 40, 0, 0, time.UTC),
			upper: time.Date(2022, 12, 31, 23, 45, 0, 0, time.UTC),
		},
		{
			name:  "non-utc input",
			now:   time.Date(2023, 1, 1, 12, 7, 33, 0, time.FixedZone("CEST", 2*60*60)),
			lower: time.Date(2023, 1, 1, 9, 45, 0, 0, time.UTC),
			upper: time.Date(2023, 1, 1, 9, 50, 0, 0, time.UTC),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := NewRateWindow(tc.now)

			assert.Equal(t, tc.lower, w.Lower)
			assert.Equal(t, tc.upper, w.Upper)
			assert.Equal(t, time.UTC, w.Upper.Location())
			assert.Equal(t, tc.upper.Unix(), w.Timestamp())
		})
	}
}

func TestNewRateWindow_Properties(t *testing.T) {
	start := time.Date(2023, 3, 26, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 24*60*60; i += 37 {
		now := start.Add(time.Duration(i) * time.Second)
		w := NewRateWindow(now)

		assert.Equal(t, windowSize, w.Upper.Sub(w.Lower))
		assert.Zero(t, w.Upper.Minute()%5)
		assert.Zero(t, w.Upper.Second())
		assert.Zero(t, w.Upper.Nanosecond())
		assert.False(t, w.Upper.After(now.Add(-reportingDelay)))
		assert.True(t, w.Upper.After(now.Add(-reportingDelay-windowSize)))
	}
}

func TestRateWindow_Filter(t *testing.T) {
	w := NewRateWindow(time.Date(2023, 1, 1, 10, 7, 33, 0, time.UTC))

	assert.Equal(t,
		"Timestamp ge datetime'2023-01-01T09:45:00Z' and "+
			"Timestamp lt datetime'2023-01-01T09:50:00Z'",
		w.Filter())
	assert.Equal(t, int64(1672566600), w.Timestamp())
}
