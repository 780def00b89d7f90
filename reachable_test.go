package nearby

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/nearby/model"
)

var berlin = time.FixedZone("CEST", 2*60*60)

func intPtr(i int) *int {
	return &i
}

func rawDeparture(now time.Time, in time.Duration, line string, direction string) model.RawDeparture {
	return model.RawDeparture{
		When:      now.Add(in).Format(time.RFC3339),
		LineName:  line,
		Direction: direction,
	}
}

func TestReachableWindow(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)
	window := Window{MinMinutes: 2, MaxMinutes: 30}

	for _, tc := range []struct {
		name     string
		in       time.Duration
		walk     int
		expected bool
	}{
		{"at_min", 2 * time.Minute, 0, true},
		{"below_min", 1 * time.Minute, 0, false},
		{"truncated_below_min", 119 * time.Second, 0, false},
		{"at_max", 30 * time.Minute, 0, true},
		{"truncated_at_max", 30*time.Minute + 59*time.Second, 0, true},
		{"above_max", 31 * time.Minute, 0, false},
		{"in_past", -5 * time.Minute, 0, false},
		{"walk_equal", 5 * time.Minute, 5, true},
		{"walk_longer", 4 * time.Minute, 5, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Reachable(rawDeparture(now, tc.in, "M10", "Warschauer Str."), now, tc.walk, window)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestReachableTruncatesTowardZero(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)

	// 30 seconds ago is 0 minutes, not -1
	dep, ok := Reachable(rawDeparture(now, -30*time.Second, "M10", "X"), now, 0, Window{0, 10})
	require.True(t, ok)
	assert.Equal(t, 0, dep.MinutesUntil)

	dep, ok = Reachable(rawDeparture(now, 5*time.Minute+59*time.Second, "M10", "X"), now, 0, Window{0, 10})
	require.True(t, ok)
	assert.Equal(t, 5, dep.MinutesUntil)
}

func TestReachableTimezones(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)

	for _, when := range []string{
		"2024-05-01T10:06:00Z",
		"2024-05-01T10:06:00+00:00",
		"2024-05-01T12:06:00+02:00",
		"2024-05-01T06:06:00-04:00",
		"2024-05-01T12:06:00.000+02:00",
	} {
		dep, ok := Reachable(model.RawDeparture{
			When:      when,
			LineName:  "U8",
			Direction: "Hermannstr.",
		}, now, 0, Window{0, 30})
		require.True(t, ok, when)
		assert.Equal(t, 6, dep.MinutesUntil, when)
	}

	// Now in UTC doesn't change anything
	dep, ok := Reachable(model.RawDeparture{
		When:      "2024-05-01T12:06:00+02:00",
		LineName:  "U8",
		Direction: "Hermannstr.",
	}, now.UTC(), 0, Window{0, 30})
	require.True(t, ok)
	assert.Equal(t, 6, dep.MinutesUntil)
}

func TestReachableDelay(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)
	window := Window{MinMinutes: 2, MaxMinutes: 30}

	for _, tc := range []struct {
		name         string
		in           time.Duration
		delay        *int
		ok           bool
		minutesUntil int
		delayMinutes int
	}{
		{"no_delay", 10 * time.Minute, nil, true, 10, 0},
		{"zero_delay", 10 * time.Minute, intPtr(0), true, 10, 0},
		{"late", 10 * time.Minute, intPtr(180), true, 13, 3},
		{"late_truncated", 10 * time.Minute, intPtr(119), true, 11, 1},
		{"early", 10 * time.Minute, intPtr(-120), true, 8, -2},
		{"early_truncated", 10 * time.Minute, intPtr(-90), true, 9, -1},

		// The window applies to the scheduled time
		{"late_past_max", 29 * time.Minute, intPtr(600), true, 39, 10},
		{"early_below_min", 3 * time.Minute, intPtr(-120), true, 1, -2},
		{"late_still_below_min", 1 * time.Minute, intPtr(600), false, 0, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			raw := rawDeparture(now, tc.in, "M10", "Warschauer Str.")
			raw.DelaySeconds = tc.delay
			raw.Platform = "2"
			raw.LineProduct = "tram"

			dep, ok := Reachable(raw, now, 0, window)
			require.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, model.ReachableDeparture{
				LineName:     "M10",
				Direction:    "Warschauer Str.",
				MinutesUntil: tc.minutesUntil,
				DelayMinutes: tc.delayMinutes,
				Platform:     "2",
				LineProduct:  "tram",
			}, dep)
		})
	}
}

func TestReachableMalformed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)
	window := Window{MinMinutes: 0, MaxMinutes: 30}

	for _, raw := range []model.RawDeparture{
		{When: "", LineName: "M10", Direction: "X"},
		{When: "garbage", LineName: "M10", Direction: "X"},
		{When: "2024-05-01 12:10:00", LineName: "M10", Direction: "X"},
		{When: "2024-05-01T12:10:00", LineName: "M10", Direction: "X"},
		{When: "2024-05-01T12:10:00+02:00", LineName: "", Direction: "X"},
		{When: "2024-05-01T12:10:00+02:00", LineName: "M10", Direction: ""},
	} {
		_, ok := Reachable(raw, now, 0, window)
		assert.False(t, ok, "%+v", raw)
	}
}

func TestFilterReachableSkipsBadDepartures(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)

	deps := []model.RawDeparture{
		rawDeparture(now, 10*time.Minute, "M10", "A"),
		{When: "not a time", LineName: "M10", Direction: "A"},
		rawDeparture(now, 1*time.Minute, "M10", "A"),
		rawDeparture(now, 5*time.Minute, "U8", "B"),
	}

	reachable := FilterReachable(deps, now, 3, Window{2, 30})
	require.Len(t, reachable, 2)
	assert.Equal(t, "M10", reachable[0].LineName)
	assert.Equal(t, 10, reachable[0].MinutesUntil)
	assert.Equal(t, "U8", reachable[1].LineName)
	assert.Equal(t, 5, reachable[1].MinutesUntil)

	assert.Equal(t, []model.ReachableDeparture{}, FilterReachable(nil, now, 0, Window{0, 30}))
}
