package nearby

import (
	"time"

	"tidbyt.dev/nearby/model"
)

// Departures less than MinMinutes or more than MaxMinutes away are
// not shown. Both bounds are inclusive.
type Window struct {
	MinMinutes int
	MaxMinutes int
}

// Checks whether a departure should be shown, given the time it takes
// to walk to the station.
//
// The window and walk time checks use the scheduled time. The
// returned MinutesUntil has the delay applied.
//
// Departures with unparseable timestamps, or missing line or
// direction, are rejected.
func Reachable(dep model.RawDeparture, now time.Time, walk int, window Window) (model.ReachableDeparture, bool) {
	if dep.When == "" || dep.LineName == "" || dep.Direction == "" {
		return model.ReachableDeparture{}, false
	}

	when, err := time.Parse(time.RFC3339, dep.When)
	if err != nil {
		return model.ReachableDeparture{}, false
	}

	minutesUntil := int(when.Sub(now) / time.Minute)

	if minutesUntil < window.MinMinutes || minutesUntil > window.MaxMinutes {
		return model.ReachableDeparture{}, false
	}
	if minutesUntil < walk {
		return model.ReachableDeparture{}, false
	}

	delay := 0
	if dep.DelaySeconds != nil {
		delay = *dep.DelaySeconds / 60
	}

	return model.ReachableDeparture{
		LineName:     dep.LineName,
		Direction:    dep.Direction,
		MinutesUntil: minutesUntil + delay,
		DelayMinutes: delay,
		Platform:     dep.Platform,
		LineProduct:  dep.LineProduct,
	}, true
}

// Applies Reachable to all departures, preserving order.
func FilterReachable(deps []model.RawDeparture, now time.Time, walk int, window Window) []model.ReachableDeparture {
	reachable := []model.ReachableDeparture{}
	for _, dep := range deps {
		if r, ok := Reachable(dep, now, walk, window); ok {
			reachable = append(reachable, r)
		}
	}
	return reachable
}
