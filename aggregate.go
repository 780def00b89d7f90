package nearby

import (
	"fmt"
	"sort"

	"tidbyt.dev/nearby/model"
)

// Number of departures shown per line and direction.
const DeparturesPerRow = 3

// Words used when rendering leave times.
type Labels struct {
	Now     string
	Minutes string
}

var labelsByLanguage = map[string]Labels{
	"en": {Now: "now", Minutes: "min"},
	"de": {Now: "jetzt", Minutes: "Min"},
}

// Labels for a language. Unknown languages get English.
func LabelsFor(language string) Labels {
	if l, found := labelsByLanguage[language]; found {
		return l
	}
	return labelsByLanguage["en"]
}

func SupportedLanguage(language string) bool {
	_, found := labelsByLanguage[language]
	return found
}

func urgency(leaveIn int) model.Urgency {
	if leaveIn <= 0 {
		return model.UrgencyNow
	}
	if leaveIn <= 3 {
		return model.UrgencySoon
	}
	return model.UrgencyLater
}

// Turns the reachable departures of a single station into board
// rows, one per line and direction.
//
// Rows are returned in the order their line and direction first
// appear in deps.
func (e *Engine) Aggregate(stationName string, walk int, deps []model.ReachableDeparture, labels Labels) []model.BoardRow {
	type lineDirection struct {
		line      string
		direction string
	}

	keys := []lineDirection{}
	groups := map[lineDirection][]model.ReachableDeparture{}
	for _, dep := range deps {
		key := lineDirection{dep.LineName, dep.Direction}
		if _, found := groups[key]; !found {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], dep)
	}

	rows := make([]model.BoardRow, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].MinutesUntil < group[j].MinutesUntil
		})
		if len(group) > DeparturesPerRow {
			group = group[:DeparturesPerRow]
		}

		first := group[0]
		leaveIn := first.MinutesUntil - walk

		leaveLabel := labels.Now
		if leaveIn > 0 {
			leaveLabel = fmt.Sprintf("%d %s", leaveIn, labels.Minutes)
		}

		nextTimes := []int{}
		for _, dep := range group[1:] {
			nextTimes = append(nextTimes, dep.MinutesUntil)
		}

		var delay *int
		if first.DelayMinutes > 0 {
			d := first.DelayMinutes
			delay = &d
		}

		rows = append(rows, model.BoardRow{
			StationName:    stationName,
			Line:           key.line,
			LineType:       ClassifyLine(key.line, first.LineProduct),
			Direction:      key.direction,
			Minutes:        first.MinutesUntil,
			NextTimes:      nextTimes,
			Platform:       first.Platform,
			LeaveInMinutes: leaveIn,
			LeaveLabel:     leaveLabel,
			Urgency:        urgency(leaveIn),
			Delay:          delay,
			Area:           e.Areas.Classify(key.direction),
		})
	}

	return rows
}
