package nearby

import (
	"sort"
	"time"

	"tidbyt.dev/nearby/model"
)

// Computes departure boards. The zero value is not usable, use
// NewEngine.
type Engine struct {
	Areas *AreaClassifier
}

// Creates an Engine grouping rows by the given area classifier. Pass
// nil to use DefaultAreaRules.
func NewEngine(areas *AreaClassifier) *Engine {
	if areas == nil {
		areas = NewAreaClassifier(nil)
	}
	return &Engine{Areas: areas}
}

var DefaultEngine = NewEngine(nil)

// Computes a departure board with DefaultEngine.
func ComputeBoard(
	settings *model.Settings,
	stations []model.Station,
	departures map[string][]model.RawDeparture,
	now time.Time,
) []model.AreaGroup {
	return DefaultEngine.ComputeBoard(settings, stations, departures, now)
}

// Computes the departure board for the home location in settings.
//
// departures holds the upstream departures keyed by station ID. A
// station missing from the map simply has no departures.
//
// Stations are skipped if they're not selected, lack coordinates, or
// are further away than settings.MaxWalkMinutes.
//
// The result depends only on the arguments.
func (e *Engine) ComputeBoard(
	settings *model.Settings,
	stations []model.Station,
	departures map[string][]model.RawDeparture,
	now time.Time,
) []model.AreaGroup {
	home := settings.Location()
	labels := LabelsFor(settings.Language)
	window := Window{
		MinMinutes: settings.MinMinutes,
		MaxMinutes: settings.MaxMinutes,
	}

	rows := []model.BoardRow{}
	for _, station := range EligibleStations(settings, stations) {
		walk, _, _ := StationWalk(home, station)
		reachable := FilterReachable(departures[station.ID], now, walk, window)
		rows = append(rows, e.Aggregate(station.Name, walk, reachable, labels)...)
	}

	return AssembleBoard(rows)
}

// Filters stations down to those that should be on the board, in
// their original order. Only the first of several stations sharing
// an ID is kept.
func EligibleStations(settings *model.Settings, stations []model.Station) []model.Station {
	home := settings.Location()

	seen := map[string]bool{}
	eligible := []model.Station{}
	for _, station := range stations {
		if station.ID == "" || seen[station.ID] {
			continue
		}
		if !settings.IsSelected(station.ID) {
			continue
		}
		walk, _, ok := StationWalk(home, station)
		if !ok || walk > settings.MaxWalkMinutes {
			continue
		}
		seen[station.ID] = true
		eligible = append(eligible, station)
	}

	return eligible
}

// Rows you need to leave for now are sorted first, regardless of how
// overdue they are.
func leaveSortKey(row model.BoardRow) int {
	if row.LeaveInMinutes <= 0 {
		return -1
	}
	return row.LeaveInMinutes
}

// Groups rows by area. Areas are sorted by name, and rows within each
// area by leave time.
func AssembleBoard(rows []model.BoardRow) []model.AreaGroup {
	byArea := map[string][]model.BoardRow{}
	for _, row := range rows {
		byArea[row.Area] = append(byArea[row.Area], row)
	}

	areas := make([]string, 0, len(byArea))
	for area := range byArea {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	board := make([]model.AreaGroup, 0, len(areas))
	for _, area := range areas {
		areaRows := byArea[area]
		sort.SliceStable(areaRows, func(i, j int) bool {
			return leaveSortKey(areaRows[i]) < leaveSortKey(areaRows[j])
		})
		board = append(board, model.AreaGroup{Area: area, Rows: areaRows})
	}

	return board
}
