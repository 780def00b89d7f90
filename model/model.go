package model

import (
	"errors"
	"fmt"
)

// Holds all external facing types and constants.

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// A stop or station returned by a nearby stations lookup.
//
// WalkMinutes and DistanceMeters are only set when the station has
// been annotated relative to a home location.
type Station struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Location       *Location `json:"location,omitempty"`
	WalkMinutes    *int      `json:"walk_time,omitempty"`
	DistanceMeters *int      `json:"distance,omitempty"`
}

// A vehicle departing from a station, as reported upstream.
//
// When is kept as the raw RFC 3339 timestamp. It's parsed when the
// board is computed, so that a single malformed departure can be
// dropped without affecting the others.
type RawDeparture struct {
	When         string `json:"when"`
	LineName     string `json:"line"`
	LineProduct  string `json:"product,omitempty"`
	Direction    string `json:"direction"`
	Platform     string `json:"platform,omitempty"`
	DelaySeconds *int   `json:"delay,omitempty"`
}

// A departure that passed the time window and walk time checks.
// MinutesUntil includes the delay.
type ReachableDeparture struct {
	LineName     string
	Direction    string
	MinutesUntil int
	DelayMinutes int
	Platform     string
	LineProduct  string
}

type Urgency string

const (
	UrgencyNow   Urgency = "now"
	UrgencySoon  Urgency = "soon"
	UrgencyLater Urgency = "later"
)

// One line of the departure board: the next departure of a line in
// a direction from a station, plus up to two following ones.
type BoardRow struct {
	StationName    string  `json:"station_name"`
	Line           string  `json:"line"`
	LineType       string  `json:"line_type"`
	Direction      string  `json:"direction"`
	Minutes        int     `json:"minutes"`
	NextTimes      []int   `json:"next_times"`
	Platform       string  `json:"platform"`
	LeaveInMinutes int     `json:"leave_in_minutes"`
	LeaveLabel     string  `json:"leave_time"`
	Urgency        Urgency `json:"urgency"`
	Delay          *int    `json:"delay"`
	Area           string  `json:"area"`
}

type AreaGroup struct {
	Area string     `json:"area"`
	Rows []BoardRow `json:"departures"`
}

// Maps directions containing any of Keywords (lowercase) to Area.
type AreaRule struct {
	Area     string
	Keywords []string
}

var ErrInvalidSettings = errors.New("invalid settings")

type Settings struct {
	Address                 string   `json:"address"`
	Latitude                float64  `json:"latitude"`
	Longitude               float64  `json:"longitude"`
	MaxWalkMinutes          int      `json:"max_walk_minutes"`
	MaxDeparturesPerStation int      `json:"max_departures_per_station"`
	MinMinutes              int      `json:"min_minutes"`
	MaxMinutes              int      `json:"max_minutes"`
	ShowPlatform            bool     `json:"show_platform"`
	SelectedStations        []string `json:"selected_stations"`
	Language                string   `json:"language"`
}

func DefaultSettings() *Settings {
	return &Settings{
		MaxWalkMinutes:          10,
		MaxDeparturesPerStation: 30,
		MinMinutes:              2,
		MaxMinutes:              30,
		ShowPlatform:            true,
		SelectedStations:        []string{},
		Language:                "de",
	}
}

// A zero coordinate counts as unset.
func (s *Settings) HasLocation() bool {
	return s.Latitude != 0 && s.Longitude != 0
}

func (s *Settings) Location() Location {
	return Location{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Reports whether a station should be shown. An empty selection
// selects everything.
func (s *Settings) IsSelected(stationID string) bool {
	if len(s.SelectedStations) == 0 {
		return true
	}
	for _, id := range s.SelectedStations {
		if id == stationID {
			return true
		}
	}
	return false
}

// Checks the user editable parameters. All problems found are
// reported, each wrapping ErrInvalidSettings.
func (s *Settings) Validate() error {
	errs := []error{}
	if s.MaxWalkMinutes <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_walk_minutes must be > 0", ErrInvalidSettings))
	}
	if s.MaxDeparturesPerStation <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_departures_per_station must be > 0", ErrInvalidSettings))
	}
	if s.MinMinutes < 0 {
		errs = append(errs, fmt.Errorf("%w: min_minutes must be >= 0", ErrInvalidSettings))
	}
	if s.MaxMinutes < s.MinMinutes {
		errs = append(errs, fmt.Errorf("%w: max_minutes must be >= min_minutes", ErrInvalidSettings))
	}
	return errors.Join(errs...)
}

func (s *Settings) Clone() *Settings {
	c := *s
	c.SelectedStations = append([]string{}, s.SelectedStations...)
	return &c
}
