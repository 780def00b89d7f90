package storage

import (
	"tidbyt.dev/nearby/model"
)

// Persists the user's settings. There's a single user, and thus a
// single settings record.
type Storage interface {
	// Retrieves the settings. If none have been written,
	// model.DefaultSettings() is returned.
	LoadSettings() (*model.Settings, error)

	// Writes the settings, replacing any previously written.
	WriteSettings(settings *model.Settings) error

	Close() error
}

// Fills in anything missing from a loaded record with defaults.
func withDefaults(s *model.Settings) *model.Settings {
	d := model.DefaultSettings()
	if s.MaxWalkMinutes == 0 {
		s.MaxWalkMinutes = d.MaxWalkMinutes
	}
	if s.MaxDeparturesPerStation == 0 {
		s.MaxDeparturesPerStation = d.MaxDeparturesPerStation
	}
	if s.Language == "" {
		s.Language = d.Language
	}
	if s.SelectedStations == nil {
		s.SelectedStations = []string{}
	}
	return s
}
