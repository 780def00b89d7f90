package nearby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tidbyt.dev/nearby/model"
	"tidbyt.dev/nearby/storage"
)

const (
	DefaultStationsTimeout   = 10 * time.Second
	DefaultDeparturesTimeout = 10 * time.Second
	DefaultConcurrency       = 8
)

var (
	ErrNoLocation          = errors.New("no location configured")
	ErrAddressNotFound     = errors.New("address not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Source of stations and departures.
type Transit interface {
	NearbyStations(ctx context.Context, loc model.Location, radius int) ([]model.Station, error)
	Departures(ctx context.Context, stationID string, limit int) ([]model.RawDeparture, error)
}

type Geocoder interface {
	// Returns nil if the address can't be found.
	Geocode(ctx context.Context, address string) (*model.Location, error)
}

// Manager ties settings, transit data and the board computation
// together.
type Manager struct {
	StationsTimeout   time.Duration
	DeparturesTimeout time.Duration

	// Maximum number of departure requests in flight.
	Concurrency int

	Engine *Engine
	Logger *slog.Logger
	Now    func() time.Time

	storage  storage.Storage
	transit  Transit
	geocoder Geocoder
}

func NewManager(s storage.Storage, t Transit, g Geocoder) *Manager {
	return &Manager{
		StationsTimeout:   DefaultStationsTimeout,
		DeparturesTimeout: DefaultDeparturesTimeout,
		Concurrency:       DefaultConcurrency,
		Engine:            DefaultEngine,
		Logger:            slog.Default(),
		Now:               time.Now,

		storage:  s,
		transit:  t,
		geocoder: g,
	}
}

func (m *Manager) Settings() (*model.Settings, error) {
	settings, err := m.storage.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// Computes the departure board for the configured location.
//
// Upstream failures don't fail the board. If stations can't be
// listed, the board is empty. If a station's departures can't be
// retrieved, that station has no departures.
func (m *Manager) Board(ctx context.Context) ([]model.AreaGroup, error) {
	board, _, err := m.BoardWithSettings(ctx)
	return board, err
}

// Like Board, but also returns the settings the board was computed
// from.
func (m *Manager) BoardWithSettings(ctx context.Context) ([]model.AreaGroup, *model.Settings, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, nil, err
	}
	if !settings.HasLocation() {
		return nil, nil, ErrNoLocation
	}

	stations := EligibleStations(settings, m.nearbyStations(ctx, settings))
	departures := m.fetchDepartures(ctx, stations, settings.MaxDeparturesPerStation)

	return m.Engine.ComputeBoard(settings, stations, departures, m.Now()), settings, nil
}

// Lists stations within walking distance, annotated with walk time
// and distance, closest first.
func (m *Manager) Stations(ctx context.Context) ([]model.Station, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}
	if !settings.HasLocation() {
		return nil, ErrNoLocation
	}

	home := settings.Location()

	stations := []model.Station{}
	for _, station := range m.nearbyStations(ctx, settings) {
		walk, distance, ok := StationWalk(home, station)
		if !ok || walk > settings.MaxWalkMinutes {
			continue
		}
		d := int(distance)
		station.WalkMinutes = &walk
		station.DistanceMeters = &d
		stations = append(stations, station)
	}

	sort.SliceStable(stations, func(i, j int) bool {
		return *stations[i].WalkMinutes < *stations[j].WalkMinutes
	})

	return stations, nil
}

// Geocodes an address and makes it the home location.
func (m *Manager) SetAddress(ctx context.Context, address string) (*model.Settings, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}

	settings.Address = address
	if address == "" {
		return settings, m.write(settings)
	}

	ctx, cancel := context.WithTimeout(ctx, m.StationsTimeout)
	defer cancel()

	loc, err := m.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("geocoding: %w", err)
	}
	if loc == nil || loc.Latitude == 0 || loc.Longitude == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}

	settings.Latitude = loc.Latitude
	settings.Longitude = loc.Longitude

	return settings, m.write(settings)
}

// User editable board parameters.
type Parameters struct {
	MaxWalkMinutes          int  `json:"max_walk_minutes"`
	MaxDeparturesPerStation int  `json:"max_departures_per_station"`
	MinMinutes              int  `json:"min_minutes"`
	MaxMinutes              int  `json:"max_minutes"`
	ShowPlatform            bool `json:"show_platform"`
}

func (m *Manager) UpdateParameters(p Parameters) (*model.Settings, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}

	settings.MaxWalkMinutes = p.MaxWalkMinutes
	settings.MaxDeparturesPerStation = p.MaxDeparturesPerStation
	settings.MinMinutes = p.MinMinutes
	settings.MaxMinutes = p.MaxMinutes
	settings.ShowPlatform = p.ShowPlatform

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, m.write(settings)
}

// Restricts the board to the given stations. Pass none to show all.
// Repeated and blank IDs are dropped.
func (m *Manager) SelectStations(stationIDs []string) (*model.Settings, error) {
	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	settings.SelectedStations = []string{}
	for _, id := range stationIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		settings.SelectedStations = append(settings.SelectedStations, id)
	}

	return settings, m.write(settings)
}

func (m *Manager) SetLanguage(language string) (*model.Settings, error) {
	if !SupportedLanguage(language) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	settings, err := m.Settings()
	if err != nil {
		return nil, err
	}

	settings.Language = language

	return settings, m.write(settings)
}

func (m *Manager) write(settings *model.Settings) error {
	if err := m.storage.WriteSettings(settings); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

func (m *Manager) nearbyStations(ctx context.Context, settings *model.Settings) []model.Station {
	ctx, cancel := context.WithTimeout(ctx, m.StationsTimeout)
	defer cancel()

	radius := SearchRadius(settings.MaxWalkMinutes)
	stations, err := m.transit.NearbyStations(ctx, settings.Location(), radius)
	if err != nil {
		m.Logger.Warn("listing nearby stations failed", "radius", radius, "error", err)
		return []model.Station{}
	}

	return stations
}

// Retrieves departures for all stations concurrently. Returns once
// every request has completed or timed out.
func (m *Manager) fetchDepartures(ctx context.Context, stations []model.Station, limit int) map[string][]model.RawDeparture {
	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([][]model.RawDeparture, len(stations))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, station := range stations {
		wg.Add(1)
		go func(i int, stationID string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			ctx, cancel := context.WithTimeout(ctx, m.DeparturesTimeout)
			defer cancel()

			deps, err := m.transit.Departures(ctx, stationID, limit)
			if err != nil {
				m.Logger.Warn("getting departures failed", "station", stationID, "error", err)
				return
			}
			results[i] = deps
		}(i, station.ID)
	}

	wg.Wait()

	departures := make(map[string][]model.RawDeparture, len(stations))
	for i, station := range stations {
		departures[station.ID] = results[i]
	}

	return departures
}
