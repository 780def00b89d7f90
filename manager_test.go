package nearby

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/nearby/model"
	"tidbyt.dev/nearby/storage"
	"tidbyt.dev/nearby/testutil"
	"tidbyt.dev/nearby/transit"
)

var managerNow = time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)

type managerFixture struct {
	server  *testutil.MockTransitServer
	storage *storage.MemoryStorage
	manager *Manager
}

func newManagerFixture(t *testing.T) *managerFixture {
	server := testutil.NewMockTransitServer()
	t.Cleanup(server.Close)

	s := storage.NewMemoryStorage()
	m := NewManager(
		s,
		transit.NewClient(server.URL(), nil),
		transit.NewGeocoder(server.URL()+"/search", nil),
	)
	m.Now = func() time.Time { return managerNow }

	return &managerFixture{server: server, storage: s, manager: m}
}

// Puts home in central Berlin, with two stations within 5 minutes
// and one about 18 minutes away.
func (f *managerFixture) withStations(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Latitude = 52.52
	settings.Longitude = 13.405
	settings.Language = "en"
	require.NoError(t, f.storage.WriteSettings(settings))

	f.server.Set("/locations/nearby", testutil.StationsJSON(t, []testutil.Station{
		{ID: "far", Name: "Far", Lat: 52.53, Lon: 13.405},
		{ID: "a", Name: "A", Lat: 52.52306, Lon: 13.405},
		{ID: "b", Name: "B", Lat: 52.52, Lon: 13.401},
	}))
}

func TestManagerBoardNoLocation(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.manager.Board(context.Background())
	assert.True(t, errors.Is(err, ErrNoLocation))

	_, err = f.manager.Stations(context.Background())
	assert.True(t, errors.Is(err, ErrNoLocation))

	assert.Equal(t, 0, len(f.server.Requests))
}

func TestManagerBoard(t *testing.T) {
	f := newManagerFixture(t)
	f.withStations(t)

	f.server.Set(testutil.DeparturesPath("a"), testutil.DeparturesJSON(t, []testutil.Departure{
		{When: managerNow.Add(4 * time.Minute), Line: "M10", Product: "tram", Direction: "Warschauer Str."},
		{When: managerNow.Add(6 * time.Minute), Line: "M10", Product: "tram", Direction: "Warschauer Str."},
		{When: managerNow.Add(12 * time.Minute), Line: "M10", Product: "tram", Direction: "Warschauer Str."},
		{When: managerNow.Add(15 * time.Minute), Line: "U8", Product: "subway", Direction: "Neukölln", Platform: "2", Delay: testutil.Delay(120)},
	}))
	// No departures for b, its requests fail with 404

	board, err := f.manager.Board(context.Background())
	require.NoError(t, err)

	require.Len(t, board, 2)
	assert.Equal(t, "Other Destinations", board[0].Area)
	require.Len(t, board[0].Rows, 1)
	assert.Equal(t, model.BoardRow{
		StationName:    "A",
		Line:           "M10",
		LineType:       "tram",
		Direction:      "Warschauer Str.",
		Minutes:        6,
		NextTimes:      []int{12},
		LeaveInMinutes: 1,
		LeaveLabel:     "1 min",
		Urgency:        model.UrgencySoon,
		Area:           "Other Destinations",
	}, board[0].Rows[0])

	assert.Equal(t, "South Berlin", board[1].Area)
	require.Len(t, board[1].Rows, 1)
	row := board[1].Rows[0]
	assert.Equal(t, "u8", row.LineType)
	assert.Equal(t, 17, row.Minutes)
	assert.Equal(t, "2", row.Platform)
	require.NotNil(t, row.Delay)
	assert.Equal(t, 2, *row.Delay)

	// The far station is never asked for departures
	nearby := f.server.RequestsTo("/locations/nearby")
	require.Len(t, nearby, 1)
	assert.Contains(t, nearby[0], "distance=800")
	assert.Contains(t, nearby[0], "latitude=52.52")
	assert.Contains(t, nearby[0], "longitude=13.405")

	assert.Len(t, f.server.RequestsTo("/stops/a/departures"), 1)
	assert.Len(t, f.server.RequestsTo("/stops/b/departures"), 1)
	assert.Len(t, f.server.RequestsTo("/stops/far/departures"), 0)
	assert.Contains(t, f.server.RequestsTo("/stops/a/departures")[0], "results=30")
}

func TestManagerBoardStationsUnavailable(t *testing.T) {
	f := newManagerFixture(t)
	f.withStations(t)
	f.server.Set("/locations/nearby", []byte("not json"))

	board, err := f.manager.Board(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.AreaGroup{}, board)
	assert.Len(t, f.server.RequestsTo("/stops/"), 0)
}

func TestManagerBoardSelectedStations(t *testing.T) {
	f := newManagerFixture(t)
	f.withStations(t)
	f.manager.Concurrency = 1

	for _, id := range []string{"a", "b"} {
		f.server.Set(testutil.DeparturesPath(id), testutil.DeparturesJSON(t, []testutil.Departure{
			{When: managerNow.Add(20 * time.Minute), Line: "S1", Product: "suburban", Direction: "Potsdam Hbf"},
		}))
	}

	board, err := f.manager.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Len(t, board[0].Rows, 2)

	settings, err := f.manager.SelectStations([]string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, settings.SelectedStations)

	board, err = f.manager.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Len(t, board[0].Rows, 1)
	assert.Equal(t, "B", board[0].Rows[0].StationName)
	assert.Equal(t, "Brandenburg", board[0].Area)
	assert.Equal(t, "s1", board[0].Rows[0].LineType)

	// Selecting nothing shows everything again
	_, err = f.manager.SelectStations(nil)
	require.NoError(t, err)
	board, err = f.manager.Board(context.Background())
	require.NoError(t, err)
	assert.Len(t, board[0].Rows, 2)
}

func TestManagerStations(t *testing.T) {
	f := newManagerFixture(t)
	f.withStations(t)

	stations, err := f.manager.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Equal(t, "b", stations[0].ID)
	assert.Equal(t, "a", stations[1].ID)
	assert.Equal(t, 4, *stations[0].WalkMinutes)
	assert.Equal(t, 270, *stations[0].DistanceMeters)
	assert.Equal(t, 5, *stations[1].WalkMinutes)
	assert.Equal(t, 340, *stations[1].DistanceMeters)

	// Walking further reveals the far station
	settings, err := f.manager.Settings()
	require.NoError(t, err)
	_, err = f.manager.UpdateParameters(Parameters{
		MaxWalkMinutes:          20,
		MaxDeparturesPerStation: settings.MaxDeparturesPerStation,
		MinMinutes:              settings.MinMinutes,
		MaxMinutes:              settings.MaxMinutes,
		ShowPlatform:            settings.ShowPlatform,
	})
	require.NoError(t, err)

	stations, err = f.manager.Stations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 3)
	assert.Equal(t, "far", stations[2].ID)
	assert.Equal(t, 18, *stations[2].WalkMinutes)
}

func TestManagerSetAddress(t *testing.T) {
	f := newManagerFixture(t)
	f.server.Set("/search", []byte(`[{"lat": "52.5219", "lon": "13.4132", "display_name": "Alexanderplatz"}]`))

	settings, err := f.manager.SetAddress(context.Background(), "Alexanderplatz 1")
	require.NoError(t, err)
	assert.Equal(t, "Alexanderplatz 1", settings.Address)
	assert.Equal(t, 52.5219, settings.Latitude)
	assert.Equal(t, 13.4132, settings.Longitude)

	stored, err := f.storage.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, settings, stored)

	reqs := f.server.RequestsTo("/search")
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0], "q=Alexanderplatz+1%2C+Berlin%2C+Germany")
	assert.Contains(t, reqs[0], "format=json")
}

func TestManagerSetAddressNotFound(t *testing.T) {
	f := newManagerFixture(t)
	f.server.Set("/search", []byte(`[]`))

	_, err := f.manager.SetAddress(context.Background(), "Nowhere 1")
	assert.True(t, errors.Is(err, ErrAddressNotFound))

	stored, err := f.storage.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "", stored.Address)
}

func TestManagerSetAddressGeocoderFailure(t *testing.T) {
	f := newManagerFixture(t)
	f.server.Close()

	_, err := f.manager.SetAddress(context.Background(), "Alexanderplatz 1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAddressNotFound))
	assert.True(t, strings.HasPrefix(err.Error(), "geocoding"))
}

func TestManagerClearAddress(t *testing.T) {
	f := newManagerFixture(t)
	f.withStations(t)

	settings, err := f.manager.SetAddress(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", settings.Address)
	assert.Equal(t, 52.52, settings.Latitude)
	assert.Len(t, f.server.RequestsTo("/search"), 0)
}

func TestManagerUpdateParameters(t *testing.T) {
	f := newManagerFixture(t)

	settings, err := f.manager.UpdateParameters(Parameters{
		MaxWalkMinutes:          15,
		MaxDeparturesPerStation: 10,
		MinMinutes:              0,
		MaxMinutes:              45,
		ShowPlatform:            false,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, settings.MaxWalkMinutes)
	assert.False(t, settings.ShowPlatform)

	_, err = f.manager.UpdateParameters(Parameters{
		MaxWalkMinutes:          0,
		MaxDeparturesPerStation: 10,
		MinMinutes:              20,
		MaxMinutes:              10,
	})
	assert.True(t, errors.Is(err, model.ErrInvalidSettings))

	stored, err := f.storage.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 15, stored.MaxWalkMinutes)
	assert.Equal(t, 45, stored.MaxMinutes)
}

func TestManagerSetLanguage(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.manager.SetLanguage("fr")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))

	settings, err := f.manager.SetLanguage("en")
	require.NoError(t, err)
	assert.Equal(t, "en", settings.Language)

	stored, err := f.storage.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "en", stored.Language)
}

// Transit serving fixed stations and departures. Departures for
// stations in block wait for the context to be done.
type stubTransit struct {
	stations   []model.Station
	departures map[string][]model.RawDeparture
	block      map[string]bool

	mutex sync.Mutex
	calls map[string]int
}

func (s *stubTransit) NearbyStations(ctx context.Context, loc model.Location, radius int) ([]model.Station, error) {
	return s.stations, nil
}

func (s *stubTransit) Departures(ctx context.Context, stationID string, limit int) ([]model.RawDeparture, error) {
	s.mutex.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[stationID]++
	s.mutex.Unlock()

	if s.block[stationID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.departures[stationID], nil
}

func stubManager(t *testing.T, s storage.Storage, tr Transit) *Manager {
	settings := model.DefaultSettings()
	settings.Latitude = 52.52
	settings.Longitude = 13.405
	settings.Language = "en"
	require.NoError(t, s.WriteSettings(settings))

	m := NewManager(s, tr, nil)
	m.Now = func() time.Time { return managerNow }
	return m
}

func TestManagerBoardDeparturesTimeout(t *testing.T) {
	tr := &stubTransit{
		stations: []model.Station{nearStation("slow", "Slow"), nearStation("fast", "Fast")},
		departures: map[string][]model.RawDeparture{
			"slow": {rawDeparture(managerNow, 10*time.Minute, "U8", "Wittenau")},
			"fast": {rawDeparture(managerNow, 10*time.Minute, "M10", "Warschauer Str.")},
		},
		block: map[string]bool{"slow": true},
	}

	m := stubManager(t, storage.NewMemoryStorage(), tr)
	m.DeparturesTimeout = 20 * time.Millisecond

	start := time.Now()
	board, err := m.Board(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, board, 1)
	require.Len(t, board[0].Rows, 1)
	assert.Equal(t, "Fast", board[0].Rows[0].StationName)
	assert.Equal(t, "M10", board[0].Rows[0].Line)
	assert.Equal(t, 1, tr.calls["slow"])
}

func TestManagerBoardRepeatedStation(t *testing.T) {
	tr := &stubTransit{
		stations: []model.Station{nearStation("a", "A"), nearStation("a", "A again")},
		departures: map[string][]model.RawDeparture{
			"a": {rawDeparture(managerNow, 10*time.Minute, "U8", "Wittenau")},
		},
	}

	m := stubManager(t, storage.NewMemoryStorage(), tr)

	board, err := m.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Len(t, board[0].Rows, 1)
	assert.Equal(t, "A", board[0].Rows[0].StationName)
	assert.Equal(t, 1, tr.calls["a"])
}

func TestManagerBoardWithSettings(t *testing.T) {
	tr := &stubTransit{
		stations: []model.Station{nearStation("a", "A")},
		departures: map[string][]model.RawDeparture{
			"a": {rawDeparture(managerNow, 10*time.Minute, "U8", "Wittenau")},
		},
	}

	s := storage.NewMemoryStorage()
	m := stubManager(t, s, tr)

	board, settings, err := m.BoardWithSettings(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.True(t, settings.ShowPlatform)
	assert.Equal(t, "en", settings.Language)
	assert.Equal(t, "5 min", board[0].Rows[0].LeaveLabel)

	_, _, err = NewManager(storage.NewMemoryStorage(), tr, nil).BoardWithSettings(context.Background())
	assert.True(t, errors.Is(err, ErrNoLocation))
}

func TestManagerSelectStationsDeduplicates(t *testing.T) {
	for _, backend := range append(append([]string{}, testutil.Backends...), "postgres") {
		t.Run(backend, func(t *testing.T) {
			s := testutil.BuildStorage(t, backend)
			m := NewManager(s, &stubTransit{}, nil)

			settings, err := m.SelectStations([]string{"a", "b", "a", "", "c", "b"})
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, settings.SelectedStations)

			stored, err := s.LoadSettings()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, stored.SelectedStations)
		})
	}
}
