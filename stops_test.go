package nearby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/nearby/model"
	"tidbyt.dev/nearby/storage"
	"tidbyt.dev/nearby/testutil"
	"tidbyt.dev/nearby/transit"
)

func indexFixture() *StopIndex {
	return NewStopIndex([]model.Station{
		{ID: "far", Name: "Far", Location: &model.Location{Latitude: 52.53, Longitude: 13.405}},
		{ID: "a", Name: "A", Location: &model.Location{Latitude: 52.52306, Longitude: 13.405}},
		{ID: "nowhere", Name: "Nowhere"},
		{ID: "b", Name: "B", Location: &model.Location{Latitude: 52.52, Longitude: 13.401}},
	})
}

func TestStopIndexNearbyStations(t *testing.T) {
	index := indexFixture()
	assert.Equal(t, 3, index.Len())

	home := model.Location{Latitude: 52.52, Longitude: 13.405}

	ids := func(stations []model.Station) []string {
		ids := []string{}
		for _, s := range stations {
			ids = append(ids, s.ID)
		}
		return ids
	}

	stations, err := index.NearbyStations(context.Background(), home, 800)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(stations))

	stations, err = index.NearbyStations(context.Background(), home, 2000)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "far"}, ids(stations))

	stations, err = index.NearbyStations(context.Background(), home, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{}, ids(stations))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = index.NearbyStations(ctx, home, 800)
	assert.Error(t, err)
}

func TestManagerWithStopIndex(t *testing.T) {
	server := testutil.NewMockTransitServer()
	defer server.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, berlin)
	server.Set(testutil.DeparturesPath("a"), testutil.DeparturesJSON(t, []testutil.Departure{
		{When: now.Add(10 * time.Minute), Line: "U8", Product: "subway", Direction: "Wittenau"},
	}))

	s := storage.NewMemoryStorage()
	settings := model.DefaultSettings()
	settings.Latitude = 52.52
	settings.Longitude = 13.405
	require.NoError(t, s.WriteSettings(settings))

	m := NewManager(s, &IndexedTransit{
		Transit: transit.NewClient(server.URL(), nil),
		Index:   indexFixture(),
	}, nil)
	m.Now = func() time.Time { return now }

	board, err := m.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board, 1)
	require.Len(t, board[0].Rows, 1)
	assert.Equal(t, "A", board[0].Rows[0].StationName)

	assert.Len(t, server.RequestsTo("/locations/nearby"), 0)
	assert.Len(t, server.RequestsTo("/stops/a/departures"), 1)
	assert.Len(t, server.RequestsTo("/stops/b/departures"), 1)
}
