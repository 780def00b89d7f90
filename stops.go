package nearby

import (
	"context"
	"sort"

	"tidbyt.dev/nearby/model"
)

// Finds stations near a location from a fixed station list, such as
// the stops.txt of a GTFS feed.
type StopIndex struct {
	stations []model.Station
}

// Stations without coordinates are dropped.
func NewStopIndex(stations []model.Station) *StopIndex {
	indexed := make([]model.Station, 0, len(stations))
	for _, station := range stations {
		if station.Location == nil {
			continue
		}
		indexed = append(indexed, station)
	}
	return &StopIndex{stations: indexed}
}

func (i *StopIndex) Len() int {
	return len(i.stations)
}

// Stations within radius meters of loc, closest first.
func (i *StopIndex) NearbyStations(ctx context.Context, loc model.Location, radius int) ([]model.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type candidate struct {
		station  model.Station
		distance float64
	}

	candidates := []candidate{}
	for _, station := range i.stations {
		d := DistanceMeters(loc, *station.Location)
		if d > float64(radius) {
			continue
		}
		candidates = append(candidates, candidate{station, d})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].distance < candidates[b].distance
	})

	stations := make([]model.Station, 0, len(candidates))
	for _, c := range candidates {
		stations = append(stations, c.station)
	}

	return stations, nil
}

// Transit looking up stations in a StopIndex, and departures
// upstream.
type IndexedTransit struct {
	Transit
	Index *StopIndex
}

func (t *IndexedTransit) NearbyStations(ctx context.Context, loc model.Location, radius int) ([]model.Station, error) {
	return t.Index.NearbyStations(ctx, loc, radius)
}
