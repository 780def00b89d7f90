package parse

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/nearby/model"
)

// GTFS location_type values.
const (
	LocationTypeStop         = 0
	LocationTypeStation      = 1
	LocationTypeEntranceExit = 2
	LocationTypeGenericNode  = 3
	LocationTypeBoardingArea = 4
)

type StopCSV struct {
	ID            string  `csv:"stop_id"`
	Name          string  `csv:"stop_name"`
	Lat           float64 `csv:"stop_lat"`
	Lon           float64 `csv:"stop_lon"`
	LocationType  int8    `csv:"location_type"`
	ParentStation string  `csv:"parent_station"`
}

// Parses a GTFS stops.txt into the stations a passenger would walk
// to. Those are stations (location_type 1) and stops without a
// parent station. Platforms, entrances and other nodes belonging to
// a station are dropped.
func ParseStops(data io.Reader) ([]model.Station, error) {
	stopCsv := []*StopCSV{}
	if err := gocsv.Unmarshal(data, &stopCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	parentRef := map[string]string{}
	stations := []model.Station{}
	for _, st := range stopCsv {
		if st.ID == "" {
			return nil, fmt.Errorf("empty stop_id")
		}
		if stopIDs[st.ID] {
			return nil, fmt.Errorf("repeated stop_id '%s'", st.ID)
		}
		stopIDs[st.ID] = true

		if st.LocationType < LocationTypeStop || st.LocationType > LocationTypeBoardingArea {
			return nil, fmt.Errorf("invalid location_type %d for stop_id '%s'", st.LocationType, st.ID)
		}

		if st.LocationType != LocationTypeGenericNode && st.LocationType != LocationTypeBoardingArea {
			if st.Name == "" {
				return nil, fmt.Errorf("empty stop_name for stop_id '%s'", st.ID)
			}
			if st.Lat == 0 || st.Lon == 0 {
				return nil, fmt.Errorf("empty stop_lat or stop_lon for stop_id '%s'", st.ID)
			}
		}

		if st.ParentStation != "" {
			parentRef[st.ID] = st.ParentStation
		}

		if st.LocationType == LocationTypeStation ||
			(st.LocationType == LocationTypeStop && st.ParentStation == "") {
			stations = append(stations, model.Station{
				ID:       st.ID,
				Name:     st.Name,
				Location: &model.Location{Latitude: st.Lat, Longitude: st.Lon},
			})
		}
	}

	for stopID, parentID := range parentRef {
		if !stopIDs[parentID] {
			return nil, fmt.Errorf("stop '%s' references unknown parent_station '%s'", stopID, parentID)
		}
	}

	return stations, nil
}
