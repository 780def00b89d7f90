package parse

import (
	"encoding/json"

	"github.com/pkg/errors"

	"tidbyt.dev/nearby/model"
)

type StationJSON struct {
	ID       *string `json:"id"`
	Name     string  `json:"name"`
	Location *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"location"`
}

// Parses a nearby locations response into stations. Entries lacking
// an id are skipped, as are entries that aren't objects. Stations
// with incomplete coordinates get a nil Location.
func ParseStations(data []byte) ([]model.Station, error) {
	entries := []json.RawMessage{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "unmarshaling stations")
	}

	stations := []model.Station{}
	for _, entry := range entries {
		sj := StationJSON{}
		if err := json.Unmarshal(entry, &sj); err != nil {
			continue
		}
		if sj.ID == nil || *sj.ID == "" {
			continue
		}

		station := model.Station{
			ID:   *sj.ID,
			Name: sj.Name,
		}
		if sj.Location != nil && sj.Location.Latitude != nil && sj.Location.Longitude != nil {
			station.Location = &model.Location{
				Latitude:  *sj.Location.Latitude,
				Longitude: *sj.Location.Longitude,
			}
		}

		stations = append(stations, station)
	}

	return stations, nil
}
