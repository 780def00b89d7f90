package parse

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"tidbyt.dev/nearby/model"
)

// Nominatim reports coordinates as strings.
type PlaceJSON struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Parses a Nominatim search response. Returns nil if nothing was
// found.
func ParseGeocode(data []byte) (*model.Location, error) {
	places := []PlaceJSON{}
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, errors.Wrap(err, "unmarshaling places")
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing lat '%s'", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing lon '%s'", places[0].Lon)
	}

	return &model.Location{Latitude: lat, Longitude: lon}, nil
}
