package parse

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"tidbyt.dev/nearby/model"
)

type DepartureJSON struct {
	When      *string  `json:"when"`
	Direction *string  `json:"direction"`
	Delay     *float64 `json:"delay"`
	Platform  *string  `json:"platform"`
	Line      *struct {
		Name    *string `json:"name"`
		Product *string `json:"product"`
	} `json:"line"`
}

type departuresEnvelope struct {
	Departures []json.RawMessage `json:"departures"`
}

// Parses a departures response. Both the {"departures": [...]}
// envelope and a bare array are accepted.
//
// Entries that can't be decoded are skipped. Missing fields are left
// blank, and it's up to the caller to decide what to do with them.
func ParseDepartures(data []byte) ([]model.RawDeparture, error) {
	entries, err := departureEntries(data)
	if err != nil {
		return nil, err
	}

	departures := []model.RawDeparture{}
	for _, entry := range entries {
		dj := DepartureJSON{}
		if err := json.Unmarshal(entry, &dj); err != nil {
			continue
		}

		dep := model.RawDeparture{
			When:      deref(dj.When),
			Direction: deref(dj.Direction),
			Platform:  deref(dj.Platform),
		}
		if dj.Line != nil {
			dep.LineName = deref(dj.Line.Name)
			dep.LineProduct = deref(dj.Line.Product)
		}
		if dj.Delay != nil {
			delay := int(math.Trunc(*dj.Delay))
			dep.DelaySeconds = &delay
		}

		departures = append(departures, dep)
	}

	return departures, nil
}

func departureEntries(data []byte) ([]json.RawMessage, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshaling departures")
	}

	switch firstToken(raw) {
	case '[':
		entries := []json.RawMessage{}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, errors.Wrap(err, "unmarshaling departure list")
		}
		return entries, nil
	case '{':
		envelope := departuresEnvelope{}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, errors.Wrap(err, "unmarshaling departures envelope")
		}
		return envelope.Departures, nil
	}

	// Anything else (null, a string, ...) means no departures.
	return []json.RawMessage{}, nil
}

func firstToken(raw json.RawMessage) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b
	}
	return 0
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
