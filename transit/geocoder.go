package transit

import (
	"context"
	"fmt"
	"net/url"

	"tidbyt.dev/nearby/downloader"
	"tidbyt.dev/nearby/model"
	"tidbyt.dev/nearby/parse"
)

const (
	DefaultGeocoderURL   = "https://nominatim.openstreetmap.org/search"
	DefaultAddressSuffix = ", Berlin, Germany"
	DefaultUserAgent     = "BVG-Departure-Board/1.0"
)

// Looks up addresses with a Nominatim search endpoint.
type Geocoder struct {
	URL        string
	UserAgent  string
	Downloader downloader.Downloader
	Options    downloader.GetOptions

	// Appended to every address before searching, to keep results
	// in the right city.
	AddressSuffix string
}

func NewGeocoder(searchURL string, d downloader.Downloader) *Geocoder {
	if searchURL == "" {
		searchURL = DefaultGeocoderURL
	}
	if d == nil {
		d = downloader.NewHTTP()
	}
	return &Geocoder{
		URL:           searchURL,
		UserAgent:     DefaultUserAgent,
		Downloader:    d,
		AddressSuffix: DefaultAddressSuffix,
		Options: downloader.GetOptions{
			Timeout: DefaultTimeout,
			MaxSize: 1 << 20,
		},
	}
}

// Coordinates of an address, or nil if it couldn't be found.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*model.Location, error) {
	u, err := url.Parse(g.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing geocoder url: %w", err)
	}
	u.RawQuery = url.Values{
		"q":      {address + g.AddressSuffix},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	body, err := g.Downloader.Get(ctx, u.String(), map[string]string{
		"User-Agent": g.UserAgent,
	}, g.Options)
	if err != nil {
		return nil, fmt.Errorf("searching for address: %w", err)
	}

	loc, err := parse.ParseGeocode(body)
	if err != nil {
		return nil, fmt.Errorf("parsing search result: %w", err)
	}

	return loc, nil
}
