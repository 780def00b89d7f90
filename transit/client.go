package transit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tidbyt.dev/nearby/downloader"
	"tidbyt.dev/nearby/model"
	"tidbyt.dev/nearby/parse"
)

const (
	DefaultBaseURL        = "https://v6.vbb.transport.rest"
	DefaultTimeout        = 10 * time.Second
	DefaultMaxSize        = 4 << 20 // 4 MB
	DefaultNearbyResults  = 50
	DefaultDurationMinute = 120
)

// Client for a transport.rest style API (e.g. VBB's v6 instance).
type Client struct {
	BaseURL    string
	Timeout    time.Duration
	MaxSize    int
	Headers    map[string]string
	Downloader downloader.Downloader

	// Maximum number of stations returned by NearbyStations.
	NearbyResults int

	// Minutes into the future to request departures for.
	Duration int
}

func NewClient(baseURL string, d downloader.Downloader) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if d == nil {
		d = downloader.NewHTTP()
	}
	return &Client{
		BaseURL:       baseURL,
		Timeout:       DefaultTimeout,
		MaxSize:       DefaultMaxSize,
		Headers:       map[string]string{},
		Downloader:    d,
		NearbyResults: DefaultNearbyResults,
		Duration:      DefaultDurationMinute,
	}
}

// Stations within radius meters of loc.
func (c *Client) NearbyStations(ctx context.Context, loc model.Location, radius int) ([]model.Station, error) {
	u, err := downloader.BuildURL(c.BaseURL, "locations/nearby", url.Values{
		"latitude":  {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"distance":  {strconv.Itoa(radius)},
		"results":   {strconv.Itoa(c.NearbyResults)},
	})
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("getting nearby stations: %w", err)
	}

	stations, err := parse.ParseStations(body)
	if err != nil {
		return nil, fmt.Errorf("parsing nearby stations: %w", err)
	}

	return stations, nil
}

// Upcoming departures from a station. At most limit results are
// requested.
func (c *Client) Departures(ctx context.Context, stationID string, limit int) ([]model.RawDeparture, error) {
	u, err := downloader.BuildURL(c.BaseURL, "stops/"+url.PathEscape(stationID)+"/departures", url.Values{
		"results":  {strconv.Itoa(limit)},
		"duration": {strconv.Itoa(c.Duration)},
	})
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("getting departures for %s: %w", stationID, err)
	}

	departures, err := parse.ParseDepartures(body)
	if err != nil {
		return nil, fmt.Errorf("parsing departures for %s: %w", stationID, err)
	}

	return departures, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	return c.Downloader.Get(ctx, u, c.Headers, downloader.GetOptions{
		Timeout: c.Timeout,
		MaxSize: c.MaxSize,
	})
}
