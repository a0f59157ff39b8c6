package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carburapp/internal/models"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client wraps the Google Places text-search and nearby-search endpoints and
// normalizes results into Station records.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	radius   int
	client   HTTPDoer
}

// NewClient builds the places client.
func NewClient(baseURL, apiKey, language string, radiusMeters int, client HTTPDoer) *Client {
	if radiusMeters <= 0 {
		radiusMeters = 5000
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		language: language,
		radius:   radiusMeters,
		client:   client,
	}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		Vicinity         string `json:"vicinity"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// SearchByCity runs a text search for fuel stations in the given city.
func (c *Client) SearchByCity(ctx context.Context, city string) ([]models.Station, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("distributori di benzina a %s", city))
	return c.fetch(ctx, "/textsearch/json", params)
}

// SearchNearby runs a nearby search for fuel stations around the coordinate.
func (c *Client) SearchNearby(ctx context.Context, coord models.Coordinate) ([]models.Station, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", coord.Lat, coord.Lon))
	params.Set("radius", fmt.Sprintf("%d", c.radius))
	params.Set("type", "gas_station")
	return c.fetch(ctx, "/nearbysearch/json", params)
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]models.Station, error) {
	params.Set("key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places: unexpected status %d", resp.StatusCode)
	}

	var decoded placesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("places: decode response: %w", err)
	}
	if decoded.Status != "OK" && decoded.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places: api status %s", decoded.Status)
	}

	stations := make([]models.Station, 0, len(decoded.Results))
	for _, res := range decoded.Results {
		address := res.Vicinity
		if address == "" {
			address = res.FormattedAddress
		}
		stations = append(stations, models.Station{
			ID:        res.PlaceID,
			Name:      res.Name,
			Address:   address,
			Latitude:  res.Geometry.Location.Lat,
			Longitude: res.Geometry.Location.Lng,
		})
	}
	return stations, nil
}
