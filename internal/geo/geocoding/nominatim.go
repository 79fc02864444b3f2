package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Candidate is one forward-geocoding hit.
type Candidate struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Place is a reverse-geocoding result. Name is the specific feature name at
// the point (road, building, neighbourhood); it is empty when the lookup only
// resolved a coarse area.
type Place struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
}

// Client wraps a Nominatim-compatible geocoding service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client from the GEOCODER_URL env var.
// Returns nil, nil if the var is not set (graceful degradation: problems are
// still accepted, locations just stay unresolved).
func NewClient() (*Client, error) {
	base := os.Getenv("GEOCODER_URL")
	if base == "" {
		return nil, nil
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Error       string `json:"error"`
}

// Geocode converts free-form location text into candidate coordinates.
func (c *Client) Geocode(ctx context.Context, text string) ([]Candidate, error) {
	u := fmt.Sprintf("%s/search?q=%s&format=jsonv2&limit=5", c.baseURL, url.QueryEscape(text))

	var results []searchResult
	if err := c.getJSON(ctx, u, &results); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", text, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{DisplayName: r.DisplayName, Lat: lat, Lng: lng})
	}
	return candidates, nil
}

// ReverseGeocode resolves coordinates to the place at that point, or nil when
// the service knows nothing there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	u := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=jsonv2", c.baseURL, lat, lng)

	var result reverseResult
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, fmt.Errorf("reverse geocode (%f, %f): %w", lat, lng, err)
	}
	if result.Error != "" || result.DisplayName == "" {
		return nil, nil
	}
	return &Place{DisplayName: result.DisplayName, Name: result.Name}, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "WardWatch/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
