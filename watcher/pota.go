package watcher

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SpotFetcher produces one batch of current spots per poll cycle.
type SpotFetcher interface {
	FetchSpots() ([]Spot, error)
}

// HTTPSpotFetcher reads a JSON array of spots from a feed endpoint.
type HTTPSpotFetcher struct {
	url    string
	client *http.Client
}

func NewHTTPSpotFetcher(feedURL string, timeout time.Duration) *HTTPSpotFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSpotFetcher{
		url:    feedURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPSpotFetcher) FetchSpots() ([]Spot, error) {
	resp, err := f.client.Get(f.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	var spots []Spot
	if err := json.NewDecoder(resp.Body).Decode(&spots); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return spots, nil
}
