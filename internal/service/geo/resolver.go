// internal/service/geo/resolver.go
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Location is the resolved place of a public IP address.
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	// RegionCode is the two-letter country code.
	RegionCode string `json:"region_code"`
}

// Resolver looks up the location of an IP address. Failures are expected and
// callers must degrade gracefully.
type Resolver interface {
	Resolve(ctx context.Context, ip string) (*Location, error)
}

// HTTPResolver queries an ip-api style JSON endpoint.
type HTTPResolver struct {
	client  *http.Client
	baseURL string
}

func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		client:  &http.Client{Timeout: 3 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (*Location, error) {
	url := fmt.Sprintf("%s/%s", r.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geo request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status      string `json:"status"`
		City        string `json:"city"`
		RegionName  string `json:"regionName"`
		Country     string `json:"country"`
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return nil, fmt.Errorf("geo lookup failed for %s", ip)
	}

	return &Location{
		City:       payload.City,
		Region:     payload.RegionName,
		Country:    payload.Country,
		RegionCode: strings.ToUpper(payload.CountryCode),
	}, nil
}
