package maps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fleet-ops/internal/models"
)

// OptimizeRequest is the wire request for the external route-optimization
// function: a start location plus the stops to order.
type OptimizeRequest struct {
	Deliveries    []models.RouteStop   `json:"deliveries"`
	StartLocation models.StartLocation `json:"startLocation"`
}

// OptimizeResponse mirrors the optimizer's reply. OptimizedOrder is a
// permutation of indices into the request's delivery list.
type OptimizeResponse struct {
	OptimizedOrder    []int              `json:"optimizedOrder"`
	TotalDistance     float64            `json:"totalDistance"` // kilometers
	TotalDuration     int                `json:"totalDuration"` // minutes
	Deliveries        []models.RouteStop `json:"deliveries"`
	GeocodingFailures int                `json:"geocodingFailures,omitempty"`
}

// Optimizer is the contract the assignment engine and the route session
// depend on. Any non-success response is treated as total failure for
// that call; there is no partial-success contract.
type Optimizer interface {
	Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResponse, error)
}

// RouteOptimizer calls a remote optimization endpoint over HTTP, geocoding
// any stops that are missing coordinates first so the remote function
// receives as many resolved points as possible.
type RouteOptimizer struct {
	endpoint   string
	apiKey     string
	geocoder   Geocoder
	httpClient *http.Client
}

// NewRouteOptimizer creates an optimizer client. The geocoder may be nil,
// in which case stops without coordinates are passed through as addresses
// and counted as geocoding failures by the remote side.
func NewRouteOptimizer(endpoint, apiKey string, geocoder Geocoder) *RouteOptimizer {
	return &RouteOptimizer{
		endpoint:   endpoint,
		apiKey:     apiKey,
		geocoder:   geocoder,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Optimize resolves missing coordinates and invokes the remote optimizer
// once. The returned order is validated as a permutation before being
// handed back to callers.
func (o *RouteOptimizer) Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResponse, error) {
	if len(req.Deliveries) == 0 {
		return nil, models.ErrNoDeliveriesSelected
	}

	failures := o.geocodeMissing(ctx, req.Deliveries)

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("optimizer.Optimize marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("optimizer.Optimize build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("optimizer.Optimize call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("optimizer.Optimize: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded OptimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("optimizer.Optimize decode: %w", err)
	}

	if !IsPermutation(decoded.OptimizedOrder, len(req.Deliveries)) {
		return nil, fmt.Errorf("optimizer.Optimize: order %v is not a permutation of %d stops",
			decoded.OptimizedOrder, len(req.Deliveries))
	}
	if decoded.TotalDistance < 0 || decoded.TotalDuration < 0 {
		return nil, fmt.Errorf("optimizer.Optimize: negative distance or duration in response")
	}

	decoded.GeocodingFailures += failures
	return &decoded, nil
}

// geocodeMissing fills in coordinates for stops that lack them, reusing
// results for duplicate addresses. Lookups that fail are counted and the
// stop is forwarded with its address only.
func (o *RouteOptimizer) geocodeMissing(ctx context.Context, stops []models.RouteStop) int {
	if o.geocoder == nil {
		return 0
	}

	type point struct{ lat, lng float64 }
	resolved := make(map[string]point)
	failures := 0

	for i := range stops {
		if stops[i].Latitude != nil && stops[i].Longitude != nil {
			continue
		}
		if p, ok := resolved[stops[i].Address]; ok {
			lat, lng := p.lat, p.lng
			stops[i].Latitude, stops[i].Longitude = &lat, &lng
			continue
		}
		lat, lng, err := o.geocoder.Geocode(ctx, stops[i].Address)
		if err != nil {
			failures++
			continue
		}
		resolved[stops[i].Address] = point{lat, lng}
		stops[i].Latitude, stops[i].Longitude = &lat, &lng
	}
	return failures
}

// IsPermutation reports whether order is a bijection on [0, n).
func IsPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}
