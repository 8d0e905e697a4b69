package maps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleet-ops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapGeocoder struct {
	coords map[string][2]float64
	calls  int
}

func (g *mapGeocoder) Geocode(_ context.Context, address string) (float64, float64, error) {
	g.calls++
	p, ok := g.coords[address]
	if !ok {
		return 0, 0, errors.New("no results")
	}
	return p[0], p[1], nil
}

func optimizerServer(t *testing.T, handler func(w http.ResponseWriter, req OptimizeRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OptimizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func respond(w http.ResponseWriter, resp OptimizeResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestOptimizeEmptyRequest(t *testing.T) {
	o := NewRouteOptimizer("http://unused", "", nil)
	_, err := o.Optimize(context.Background(), OptimizeRequest{})
	assert.ErrorIs(t, err, models.ErrNoDeliveriesSelected)
}

func TestOptimizeSendsAuthAndReturnsResult(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		respond(w, OptimizeResponse{OptimizedOrder: []int{1, 0}, TotalDistance: 3.2, TotalDuration: 14})
	}))
	defer srv.Close()

	o := NewRouteOptimizer(srv.URL, "secret-key", nil)
	resp, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{
			{ID: "a", Latitude: fp(1), Longitude: fp(2)},
			{ID: "b", Latitude: fp(3), Longitude: fp(4)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, []int{1, 0}, resp.OptimizedOrder)
	assert.Equal(t, 3.2, resp.TotalDistance)
}

func TestOptimizeRejectsNonPermutation(t *testing.T) {
	srv := optimizerServer(t, func(w http.ResponseWriter, req OptimizeRequest) {
		respond(w, OptimizeResponse{OptimizedOrder: []int{0, 0}})
	})

	o := NewRouteOptimizer(srv.URL, "", nil)
	_, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{
			{ID: "a", Latitude: fp(1), Longitude: fp(2)},
			{ID: "b", Latitude: fp(3), Longitude: fp(4)},
		},
	})
	assert.ErrorContains(t, err, "not a permutation")
}

func TestOptimizeRejectsNegativeTotals(t *testing.T) {
	srv := optimizerServer(t, func(w http.ResponseWriter, req OptimizeRequest) {
		respond(w, OptimizeResponse{OptimizedOrder: []int{0}, TotalDistance: -1})
	})

	o := NewRouteOptimizer(srv.URL, "", nil)
	_, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{{ID: "a", Latitude: fp(1), Longitude: fp(2)}},
	})
	assert.ErrorContains(t, err, "negative distance")
}

func TestOptimizeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	o := NewRouteOptimizer(srv.URL, "", nil)
	_, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{{ID: "a", Latitude: fp(1), Longitude: fp(2)}},
	})
	assert.ErrorContains(t, err, "status 502")
}

func TestOptimizeGeocodesMissingStops(t *testing.T) {
	geocoder := &mapGeocoder{coords: map[string][2]float64{
		"12 Oak Street": {11.5, 22.5},
	}}

	var received OptimizeRequest
	srv := optimizerServer(t, func(w http.ResponseWriter, req OptimizeRequest) {
		received = req
		order := make([]int, len(req.Deliveries))
		for i := range order {
			order[i] = i
		}
		respond(w, OptimizeResponse{OptimizedOrder: order, Deliveries: req.Deliveries})
	})

	o := NewRouteOptimizer(srv.URL, "", geocoder)
	resp, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{
			{ID: "a", Address: "12 Oak Street"},
			{ID: "b", Address: "12 Oak Street"},
			{ID: "c", Address: "nowhere lane"},
			{ID: "d", Latitude: fp(1), Longitude: fp(2)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.GeocodingFailures, "only the unresolvable address counts")
	assert.Equal(t, 2, geocoder.calls, "duplicate addresses reuse the first lookup")

	require.Len(t, received.Deliveries, 4)
	assert.Equal(t, 11.5, *received.Deliveries[0].Latitude)
	assert.Equal(t, 11.5, *received.Deliveries[1].Latitude, "duplicate address shares coordinates")
	assert.Nil(t, received.Deliveries[2].Latitude, "failed lookup forwards address only")
	assert.Equal(t, 1.0, *received.Deliveries[3].Latitude, "already-resolved stop untouched")
}

func TestOptimizeFailureSummingWithRemote(t *testing.T) {
	srv := optimizerServer(t, func(w http.ResponseWriter, req OptimizeRequest) {
		respond(w, OptimizeResponse{OptimizedOrder: []int{0}, GeocodingFailures: 2})
	})

	o := NewRouteOptimizer(srv.URL, "", &mapGeocoder{})
	resp, err := o.Optimize(context.Background(), OptimizeRequest{
		Deliveries: []models.RouteStop{{ID: "a", Address: "unresolvable"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.GeocodingFailures, "local and remote failure counts add up")
}
