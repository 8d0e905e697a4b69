package routing

import (
	"context"
	"errors"
	"testing"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/maps"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOptimizer struct {
	resp  *maps.OptimizeResponse
	err   error
	calls int
}

func (o *stubOptimizer) Optimize(_ context.Context, req maps.OptimizeRequest) (*maps.OptimizeResponse, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	if o.resp != nil {
		return o.resp, nil
	}
	order := make([]int, len(req.Deliveries))
	for i := range order {
		order[i] = len(order) - 1 - i
	}
	return &maps.OptimizeResponse{
		OptimizedOrder: order,
		TotalDistance:  5.5,
		TotalDuration:  25,
		Deliveries:     req.Deliveries,
	}, nil
}

type recordingWriter struct {
	saved map[string][2]float64
	fail  map[string]bool
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{saved: make(map[string][2]float64), fail: make(map[string]bool)}
}

func (w *recordingWriter) UpdateCoordinates(_ context.Context, id string, lat, lng float64) error {
	if w.fail[id] {
		return errors.New("write failed")
	}
	w.saved[id] = [2]float64{lat, lng}
	return nil
}

func coord(v float64) *float64 { return &v }

func newSessionService(t *testing.T, opt maps.Optimizer, writer DeliveryWriter) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSessionStore(client, 0)
	depot := models.StartLocation{Latitude: 1, Longitude: 2, Address: "Depot"}
	return NewService(store, writer, opt, depot)
}

func twoStops() []models.RouteStop {
	return []models.RouteStop{
		{ID: "d1", Address: "first", Latitude: coord(10), Longitude: coord(20)},
		{ID: "d2", Address: "second", Latitude: coord(30), Longitude: coord(40)},
	}
}

func TestOptimizeEmptySelection(t *testing.T) {
	opt := &stubOptimizer{}
	svc := newSessionService(t, opt, newRecordingWriter())

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{})
	assert.ErrorIs(t, err, models.ErrNoDeliveriesSelected)
	assert.Zero(t, opt.calls, "the remote optimizer is never called for an empty selection")
}

func TestOptimizeStoresSession(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	route, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, route.OptimizedOrder)
	assert.Equal(t, 5.5, route.TotalDistance)

	current, err := svc.Current(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, route.OptimizedOrder, current.OptimizedOrder)
	assert.Len(t, current.Deliveries, 2)
}

func TestOptimizeUsesDefaultStart(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	route, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)
	assert.Equal(t, "Depot", route.StartLocation.Address)

	custom := &models.StartLocation{Latitude: 9, Longitude: 9, Address: "Warehouse B"}
	route, err = svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{
		Deliveries:    twoStops(),
		StartLocation: custom,
	})
	require.NoError(t, err)
	assert.Equal(t, "Warehouse B", route.StartLocation.Address)
}

func TestOptimizeFailureLeavesSessionUntouched(t *testing.T) {
	opt := &stubOptimizer{}
	svc := newSessionService(t, opt, newRecordingWriter())

	first, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)

	opt.err = errors.New("optimizer down")
	_, err = svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.Error(t, err)

	current, err := svc.Current(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt.Unix(), current.CreatedAt.Unix(), "the earlier result is still the session")
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)

	_, err = svc.Current(context.Background(), "user-2")
	assert.ErrorIs(t, err, models.ErrNoRouteToSave)
}

func TestSaveWithoutRoute(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	_, err := svc.Save(context.Background(), "user-1", models.SaveRouteRequest{Name: "Morning run"})
	assert.ErrorIs(t, err, models.ErrNoRouteToSave)
}

func TestSaveWritesCoordinatesBestEffort(t *testing.T) {
	writer := newRecordingWriter()
	writer.fail["d2"] = true
	svc := newSessionService(t, &stubOptimizer{}, writer)

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)

	saved, err := svc.Save(context.Background(), "user-1", models.SaveRouteRequest{Name: "Morning run"})
	require.NoError(t, err, "a failing delivery write does not fail the save")
	assert.Equal(t, 1, saved)
	assert.Equal(t, [2]float64{10, 20}, writer.saved["d1"])
	assert.NotContains(t, writer.saved, "d2")
}

func TestSaveSkipsStopsWithoutCoordinates(t *testing.T) {
	writer := newRecordingWriter()
	stops := []models.RouteStop{
		{ID: "d1", Address: "resolved", Latitude: coord(10), Longitude: coord(20)},
		{ID: "d2", Address: "unresolved"},
	}
	opt := &stubOptimizer{resp: &maps.OptimizeResponse{
		OptimizedOrder:    []int{0, 1},
		Deliveries:        stops,
		GeocodingFailures: 1,
	}}
	svc := newSessionService(t, opt, writer)

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: stops})
	require.NoError(t, err)

	saved, err := svc.Save(context.Background(), "user-1", models.SaveRouteRequest{Name: "run"})
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
}

func TestClear(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), "user-1"))

	_, err = svc.Current(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrNoRouteToSave)
}

func TestSessionNavigationLink(t *testing.T) {
	svc := newSessionService(t, &stubOptimizer{}, newRecordingWriter())

	_, err := svc.Optimize(context.Background(), "user-1", models.OptimizeRouteRequest{Deliveries: twoStops()})
	require.NoError(t, err)

	link, err := svc.NavigationLink(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t,
		"https://www.google.com/maps/dir/1.000000,2.000000/30.000000,40.000000/10.000000,20.000000",
		link, "stops appear in optimized order after the start location")
}
