package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/maps"
)

// DeliveryWriter is the slice of the delivery repository the session
// needs: coordinate backfill only. Satisfied by
// deliveries.RepositoryInterface.
type DeliveryWriter interface {
	UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error
}

// ServiceInterface defines the ad hoc route optimization session: one
// optimization call plus a save step, independent of the daily grouping.
type ServiceInterface interface {
	Optimize(ctx context.Context, userID string, req models.OptimizeRouteRequest) (*models.OptimizedRoute, error)
	Save(ctx context.Context, userID string, req models.SaveRouteRequest) (int, error)
	Current(ctx context.Context, userID string) (*models.OptimizedRoute, error)
	Clear(ctx context.Context, userID string) error
	NavigationLink(ctx context.Context, userID string) (string, error)
}

// Service implements the route optimization session.
type Service struct {
	sessions     SessionStore
	deliveries   DeliveryWriter
	optimizer    maps.Optimizer
	defaultStart models.StartLocation
	now          func() time.Time
}

// NewService creates the routing session service. defaultStart is used
// when a request does not carry its own start location.
func NewService(sessions SessionStore, deliveryWriter DeliveryWriter, optimizer maps.Optimizer, defaultStart models.StartLocation) *Service {
	return &Service{
		sessions:     sessions,
		deliveries:   deliveryWriter,
		optimizer:    optimizer,
		defaultStart: defaultStart,
		now:          time.Now,
	}
}

// Optimize runs one optimization call and stores the result as the
// operator's current route, replacing any prior one. An empty selection
// fails before any remote call. A remote failure leaves the existing
// session untouched and is not retried.
func (s *Service) Optimize(ctx context.Context, userID string, req models.OptimizeRouteRequest) (*models.OptimizedRoute, error) {
	if len(req.Deliveries) == 0 {
		return nil, models.ErrNoDeliveriesSelected
	}

	start := s.defaultStart
	if req.StartLocation != nil {
		start = *req.StartLocation
	}

	resp, err := s.optimizer.Optimize(ctx, maps.OptimizeRequest{
		Deliveries:    req.Deliveries,
		StartLocation: start,
	})
	if err != nil {
		return nil, fmt.Errorf("service.Optimize: %w", err)
	}

	// Prefer the mirrored delivery list: it carries coordinates the
	// optimizer geocoded along the way.
	stops := resp.Deliveries
	if len(stops) != len(req.Deliveries) {
		stops = req.Deliveries
	}

	route := &models.OptimizedRoute{
		OptimizedOrder:    resp.OptimizedOrder,
		TotalDistance:     resp.TotalDistance,
		TotalDuration:     resp.TotalDuration,
		Deliveries:        stops,
		StartLocation:     start,
		GeocodingFailures: resp.GeocodingFailures,
		CreatedAt:         s.now(),
	}

	if err := s.sessions.Put(ctx, userID, route); err != nil {
		return nil, fmt.Errorf("service.Optimize: %w", err)
	}
	return route, nil
}

// Save persists coordinates discovered during the current session's
// optimization back onto the delivery records, best-effort per delivery.
// The route name is cosmetic only; no named-route entity is created, and
// the ordering stays ephemeral unless captured into a daily assignment.
func (s *Service) Save(ctx context.Context, userID string, req models.SaveRouteRequest) (int, error) {
	route, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.ErrNoRouteToSave
		}
		return 0, fmt.Errorf("service.Save: %w", err)
	}

	saved := 0
	for _, stop := range route.Deliveries {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		if err := s.deliveries.UpdateCoordinates(ctx, stop.ID, *stop.Latitude, *stop.Longitude); err != nil {
			log.Printf("save route %q: write coordinates for delivery %s: %v", req.Name, stop.ID, err)
			continue
		}
		saved++
	}
	return saved, nil
}

// Current returns the operator's current route, or ErrNoRouteToSave.
func (s *Service) Current(ctx context.Context, userID string) (*models.OptimizedRoute, error) {
	route, err := s.sessions.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNoRouteToSave
		}
		return nil, err
	}
	return route, nil
}

// Clear discards the current session state unconditionally.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.sessions.Clear(ctx, userID)
}

// NavigationLink builds the mapping deep link for the current session's
// route, in optimized order.
func (s *Service) NavigationLink(ctx context.Context, userID string) (string, error) {
	route, err := s.Current(ctx, userID)
	if err != nil {
		return "", err
	}

	stops := maps.ReorderStops(route.Deliveries, route.OptimizedOrder)
	link, ok := maps.BuildNavigationLink(route.StartLocation, stops)
	if !ok {
		return "", models.ErrNoValidCoordinates
	}
	return link, nil
}
