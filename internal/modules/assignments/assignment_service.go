package assignments

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/maps"

	"github.com/google/uuid"
)

// DeliveryStore is the slice of the delivery repository the engine needs.
// Satisfied by deliveries.RepositoryInterface.
type DeliveryStore interface {
	ListForDate(ctx context.Context, date time.Time, status string) ([]*models.Delivery, error)
	ListInRange(ctx context.Context, from, to time.Time, status string) ([]*models.Delivery, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Delivery, error)
}

// DriverDirectory resolves driver profiles. Satisfied by
// employees.RepositoryInterface.
type DriverDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

// ServiceInterface defines the daily assignment engine's operations.
type ServiceInterface interface {
	ResolveDateRange(quick, from, to string) (time.Time, time.Time)
	AvailableDeliveriesForDate(ctx context.Context, date string) ([]*models.Delivery, error)
	DateGroups(ctx context.Context, quick, from, to, search string) ([]*models.DateGroup, error)
	CreateAssignment(ctx context.Context, createdBy string, req models.CreateAssignmentRequest) (*models.DailyRouteAssignment, error)
	GetAssignment(ctx context.Context, id string) (*models.DailyRouteAssignment, error)
	UpdateAssignment(ctx context.Context, id string, req models.UpdateAssignmentRequest) (*models.DailyRouteAssignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	OptimizeRoutesForDate(ctx context.Context, date string) (int, error)
	NavigationLink(ctx context.Context, assignmentID string) (string, error)
}

// Service implements the daily route assignment engine. Date groups and
// the assigned-delivery set are recomputed from the stores on every read;
// nothing here is cached between requests.
type Service struct {
	repo       RepositoryInterface
	deliveries DeliveryStore
	drivers    DriverDirectory
	optimizer  maps.Optimizer
	depot      models.StartLocation
	now        func() time.Time
}

// NewService creates the assignment engine.
func NewService(
	repo RepositoryInterface,
	deliveryStore DeliveryStore,
	drivers DriverDirectory,
	optimizer maps.Optimizer,
	depot models.StartLocation,
) *Service {
	return &Service{
		repo:       repo,
		deliveries: deliveryStore,
		drivers:    drivers,
		optimizer:  optimizer,
		depot:      depot,
		now:        time.Now,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const dateLayout = "2006-01-02"

// ResolveDateRange turns a quick filter plus an optional custom range into
// the effective inclusive range. Quick filters override the custom range
// except when the filter is "custom". There is no failure mode: an invalid
// custom range degenerates into an empty range (from after to), which
// yields zero groups downstream.
func (s *Service) ResolveDateRange(quick, from, to string) (time.Time, time.Time) {
	today := dateOnly(s.now())

	switch quick {
	case models.QuickFilterToday:
		return today, today
	case models.QuickFilterThisWeek:
		// Monday through Sunday of the current week.
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6)
	case models.QuickFilterNext7:
		return today, today.AddDate(0, 0, 6)
	case models.QuickFilterCustom:
		fromDate, errFrom := time.Parse(dateLayout, from)
		toDate, errTo := time.Parse(dateLayout, to)
		if errFrom != nil || errTo != nil {
			return today, today.AddDate(0, 0, -1)
		}
		return fromDate, toDate
	default:
		// No quick filter: use the custom range when present, today otherwise.
		if from != "" || to != "" {
			return s.ResolveDateRange(models.QuickFilterCustom, from, to)
		}
		return today, today
	}
}

// AvailableDeliveriesForDate returns the deliveries eligible for a new
// assignment on the given date: scheduled that day, still pending, and
// not referenced by any active assignment. Ordering is the repository's
// stable delivery_number order; nothing downstream depends on more.
func (s *Service) AvailableDeliveriesForDate(ctx context.Context, date string) ([]*models.Delivery, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("service.AvailableDeliveriesForDate: invalid date %q: %w", date, err)
	}

	pending, err := s.deliveries.ListForDate(ctx, day, models.DeliveryStatusPending)
	if err != nil {
		return nil, fmt.Errorf("service.AvailableDeliveriesForDate: %w", err)
	}

	assigned, err := s.repo.AssignedDeliveryIDs(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("service.AvailableDeliveriesForDate: %w", err)
	}

	available := make([]*models.Delivery, 0, len(pending))
	for _, d := range pending {
		if _, taken := assigned[d.ID]; !taken {
			available = append(available, d)
		}
	}
	return available, nil
}

// DateGroups builds one group per calendar day in the effective range,
// populated with that day's assignments, aggregate totals, and the count
// of still-unassigned pending deliveries. Days with neither assignments
// nor unassigned deliveries are dropped. When a driver-name search term is
// active, only groups containing a matching assignment are returned.
func (s *Service) DateGroups(ctx context.Context, quick, from, to, search string) ([]*models.DateGroup, error) {
	fromDate, toDate := s.ResolveDateRange(quick, from, to)
	if fromDate.After(toDate) {
		return []*models.DateGroup{}, nil
	}

	assigns, err := s.repo.ListByDateRange(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("service.DateGroups: %w", err)
	}

	pending, err := s.deliveries.ListInRange(ctx, fromDate, toDate, models.DeliveryStatusPending)
	if err != nil {
		return nil, fmt.Errorf("service.DateGroups: %w", err)
	}

	// The assigned set is scoped to the loaded assignments; it is the
	// same exclusion filter the create path uses.
	assigned := assignedSet(assigns)

	byDate := make(map[string][]*models.DailyRouteAssignment)
	for _, a := range assigns {
		key := a.AssignmentDate.Format(dateLayout)
		byDate[key] = append(byDate[key], a)
	}

	unassignedByDate := make(map[string]int)
	for _, d := range pending {
		if _, taken := assigned[d.ID]; taken {
			continue
		}
		unassignedByDate[d.ScheduledDate.Format(dateLayout)]++
	}

	search = strings.ToLower(strings.TrimSpace(search))

	var groups []*models.DateGroup
	for day := fromDate; !day.After(toDate); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		group := buildDateGroup(key, byDate[key], unassignedByDate[key])

		if search != "" {
			if !groupMatchesDriver(group, search) {
				continue
			}
		} else if len(group.Assignments) == 0 && group.UnassignedCount == 0 {
			continue
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Date < groups[j].Date })
	return groups, nil
}

// assignedSet is the union of delivery ids across a loaded assignment
// list. It must be recomputed whenever the list changes; it is the
// mechanism preventing a delivery from landing in two assignments.
func assignedSet(assigns []*models.DailyRouteAssignment) map[string]struct{} {
	set := make(map[string]struct{})
	for _, a := range assigns {
		for _, id := range a.DeliveryIDs {
			set[id] = struct{}{}
		}
	}
	return set
}

func buildDateGroup(date string, assigns []*models.DailyRouteAssignment, unassigned int) *models.DateGroup {
	group := &models.DateGroup{
		Date:            date,
		Assignments:     assigns,
		UnassignedCount: unassigned,
	}
	if group.Assignments == nil {
		group.Assignments = []*models.DailyRouteAssignment{}
	}

	driverSet := make(map[string]struct{})
	for _, a := range assigns {
		driverSet[a.DriverID] = struct{}{}
		group.TotalDeliveries += len(a.DeliveryIDs)
		group.TotalDistance += a.TotalDistance
		group.TotalDuration += a.EstimatedDuration
	}
	group.TotalDrivers = len(driverSet)
	return group
}

func groupMatchesDriver(group *models.DateGroup, search string) bool {
	for _, a := range group.Assignments {
		if strings.Contains(strings.ToLower(a.DriverName), search) {
			return true
		}
	}
	return false
}

// CreateAssignment binds a driver to a set of deliveries for one date.
// The no-double-assignment check compares the requested ids against the
// union of all active assignments' delivery ids; this is a read-then-write
// check, not a transactional one, so two concurrent creators can still
// race (matching the dashboard's behavior).
func (s *Service) CreateAssignment(ctx context.Context, createdBy string, req models.CreateAssignmentRequest) (*models.DailyRouteAssignment, error) {
	date, err := time.Parse(dateLayout, req.AssignmentDate)
	if err != nil {
		return nil, fmt.Errorf("service.CreateAssignment: invalid assignment_date %q: %w", req.AssignmentDate, err)
	}

	driver, err := s.drivers.FindByID(ctx, req.DriverID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateAssignment: driver lookup: %w", err)
	}
	if driver.Role != models.RoleDriver && driver.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	assigned, err := s.repo.AssignedDeliveryIDs(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("service.CreateAssignment: %w", err)
	}

	var conflicts []string
	for _, id := range req.DeliveryIDs {
		if _, taken := assigned[id]; taken {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return nil, &models.DeliveriesAlreadyAssignedError{DeliveryIDs: conflicts}
	}

	a := &models.DailyRouteAssignment{
		ID:             uuid.New().String(),
		AssignmentDate: date,
		DriverID:       req.DriverID,
		DeliveryIDs:    req.DeliveryIDs,
		OptimizedOrder: []int{},
		Status:         models.AssignmentStatusPlanned,
		CreatedBy:      createdBy,
	}

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("service.CreateAssignment: %w", err)
	}
	created.DriverName = driver.FullName()
	return created, nil
}

// GetAssignment retrieves one assignment.
func (s *Service) GetAssignment(ctx context.Context, id string) (*models.DailyRouteAssignment, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateAssignment applies a partial update. When an optimized order is
// supplied it must be a permutation of the assignment's delivery indices.
func (s *Service) UpdateAssignment(ctx context.Context, id string, req models.UpdateAssignmentRequest) (*models.DailyRouteAssignment, error) {
	if req.OptimizedOrder != nil {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(*req.OptimizedOrder) > 0 && !maps.IsPermutation(*req.OptimizedOrder, len(existing.DeliveryIDs)) {
			return nil, fmt.Errorf("service.UpdateAssignment: order %v is not a permutation of %d deliveries",
				*req.OptimizedOrder, len(existing.DeliveryIDs))
		}
	}

	a, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateAssignment: %w", err)
	}
	return a, nil
}

// DeleteAssignment removes an assignment, releasing its deliveries back
// to the unassigned pool on the next read.
func (s *Service) DeleteAssignment(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// OptimizeRoutesForDate runs the optimizer over every assignment for one
// date, sequentially and in list order. Per-assignment failures are
// logged and skipped; the remaining assignments are still attempted. The
// loop is deliberately not parallel: it keeps write-back ordering
// predictable and avoids hammering the remote optimization function.
func (s *Service) OptimizeRoutesForDate(ctx context.Context, date string) (int, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("service.OptimizeRoutesForDate: invalid date %q: %w", date, err)
	}

	assigns, err := s.repo.ListForDate(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("service.OptimizeRoutesForDate: %w", err)
	}
	if len(assigns) == 0 {
		return 0, models.ErrNoAssignmentsForDate
	}

	optimized := 0
	for _, a := range assigns {
		if len(a.DeliveryIDs) == 0 {
			log.Printf("optimize %s: assignment %s has no deliveries, skipping", date, a.ID)
			continue
		}

		stops, err := s.loadStops(ctx, a)
		if err != nil {
			log.Printf("optimize %s: assignment %s: %v, skipping", date, a.ID, err)
			continue
		}

		resp, err := s.optimizer.Optimize(ctx, maps.OptimizeRequest{
			Deliveries:    stops,
			StartLocation: s.depot,
		})
		if err != nil {
			log.Printf("optimize %s: assignment %s: optimization failed: %v, skipping", date, a.ID, err)
			continue
		}

		update := models.UpdateAssignmentRequest{
			OptimizedOrder:    &resp.OptimizedOrder,
			TotalDistance:     &resp.TotalDistance,
			EstimatedDuration: &resp.TotalDuration,
		}
		if _, err := s.repo.Update(ctx, a.ID, update); err != nil {
			log.Printf("optimize %s: assignment %s: write-back failed: %v", date, a.ID, err)
			continue
		}
		optimized++
	}

	return optimized, nil
}

// loadStops resolves an assignment's delivery ids into route stops,
// preserving the assignment's delivery order. A missing row fails the
// whole assignment; the caller skips it.
func (s *Service) loadStops(ctx context.Context, a *models.DailyRouteAssignment) ([]models.RouteStop, error) {
	rows, err := s.deliveries.ListByIDs(ctx, a.DeliveryIDs)
	if err != nil {
		return nil, fmt.Errorf("load deliveries: %w", err)
	}

	byID := make(map[string]*models.Delivery, len(rows))
	for _, d := range rows {
		byID[d.ID] = d
	}

	stops := make([]models.RouteStop, 0, len(a.DeliveryIDs))
	for _, id := range a.DeliveryIDs {
		d, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("delivery %s not found", id)
		}
		stops = append(stops, models.RouteStop{
			ID:        d.ID,
			Address:   d.CustomerAddress,
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
		})
	}
	return stops, nil
}

// NavigationLink builds the mapping deep link for an assignment's route,
// applying the optimized order when one exists.
func (s *Service) NavigationLink(ctx context.Context, assignmentID string) (string, error) {
	a, err := s.repo.FindByID(ctx, assignmentID)
	if err != nil {
		return "", err
	}

	stops, err := s.loadStops(ctx, a)
	if err != nil {
		return "", fmt.Errorf("service.NavigationLink: %w", err)
	}

	stops = maps.ReorderStops(stops, a.OptimizedOrder)
	link, ok := maps.BuildNavigationLink(s.depot, stops)
	if !ok {
		return "", models.ErrNoValidCoordinates
	}
	return link, nil
}
