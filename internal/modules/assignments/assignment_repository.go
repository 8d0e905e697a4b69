package assignments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-ops/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the assignment repository.
type RepositoryInterface interface {
	Create(ctx context.Context, a *models.DailyRouteAssignment) (*models.DailyRouteAssignment, error)
	FindByID(ctx context.Context, id string) (*models.DailyRouteAssignment, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.DailyRouteAssignment, error)
	ListForDate(ctx context.Context, date time.Time) ([]*models.DailyRouteAssignment, error)
	AssignedDeliveryIDs(ctx context.Context, from, to time.Time) (map[string]struct{}, error)
	Update(ctx context.Context, id string, req models.UpdateAssignmentRequest) (*models.DailyRouteAssignment, error)
	Delete(ctx context.Context, id string) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new assignment repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const assignmentColumns = `a.id, a.assignment_date, a.driver_id, a.delivery_ids, a.optimized_order,
	a.total_distance, a.estimated_duration, a.status, a.created_by, a.created_at, a.updated_at`

// scanAssignment scans a row into a DailyRouteAssignment. The optimized
// order travels as int[] and is converted to the model's []int.
func scanAssignment(row pgx.Row, withDriverName bool) (*models.DailyRouteAssignment, error) {
	var a models.DailyRouteAssignment
	var order []int32

	dest := []interface{}{
		&a.ID, &a.AssignmentDate, &a.DriverID, &a.DeliveryIDs, &order,
		&a.TotalDistance, &a.EstimatedDuration, &a.Status, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	}
	if withDriverName {
		dest = append(dest, &a.DriverName)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	a.OptimizedOrder = make([]int, len(order))
	for i, v := range order {
		a.OptimizedOrder[i] = int(v)
	}
	return &a, nil
}

func toInt32Slice(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

// Create inserts a new assignment.
func (r *Repository) Create(ctx context.Context, a *models.DailyRouteAssignment) (*models.DailyRouteAssignment, error) {
	query := `
		INSERT INTO daily_route_assignments
			(id, assignment_date, driver_id, delivery_ids, optimized_order, total_distance, estimated_duration, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + strings.ReplaceAll(assignmentColumns, "a.", "")

	row := r.db.QueryRow(ctx, query,
		a.ID, a.AssignmentDate, a.DriverID, a.DeliveryIDs, toInt32Slice(a.OptimizedOrder),
		a.TotalDistance, a.EstimatedDuration, a.Status, a.CreatedBy)
	created, err := scanAssignment(row, false)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single assignment, with the driver's display name.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.DailyRouteAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `, e.first_name || ' ' || e.last_name AS driver_name
		FROM daily_route_assignments a
		JOIN employees e ON e.id = a.driver_id
		WHERE a.id = $1`

	a, err := scanAssignment(r.db.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return a, nil
}

// ListByDateRange retrieves all assignments whose date falls in the
// inclusive range, ordered by date then creation time so downstream
// grouping is deterministic.
func (r *Repository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.DailyRouteAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `, e.first_name || ' ' || e.last_name AS driver_name
		FROM daily_route_assignments a
		JOIN employees e ON e.id = a.driver_id
		WHERE a.assignment_date BETWEEN $1 AND $2
		ORDER BY a.assignment_date, a.created_at`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByDateRange: %w", err)
	}
	defer rows.Close()

	var out []*models.DailyRouteAssignment
	for rows.Next() {
		a, err := scanAssignment(rows, true)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByDateRange.Scan: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// ListForDate retrieves the assignments for one calendar date in stable
// creation order; the date-wide optimization loop walks this list.
func (r *Repository) ListForDate(ctx context.Context, date time.Time) ([]*models.DailyRouteAssignment, error) {
	return r.ListByDateRange(ctx, date, date)
}

// AssignedDeliveryIDs returns the union of delivery ids held by every
// non-completed assignment in the range. Zero from/to means unbounded.
func (r *Repository) AssignedDeliveryIDs(ctx context.Context, from, to time.Time) (map[string]struct{}, error) {
	query := `
		SELECT DISTINCT unnest(delivery_ids)
		FROM daily_route_assignments
		WHERE status <> 'completed'`
	var args []interface{}
	if !from.IsZero() && !to.IsZero() {
		query += ` AND assignment_date BETWEEN $1 AND $2`
		args = append(args, from, to)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.AssignedDeliveryIDs: %w", err)
	}
	defer rows.Close()

	assigned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("repository.AssignedDeliveryIDs.Scan: %w", err)
		}
		assigned[id] = struct{}{}
	}
	return assigned, nil
}

// Update applies a partial update: optimization write-back or a status
// transition. Fails with ErrNotFound when the id does not exist.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateAssignmentRequest) (*models.DailyRouteAssignment, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *req.Status)
		argIdx++
	}
	if req.OptimizedOrder != nil {
		setClauses = append(setClauses, fmt.Sprintf("optimized_order = $%d", argIdx))
		args = append(args, toInt32Slice(*req.OptimizedOrder))
		argIdx++
	}
	if req.TotalDistance != nil {
		setClauses = append(setClauses, fmt.Sprintf("total_distance = $%d", argIdx))
		args = append(args, *req.TotalDistance)
		argIdx++
	}
	if req.EstimatedDuration != nil {
		setClauses = append(setClauses, fmt.Sprintf("estimated_duration = $%d", argIdx))
		args = append(args, *req.EstimatedDuration)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE daily_route_assignments SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, strings.ReplaceAll(assignmentColumns, "a.", ""))

	a, err := scanAssignment(r.db.QueryRow(ctx, query, args...), false)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return a, nil
}

// Delete removes an assignment. Its deliveries become eligible for
// assignment again on the next read; eligibility is always derived,
// never stored on the delivery.
func (r *Repository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM daily_route_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
