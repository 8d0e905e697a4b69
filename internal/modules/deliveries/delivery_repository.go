package deliveries

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

// RepositoryInterface defines the contract for the delivery store.
type RepositoryInterface interface {
	Create(ctx context.Context, d *models.Delivery) (*models.Delivery, error)
	FindByID(ctx context.Context, id string) (*models.Delivery, error)
	List(ctx context.Context, filter models.DeliveryFilter, page, limit int) ([]*models.Delivery, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Delivery, error)
	ListForDate(ctx context.Context, date time.Time, status string) ([]*models.Delivery, error)
	ListInRange(ctx context.Context, from, to time.Time, status string) ([]*models.Delivery, error)
	Update(ctx context.Context, id string, req models.UpdateDeliveryRequest) (*models.Delivery, error)
	UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error
	Delete(ctx context.Context, id string) error
}

// Repository implements the RepositoryInterface.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new delivery repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const deliveryColumns = `id, delivery_number, customer_name, customer_address, status, scheduled_date, latitude, longitude, created_at, updated_at`

// scanDelivery is a helper to scan a row into a Delivery model.
func scanDelivery(row pgx.Row) (*models.Delivery, error) {
	var d models.Delivery
	err := row.Scan(
		&d.ID,
		&d.DeliveryNumber,
		&d.CustomerName,
		&d.CustomerAddress,
		&d.Status,
		&d.ScheduledDate,
		&d.Latitude,
		&d.Longitude,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan delivery: %w", err)
	}
	return &d, nil
}

// Create inserts a new delivery into the database.
func (r *Repository) Create(ctx context.Context, d *models.Delivery) (*models.Delivery, error) {
	query := `
		INSERT INTO deliveries (id, delivery_number, customer_name, customer_address, status, scheduled_date, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + deliveryColumns

	row := r.db.QueryRow(ctx, query,
		d.ID, d.DeliveryNumber, d.CustomerName, d.CustomerAddress, d.Status, d.ScheduledDate, d.Latitude, d.Longitude)
	created, err := scanDelivery(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single delivery by its ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = $1`
	d, err := scanDelivery(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return d, nil
}

// List retrieves deliveries matching the filter, with pagination.
func (r *Repository) List(ctx context.Context, filter models.DeliveryFilter, page, limit int) ([]*models.Delivery, int, error) {
	var where []string
	var args []interface{}
	argIdx := 1

	if !filter.FromDate.IsZero() {
		where = append(where, fmt.Sprintf("scheduled_date >= $%d", argIdx))
		args = append(args, filter.FromDate)
		argIdx++
	}
	if !filter.ToDate.IsZero() {
		where = append(where, fmt.Sprintf("scheduled_date <= $%d", argIdx))
		args = append(args, filter.ToDate)
		argIdx++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if len(filter.IDs) > 0 {
		where = append(where, fmt.Sprintf("id = ANY($%d)", argIdx))
		args = append(args, filter.IDs)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM deliveries " + whereClause
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT %s FROM deliveries %s ORDER BY scheduled_date, delivery_number LIMIT $%d OFFSET $%d`,
		deliveryColumns, whereClause, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.Scan: %w", err)
		}
		out = append(out, d)
	}
	return out, total, nil
}

// ListByIDs retrieves the deliveries for an explicit id list.
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]*models.Delivery, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE id = ANY($1) ORDER BY scheduled_date, delivery_number`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByIDs: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByIDs.Scan: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ListForDate retrieves deliveries scheduled on exactly one calendar date,
// optionally narrowed by status. Ordering is stable (delivery_number).
func (r *Repository) ListForDate(ctx context.Context, date time.Time, status string) ([]*models.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE scheduled_date = $1`
	args := []interface{}{date}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY delivery_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ListForDate: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListForDate.Scan: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// ListInRange retrieves deliveries scheduled within an inclusive date
// range, optionally narrowed by status.
func (r *Repository) ListInRange(ctx context.Context, from, to time.Time, status string) ([]*models.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE scheduled_date BETWEEN $1 AND $2`
	args := []interface{}{from, to}
	if status != "" {
		query += ` AND status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_date, delivery_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.ListInRange: %w", err)
	}
	defer rows.Close()

	var out []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListInRange.Scan: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Update modifies an existing delivery's details.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdateDeliveryRequest) (*models.Delivery, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.CustomerName != nil {
		setClauses = append(setClauses, fmt.Sprintf("customer_name = $%d", argIdx))
		args = append(args, *req.CustomerName)
		argIdx++
	}
	if req.CustomerAddress != nil {
		setClauses = append(setClauses, fmt.Sprintf("customer_address = $%d", argIdx))
		args = append(args, *req.CustomerAddress)
		argIdx++
	}
	if req.ScheduledDate != nil {
		setClauses = append(setClauses, fmt.Sprintf("scheduled_date = $%d", argIdx))
		args = append(args, *req.ScheduledDate)
		argIdx++
	}
	if req.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *req.Status)
		argIdx++
	}
	if req.Latitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("latitude = $%d", argIdx))
		args = append(args, *req.Latitude)
		argIdx++
	}
	if req.Longitude != nil {
		setClauses = append(setClauses, fmt.Sprintf("longitude = $%d", argIdx))
		args = append(args, *req.Longitude)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE deliveries SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, deliveryColumns)

	d, err := scanDelivery(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return d, nil
}

// UpdateCoordinates backfills the geocoded position for a delivery.
func (r *Repository) UpdateCoordinates(ctx context.Context, id string, lat, lng float64) error {
	query := `
		UPDATE deliveries
		SET latitude = $1, longitude = $2, updated_at = NOW()
		WHERE id = $3`

	cmdTag, err := r.db.Exec(ctx, query, lat, lng, id)
	if err != nil {
		return fmt.Errorf("repository.UpdateCoordinates: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a delivery.
func (r *Repository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM deliveries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
