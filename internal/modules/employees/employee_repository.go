package employees

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

// RepositoryInterface defines methods for interacting with employee storage.
type RepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
	FindByEmail(ctx context.Context, email string) (*models.Employee, error)
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	List(ctx context.Context, page, limit int) ([]*models.Employee, int, error)
	ListDrivers(ctx context.Context) ([]*models.Employee, error)
	Update(ctx context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error)
	Deactivate(ctx context.Context, id string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const employeeColumns = `id, first_name, last_name, email, role, phone, auth_provider, is_active, created_at, updated_at`

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Role, &e.Phone,
		&e.AuthProvider, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan employee: %w", err)
	}
	return &e, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	e, err := scanEmployee(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return e, nil
}

// FindByEmail also loads the password hash for login verification.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	e := &models.Employee{}
	query := `SELECT id, first_name, last_name, email, password_hash, role, phone, auth_provider, is_active, created_at, updated_at
		FROM employees WHERE email = $1`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.PasswordHash, &e.Role, &e.Phone,
		&e.AuthProvider, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return e, nil
}

func (r *Repository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	query := `
		INSERT INTO employees (id, first_name, last_name, email, password_hash, role, phone, auth_provider, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING ` + employeeColumns

	row := r.db.QueryRow(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Email, e.PasswordHash, e.Role, e.Phone, e.AuthProvider)
	created, err := scanEmployee(row)
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]*models.Employee, int, error) {
	offset := (page - 1) * limit
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY last_name, first_name LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.Scan: %w", err)
		}
		out = append(out, e)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}
	return out, total, nil
}

// ListDrivers returns active profiles holding the driver or admin
// capability; these are the candidates for route assignment.
func (r *Repository) ListDrivers(ctx context.Context) ([]*models.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE role IN ('driver', 'admin') AND is_active
		ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.ListDrivers: %w", err)
	}
	defer rows.Close()

	var out []*models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListDrivers.Scan: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, id string, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.FirstName != nil {
		setClauses = append(setClauses, fmt.Sprintf("first_name = $%d", argIdx))
		args = append(args, *req.FirstName)
		argIdx++
	}
	if req.LastName != nil {
		setClauses = append(setClauses, fmt.Sprintf("last_name = $%d", argIdx))
		args = append(args, *req.LastName)
		argIdx++
	}
	if req.Phone != nil {
		setClauses = append(setClauses, fmt.Sprintf("phone = $%d", argIdx))
		args = append(args, *req.Phone)
		argIdx++
	}
	if req.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, *req.Role)
		argIdx++
	}
	if req.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *req.IsActive)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE employees SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, employeeColumns)

	e, err := scanEmployee(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return e, nil
}

// Deactivate soft-deletes an employee; their history stays intact.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE employees SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.Deactivate: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
