// Package vehicles manages the fleet vehicle registry: CRUD plus
// driver binding and status tracking.
package vehicles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type RepositoryInterface interface {
	Create(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error)
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	List(ctx context.Context, status string) ([]*models.Vehicle, error)
	Update(ctx context.Context, id string, req models.UpdateVehicleRequest) (*models.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const vehicleColumns = `id, registration_number, model, capacity_kg, status, driver_id, created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID, &v.RegistrationNumber, &v.Model, &v.CapacityKg, &v.Status,
		&v.DriverID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan vehicle: %w", err)
	}
	return &v, nil
}

func (r *Repository) Create(ctx context.Context, v *models.Vehicle) (*models.Vehicle, error) {
	query := `
		INSERT INTO vehicles (id, registration_number, model, capacity_kg, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + vehicleColumns

	created, err := scanVehicle(r.db.QueryRow(ctx, query,
		v.ID, v.RegistrationNumber, v.Model, v.CapacityKg, v.Status))
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return v, nil
}

func (r *Repository) List(ctx context.Context, status string) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY registration_number`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.List: %w", err)
	}
	defer rows.Close()

	var out []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.List.Scan: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, id string, req models.UpdateVehicleRequest) (*models.Vehicle, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.Model != nil {
		setClauses = append(setClauses, fmt.Sprintf("model = $%d", argIdx))
		args = append(args, *req.Model)
		argIdx++
	}
	if req.CapacityKg != nil {
		setClauses = append(setClauses, fmt.Sprintf("capacity_kg = $%d", argIdx))
		args = append(args, *req.CapacityKg)
		argIdx++
	}
	if req.Status != nil {
		setClauses = append(setClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *req.Status)
		argIdx++
	}
	if req.DriverID != nil {
		setClauses = append(setClauses, fmt.Sprintf("driver_id = $%d", argIdx))
		args = append(args, *req.DriverID)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE vehicles SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, vehicleColumns)

	v, err := scanVehicle(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return v, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type ServiceInterface interface {
	CreateVehicle(ctx context.Context, req models.CreateVehicleRequest) (*models.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, status string) ([]*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, req models.UpdateVehicleRequest) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id string) error
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &Service{repo: repo}
}

func (s *Service) CreateVehicle(ctx context.Context, req models.CreateVehicleRequest) (*models.Vehicle, error) {
	v := &models.Vehicle{
		ID:                 uuid.New().String(),
		RegistrationNumber: req.RegistrationNumber,
		Model:              req.Model,
		CapacityKg:         req.CapacityKg,
		Status:             models.VehicleStatusAvailable,
	}
	return s.repo.Create(ctx, v)
}

func (s *Service) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListVehicles(ctx context.Context, status string) ([]*models.Vehicle, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) UpdateVehicle(ctx context.Context, id string, req models.UpdateVehicleRequest) (*models.Vehicle, error) {
	return s.repo.Update(ctx, id, req)
}

func (s *Service) DeleteVehicle(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateVehicle(c echo.Context) error {
	var req models.CreateVehicleRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.CreateVehicle(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, v)
}

func (h *Handler) GetVehicle(c echo.Context) error {
	v, err := h.svc.GetVehicle(c.Request().Context(), c.Param("vehicleId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, v)
}

func (h *Handler) ListVehicles(c echo.Context) error {
	vehicles, err := h.svc.ListVehicles(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, vehicles)
}

func (h *Handler) UpdateVehicle(c echo.Context) error {
	var req models.UpdateVehicleRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.UpdateVehicle(c.Request().Context(), c.Param("vehicleId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, v)
}

func (h *Handler) DeleteVehicle(c echo.Context) error {
	if err := h.svc.DeleteVehicle(c.Request().Context(), c.Param("vehicleId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
