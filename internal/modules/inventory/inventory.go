// Package inventory tracks warehouse stock: item CRUD, signed stock
// adjustments, and a low-stock view for the dashboard.
package inventory

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
	Create(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	FindByID(ctx context.Context, id string) (*models.InventoryItem, error)
	List(ctx context.Context, lowStockOnly bool) ([]*models.InventoryItem, error)
	Update(ctx context.Context, id string, req models.UpdateInventoryItemRequest) (*models.InventoryItem, error)
	AdjustQuantity(ctx context.Context, id string, delta int) (*models.InventoryItem, error)
	Delete(ctx context.Context, id string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const itemColumns = `id, sku, name, quantity, reorder_level, unit_price, created_at, updated_at`

func scanItem(row pgx.Row) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := row.Scan(
		&item.ID, &item.SKU, &item.Name, &item.Quantity, &item.ReorderLevel,
		&item.UnitPrice, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan inventory item: %w", err)
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	query := `
		INSERT INTO inventory_items (id, sku, name, quantity, reorder_level, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + itemColumns

	created, err := scanItem(r.db.QueryRow(ctx, query,
		item.ID, item.SKU, item.Name, item.Quantity, item.ReorderLevel, item.UnitPrice))
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`
	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return item, nil
}

func (r *Repository) List(ctx context.Context, lowStockOnly bool) ([]*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	if lowStockOnly {
		query += ` WHERE quantity <= reorder_level`
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository.List: %w", err)
	}
	defer rows.Close()

	var out []*models.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.List.Scan: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *Repository) Update(ctx context.Context, id string, req models.UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	var setClauses []string
	var args []interface{}
	argIdx := 1

	if req.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *req.Name)
		argIdx++
	}
	if req.ReorderLevel != nil {
		setClauses = append(setClauses, fmt.Sprintf("reorder_level = $%d", argIdx))
		args = append(args, *req.ReorderLevel)
		argIdx++
	}
	if req.UnitPrice != nil {
		setClauses = append(setClauses, fmt.Sprintf("unit_price = $%d", argIdx))
		args = append(args, *req.UnitPrice)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.FindByID(ctx, id)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, id)

	query := fmt.Sprintf(`UPDATE inventory_items SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, itemColumns)

	item, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Update: %w", err)
	}
	return item, nil
}

// AdjustQuantity applies a signed delta atomically, refusing to go below
// zero.
func (r *Repository) AdjustQuantity(ctx context.Context, id string, delta int) (*models.InventoryItem, error) {
	query := `
		UPDATE inventory_items
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND quantity + $1 >= 0
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRow(ctx, query, delta, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Either no such item or the delta would drive stock negative.
			if _, findErr := r.FindByID(ctx, id); findErr == nil {
				return nil, models.ErrConflict
			}
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.AdjustQuantity: %w", err)
	}
	return item, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository.Delete: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

type ServiceInterface interface {
	CreateItem(ctx context.Context, req models.CreateInventoryItemRequest) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, lowStockOnly bool) ([]*models.InventoryItem, error)
	UpdateItem(ctx context.Context, id string, req models.UpdateInventoryItemRequest) (*models.InventoryItem, error)
	AdjustStock(ctx context.Context, id string, req models.AdjustStockRequest) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id string) error
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &Service{repo: repo}
}

func (s *Service) CreateItem(ctx context.Context, req models.CreateInventoryItemRequest) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		ID:           uuid.New().String(),
		SKU:          req.SKU,
		Name:         req.Name,
		Quantity:     req.Quantity,
		ReorderLevel: req.ReorderLevel,
		UnitPrice:    req.UnitPrice,
	}
	return s.repo.Create(ctx, item)
}

func (s *Service) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, lowStockOnly bool) ([]*models.InventoryItem, error) {
	return s.repo.List(ctx, lowStockOnly)
}

func (s *Service) UpdateItem(ctx context.Context, id string, req models.UpdateInventoryItemRequest) (*models.InventoryItem, error) {
	return s.repo.Update(ctx, id, req)
}

func (s *Service) AdjustStock(ctx context.Context, id string, req models.AdjustStockRequest) (*models.InventoryItem, error) {
	return s.repo.AdjustQuantity(ctx, id, req.Delta)
}

func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateItem(c echo.Context) error {
	var req models.CreateInventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.CreateItem(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, item)
}

func (h *Handler) GetItem(c echo.Context) error {
	item, err := h.svc.GetItem(c.Request().Context(), c.Param("itemId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, item)
}

func (h *Handler) ListItems(c echo.Context) error {
	lowStockOnly := c.QueryParam("low_stock") == "true"

	items, err := h.svc.ListItems(c.Request().Context(), lowStockOnly)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, items)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	var req models.UpdateInventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.UpdateItem(c.Request().Context(), c.Param("itemId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, item)
}

func (h *Handler) AdjustStock(c echo.Context) error {
	var req models.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	item, err := h.svc.AdjustStock(c.Request().Context(), c.Param("itemId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, item)
}

func (h *Handler) DeleteItem(c echo.Context) error {
	if err := h.svc.DeleteItem(c.Request().Context(), c.Param("itemId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
