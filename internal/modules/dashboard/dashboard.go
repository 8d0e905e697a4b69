// Package dashboard serves the aggregate counters shown on the
// operations landing page.
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fleet-ops/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// Summary is the aggregate snapshot for the landing page.
type Summary struct {
	DeliveriesByStatus map[string]int `json:"deliveries_by_status"`
	DeliveriesToday    int            `json:"deliveries_today"`
	ActiveDrivers      int            `json:"active_drivers"`
	VehiclesInService  int            `json:"vehicles_in_service"`
	PendingLeaves      int            `json:"pending_leaves"`
	LowStockItems      int            `json:"low_stock_items"`
	GeneratedAt        time.Time      `json:"generated_at"`
}

type RepositoryInterface interface {
	Summary(ctx context.Context, today time.Time) (*Summary, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) Summary(ctx context.Context, today time.Time) (*Summary, error) {
	s := &Summary{
		DeliveriesByStatus: make(map[string]int),
		GeneratedAt:        time.Now(),
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM deliveries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("repository.Summary.byStatus: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("repository.Summary.byStatus scan: %w", err)
		}
		s.DeliveriesByStatus[status] = count
	}
	rows.Close()

	counts := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{`SELECT COUNT(*) FROM deliveries WHERE scheduled_date::date = $1::date`, []interface{}{today}, &s.DeliveriesToday},
		{`SELECT COUNT(*) FROM employees WHERE role IN ('driver', 'admin') AND is_active`, nil, &s.ActiveDrivers},
		{`SELECT COUNT(*) FROM vehicles WHERE status IN ('available', 'in_use')`, nil, &s.VehiclesInService},
		{`SELECT COUNT(*) FROM leave_requests WHERE status = 'pending'`, nil, &s.PendingLeaves},
		{`SELECT COUNT(*) FROM inventory_items WHERE quantity <= reorder_level`, nil, &s.LowStockItems},
	}
	for _, c := range counts {
		if err := r.db.QueryRow(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("repository.Summary: %w", err)
		}
	}
	return s, nil
}

type ServiceInterface interface {
	GetSummary(ctx context.Context) (*Summary, error)
}

type Service struct {
	repo RepositoryInterface
	now  func() time.Time
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	return s.repo.Summary(ctx, s.now())
}

type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetSummary(c echo.Context) error {
	summary, err := h.svc.GetSummary(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, summary)
}
