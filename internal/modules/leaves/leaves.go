// Package leaves handles employee time-off requests. Approval or
// rejection sends the requester an email notification.
package leaves

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"fleet-ops/internal/models"
	emailSvc "fleet-ops/pkg/email"
	"fleet-ops/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type RepositoryInterface interface {
	Create(ctx context.Context, lr *models.LeaveRequest) (*models.LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*models.LeaveRequest, error)
	ListByStatus(ctx context.Context, status string) ([]*models.LeaveRequest, error)
	Decide(ctx context.Context, id, status, decidedBy string) (*models.LeaveRequest, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const leaveColumns = `id, employee_id, leave_type, start_date, end_date, reason, status, decided_by, created_at, updated_at`

func scanLeave(row pgx.Row) (*models.LeaveRequest, error) {
	var lr models.LeaveRequest
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.LeaveType, &lr.StartDate, &lr.EndDate,
		&lr.Reason, &lr.Status, &lr.DecidedBy, &lr.CreatedAt, &lr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan leave request: %w", err)
	}
	return &lr, nil
}

func (r *Repository) Create(ctx context.Context, lr *models.LeaveRequest) (*models.LeaveRequest, error) {
	query := `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_date, end_date, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + leaveColumns

	created, err := scanLeave(r.db.QueryRow(ctx, query,
		lr.ID, lr.EmployeeID, lr.LeaveType, lr.StartDate, lr.EndDate, lr.Reason, lr.Status))
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	lr, err := scanLeave(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return lr, nil
}

func (r *Repository) ListByEmployee(ctx context.Context, employeeID string) ([]*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE employee_id = $1 ORDER BY created_at DESC`
	return r.queryList(ctx, query, employeeID)
}

func (r *Repository) ListByStatus(ctx context.Context, status string) ([]*models.LeaveRequest, error) {
	if status == "" {
		return r.queryList(ctx, `SELECT `+leaveColumns+` FROM leave_requests ORDER BY created_at DESC`)
	}
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE status = $1 ORDER BY created_at DESC`
	return r.queryList(ctx, query, status)
}

func (r *Repository) queryList(ctx context.Context, query string, args ...interface{}) ([]*models.LeaveRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository.queryList: %w", err)
	}
	defer rows.Close()

	var out []*models.LeaveRequest
	for rows.Next() {
		lr, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.queryList.Scan: %w", err)
		}
		out = append(out, lr)
	}
	return out, nil
}

// Decide flips a pending request to approved or rejected. Deciding an
// already-decided request is a conflict.
func (r *Repository) Decide(ctx context.Context, id, status, decidedBy string) (*models.LeaveRequest, error) {
	query := `
		UPDATE leave_requests
		SET status = $1, decided_by = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
		RETURNING ` + leaveColumns

	lr, err := scanLeave(r.db.QueryRow(ctx, query, status, decidedBy, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if _, findErr := r.FindByID(ctx, id); findErr == nil {
				return nil, models.ErrConflict
			}
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.Decide: %w", err)
	}
	return lr, nil
}

// EmployeeDirectory is the slice of the employee module the notifier
// needs. Satisfied by employees.RepositoryInterface.
type EmployeeDirectory interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type ServiceInterface interface {
	CreateLeaveRequest(ctx context.Context, employeeID string, req models.CreateLeaveRequest) (*models.LeaveRequest, error)
	GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListMyLeaveRequests(ctx context.Context, employeeID string) ([]*models.LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, status string) ([]*models.LeaveRequest, error)
	DecideLeaveRequest(ctx context.Context, id, decidedBy string, req models.DecideLeaveRequest) (*models.LeaveRequest, error)
}

type Service struct {
	repo            RepositoryInterface
	employees       EmployeeDirectory
	emailer         emailSvc.ServiceInterface
	templateManager *emailSvc.TemplateManager
}

func NewService(repo RepositoryInterface, employees EmployeeDirectory, emailer emailSvc.ServiceInterface, tm *emailSvc.TemplateManager) ServiceInterface {
	return &Service{repo: repo, employees: employees, emailer: emailer, templateManager: tm}
}

func (s *Service) CreateLeaveRequest(ctx context.Context, employeeID string, req models.CreateLeaveRequest) (*models.LeaveRequest, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("service.CreateLeaveRequest: invalid start_date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("service.CreateLeaveRequest: invalid end_date: %w", err)
	}
	if end.Before(start) {
		return nil, models.ErrConflict
	}

	lr := &models.LeaveRequest{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		LeaveType:  req.LeaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
		Status:     models.LeaveStatusPending,
	}
	return s.repo.Create(ctx, lr)
}

func (s *Service) GetLeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListMyLeaveRequests(ctx context.Context, employeeID string) ([]*models.LeaveRequest, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

func (s *Service) ListLeaveRequests(ctx context.Context, status string) ([]*models.LeaveRequest, error) {
	return s.repo.ListByStatus(ctx, status)
}

// DecideLeaveRequest records the decision and notifies the requester by
// email. The notification is best-effort; the decision stands either way.
func (s *Service) DecideLeaveRequest(ctx context.Context, id, decidedBy string, req models.DecideLeaveRequest) (*models.LeaveRequest, error) {
	lr, err := s.repo.Decide(ctx, id, req.Status, decidedBy)
	if err != nil {
		return nil, err
	}

	if s.emailer != nil && s.templateManager != nil {
		s.notifyRequester(ctx, lr)
	}
	return lr, nil
}

func (s *Service) notifyRequester(ctx context.Context, lr *models.LeaveRequest) {
	requester, err := s.employees.FindByID(ctx, lr.EmployeeID)
	if err != nil {
		log.Printf("leave decision %s: load requester %s: %v", lr.ID, lr.EmployeeID, err)
		return
	}

	html, err := s.templateManager.GenerateLeaveDecisionEmailHTML(emailSvc.LeaveDecisionData{
		Name:      requester.FirstName,
		LeaveType: lr.LeaveType,
		StartDate: lr.StartDate.Format("2006-01-02"),
		EndDate:   lr.EndDate.Format("2006-01-02"),
		Decision:  lr.Status,
	})
	if err != nil {
		log.Printf("leave decision %s: render email: %v", lr.ID, err)
		return
	}

	plain := fmt.Sprintf("Your %s leave request for %s to %s has been %s.",
		lr.LeaveType, lr.StartDate.Format("2006-01-02"), lr.EndDate.Format("2006-01-02"), lr.Status)
	if err := s.emailer.SendEmail(ctx, requester.Email, "Leave Request Update", plain, html); err != nil {
		log.Printf("leave decision %s: send email to %s: %v", lr.ID, requester.Email, err)
	}
}

type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateLeaveRequest(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateLeaveRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	lr, err := h.svc.CreateLeaveRequest(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, lr)
}

func (h *Handler) GetLeaveRequest(c echo.Context) error {
	lr, err := h.svc.GetLeaveRequest(c.Request().Context(), c.Param("leaveId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, lr)
}

func (h *Handler) ListMyLeaveRequests(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	leaves, err := h.svc.ListMyLeaveRequests(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, leaves)
}

func (h *Handler) ListLeaveRequests(c echo.Context) error {
	leaves, err := h.svc.ListLeaveRequests(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, leaves)
}

func (h *Handler) DecideLeaveRequest(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.DecideLeaveRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	lr, err := h.svc.DecideLeaveRequest(c.Request().Context(), c.Param("leaveId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, lr)
}
