package assignments

import (
	"net/http"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for daily route assignments.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new assignment handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// ListDateGroups handles GET /assignments/groups?quick=&from=&to=&search=.
func (h *Handler) ListDateGroups(c echo.Context) error {
	groups, err := h.svc.DateGroups(
		c.Request().Context(),
		c.QueryParam("quick"),
		c.QueryParam("from"),
		c.QueryParam("to"),
		c.QueryParam("search"),
	)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"groups": groups})
}

// AvailableDeliveries handles GET /assignments/available?date=YYYY-MM-DD.
func (h *Handler) AvailableDeliveries(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "date query parameter is required")
	}

	available, err := h.svc.AvailableDeliveriesForDate(c.Request().Context(), date)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"deliveries": available})
}

func (h *Handler) CreateAssignment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	assignment, err := h.svc.CreateAssignment(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, assignment)
}

func (h *Handler) GetAssignment(c echo.Context) error {
	assignment, err := h.svc.GetAssignment(c.Request().Context(), c.Param("assignmentId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, assignment)
}

func (h *Handler) UpdateAssignment(c echo.Context) error {
	var req models.UpdateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	assignment, err := h.svc.UpdateAssignment(c.Request().Context(), c.Param("assignmentId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, assignment)
}

func (h *Handler) DeleteAssignment(c echo.Context) error {
	if err := h.svc.DeleteAssignment(c.Request().Context(), c.Param("assignmentId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// OptimizeDate handles POST /assignments/optimize?date=YYYY-MM-DD. Every
// assignment for the date is attempted; the response reports how many
// were optimized.
func (h *Handler) OptimizeDate(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "date query parameter is required")
	}

	optimized, err := h.svc.OptimizeRoutesForDate(c.Request().Context(), date)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"optimized": optimized})
}

// NavigationLink handles GET /assignments/:assignmentId/navigation-link.
func (h *Handler) NavigationLink(c echo.Context) error {
	link, err := h.svc.NavigationLink(c.Request().Context(), c.Param("assignmentId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]string{"url": link})
}
