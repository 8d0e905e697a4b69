package deliveries

import (
	"net/http"
	"time"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for deliveries.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new delivery handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateDelivery(c echo.Context) error {
	var req models.CreateDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	delivery, err := h.svc.CreateDelivery(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, delivery)
}

func (h *Handler) GetDelivery(c echo.Context) error {
	delivery, err := h.svc.GetDelivery(c.Request().Context(), c.Param("deliveryId"))
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, delivery)
}

func (h *Handler) ListDeliveries(c echo.Context) error {
	var filter models.DeliveryFilter
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.FromDate = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.ToDate = t
		}
	}
	filter.Status = c.QueryParam("status")

	page, limit := utils.GetPageLimit(c)
	items, total, err := h.svc.ListDeliveries(c.Request().Context(), filter, page, limit)
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve deliveries")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"deliveries": items, "total": total})
}

func (h *Handler) UpdateDelivery(c echo.Context) error {
	var req models.UpdateDeliveryRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	delivery, err := h.svc.UpdateDelivery(c.Request().Context(), c.Param("deliveryId"), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, delivery)
}

func (h *Handler) DeleteDelivery(c echo.Context) error {
	if err := h.svc.DeleteDelivery(c.Request().Context(), c.Param("deliveryId")); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
