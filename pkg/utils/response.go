package utils

import (
	"errors"
	"net/http"

	"fleet-ops/internal/models"

	"github.com/labstack/echo/v4"
)

// RespondWithJSON writes a JSON payload with the given status code.
func RespondWithJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

// RespondWithError writes a generic JSON error body.
func RespondWithError(c echo.Context, status int, message string) error {
	return c.JSON(status, models.ErrorResponse{Message: message})
}

// HandleServiceError maps service-layer errors onto HTTP responses.
// Every public operation funnels its failures through here so nothing
// propagates to the client as an uncaught error.
func HandleServiceError(c echo.Context, err error) error {
	var conflict *models.DeliveriesAlreadyAssignedError
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, map[string]interface{}{
			"message":      "Some deliveries are already assigned",
			"delivery_ids": conflict.DeliveryIDs,
		})
	case errors.Is(err, models.ErrNotFound):
		return RespondWithError(c, http.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		return RespondWithError(c, http.StatusConflict, "Resource already exists")
	case errors.Is(err, models.ErrInvalidCredentials):
		return RespondWithError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, models.ErrForbidden):
		return RespondWithError(c, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, models.ErrNoDeliveriesSelected),
		errors.Is(err, models.ErrNoRouteToSave),
		errors.Is(err, models.ErrNoAssignmentsForDate),
		errors.Is(err, models.ErrNoValidCoordinates):
		return RespondWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		c.Logger().Error("unhandled service error: ", err)
		return RespondWithError(c, http.StatusInternalServerError, "Something went wrong")
	}
}
