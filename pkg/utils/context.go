package utils

import (
	"net/http"

	"fleet-ops/internal/models"

	"github.com/labstack/echo/v4"
)

// ExtractUserInfo reads the user id and role placed into the echo context
// by the JWT middleware. Handlers call this instead of touching claims
// directly.
func ExtractUserInfo(c echo.Context) (userID string, role string, err error) {
	userID, _ = c.Get("userID").(string)
	role, _ = c.Get("userRole").(string)
	if userID == "" {
		return "", "", c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing authentication"})
	}
	return userID, role, nil
}
