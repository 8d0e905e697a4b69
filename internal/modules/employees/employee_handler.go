package employees

import (
	"net/http"
	"time"

	"fleet-ops/internal/models"
	"fleet-ops/pkg/utils"

	"github.com/labstack/echo/v4"
)

const oauthStateCookie = "oauthstate"

// Handler handles HTTP requests for employees and authentication.
type Handler struct {
	svc ServiceInterface
}

// NewHandler creates a new employee handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	resp, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	resp, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// GoogleLogin redirects to the Google consent screen, dropping the CSRF
// state into a short-lived cookie.
func (h *Handler) GoogleLogin(c echo.Context) error {
	url, state, err := h.svc.HandleGoogleLogin()
	if err != nil {
		return utils.HandleServiceError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/",
	})
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *Handler) GoogleCallback(c echo.Context) error {
	stateCookie, err := c.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid oauth state")
	}

	code := c.QueryParam("code")
	if code == "" {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing authorization code")
	}

	resp, err := h.svc.HandleGoogleCallback(c.Request().Context(), code)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

func (h *Handler) GetProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	e, err := h.svc.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, e)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.UpdateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	e, err := h.svc.UpdateProfile(c.Request().Context(), userID, role, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, e)
}

func (h *Handler) ListEmployees(c echo.Context) error {
	page, limit := utils.GetPageLimit(c)

	employees, total, err := h.svc.ListEmployees(c.Request().Context(), page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{
		"employees": employees,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// ListDrivers feeds the driver picker on the assignment form.
func (h *Handler) ListDrivers(c echo.Context) error {
	drivers, err := h.svc.ListDrivers(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, drivers)
}

func (h *Handler) UpdateEmployee(c echo.Context) error {
	id := c.Param("employeeId")

	var req models.UpdateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := utils.GetValidator().Validate(req); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}

	e, err := h.svc.UpdateEmployee(c.Request().Context(), id, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, e)
}

func (h *Handler) DeactivateEmployee(c echo.Context) error {
	id := c.Param("employeeId")

	if err := h.svc.DeactivateEmployee(c.Request().Context(), id); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
