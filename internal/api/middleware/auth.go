package middleware

import (
	"errors"
	"net/http"

	"fleet-ops/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuth configures and returns Echo's JWT middleware.
// It uses the jwtSecretKey from the config file (.env).
func JWTAuth(jwtSecretKey string) echo.MiddlewareFunc {
	config := echojwt.Config{
		// NewClaimsFunc is required to specify the type of claims object to expect.
		// The middleware will use this to parse the claims from the token.
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.JwtCustomClaims)
		},
		// SigningKey is the secret key used to verify the JWT's signature.
		SigningKey: []byte(jwtSecretKey),

		// SuccessHandler is called after a token is successfully validated.
		// Custom claims are extracted here and placed into the context.
		SuccessHandler: func(c echo.Context) {
			userToken := c.Get("user").(*jwt.Token)
			claims := userToken.Claims.(*models.JwtCustomClaims)

			c.Set("userID", claims.UserID)
			c.Set("userEmail", claims.Email)
			c.Set("userRole", claims.Role)
		},

		// ErrorHandler is called when token validation fails (expired,
		// invalid signature, ...). Detailed errors stay in the server log;
		// the client gets a generic message.
		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Errorf("JWT Error: %v", err)

			if errors.Is(err, echojwt.ErrJWTMissing) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing or malformed JWT"})
			}
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Token is malformed"})
			} else if errors.Is(err, jwt.ErrTokenExpired) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Token has expired"})
			} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid token signature"})
			}

			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or expired JWT"})
		},
	}
	return echojwt.WithConfig(config)
}

// AdminRequired rejects requests whose JWT role is not admin.
func AdminRequired() echo.MiddlewareFunc {
	return requireRoles(models.RoleAdmin)
}

// DriverOrAdminRequired allows drivers and admins through; everyone else
// is rejected. Used for the route/assignment surfaces.
func DriverOrAdminRequired() echo.MiddlewareFunc {
	return requireRoles(models.RoleDriver, models.RoleAdmin)
}

func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("userRole").(string)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Insufficient permissions"})
		}
	}
}
