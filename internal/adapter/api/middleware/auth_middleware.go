package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"aeroclassifieds/internal/domain/service"
	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/response"
)

type AuthMiddleware struct {
	identity service.IdentityService
}

func NewAuthMiddleware(identity service.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{
		identity: identity,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		idToken, ok := bearerToken(authHeader)
		if !ok {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		uid, err := m.identity.VerifyToken(c.Request().Context(), idToken)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", uid)
		return next(c)
	}
}

// GetUIDFromToken verifies a raw token, for callers that cannot send headers
// such as browser websocket handshakes.
func (m *AuthMiddleware) GetUIDFromToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return m.identity.VerifyToken(ctx, token)
}

// TokenFromRequest reads the bearer token from the Authorization header or,
// failing that, the "token" query parameter.
func TokenFromRequest(c echo.Context) string {
	if token, ok := bearerToken(c.Request().Header.Get("Authorization")); ok {
		return token
	}
	return c.QueryParam("token")
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
