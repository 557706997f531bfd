package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"aeroclassifieds/pkg/errors"
	"aeroclassifieds/pkg/response"
)

// DevTokenIssuer mints tokens for arbitrary users. Only wired in development.
type DevTokenIssuer interface {
	GenerateDevToken(ctx context.Context, uid string) (string, error)
}

type DevTokenHandler struct {
	issuer DevTokenIssuer
}

func NewDevTokenHandler(issuer DevTokenIssuer) *DevTokenHandler {
	return &DevTokenHandler{
		issuer: issuer,
	}
}

// GenerateUserToken returns a token for the uid in the path so websocket and
// REST clients can be exercised locally.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return response.Error(c, errors.BadRequest("uid is required", nil))
	}

	token, err := h.issuer.GenerateDevToken(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to generate token", err))
	}

	return response.Success(c, map[string]string{
		"uid":   uid,
		"token": token,
	})
}
