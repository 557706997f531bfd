package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/pkg/errors"
)

type tokenTable map[string]string

func (t tokenTable) VerifyToken(ctx context.Context, idToken string) (string, error) {
	uid, ok := t[idToken]
	if !ok {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return uid, nil
}

func (t tokenTable) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	return &entity.Profile{UID: uid}, nil
}

func echoUID(c echo.Context) error {
	return c.String(http.StatusOK, c.Get("uid").(string))
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(tokenTable{"good-token": "pilot-1"})
	h := m.Authenticate(echoUID)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid bearer token", "Bearer good-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer forged", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			require.NoError(t, h(e.NewContext(req, rec)))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "pilot-1", rec.Body.String())
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", TokenFromRequest(e.NewContext(req, httptest.NewRecorder())))

	req = httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(e.NewContext(req, httptest.NewRecorder())))

	m := NewAuthMiddleware(tokenTable{})
	_, err := m.GetUIDFromToken(context.Background(), "")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(ratelimit.Limit{PerMinute: 60}, map[string]ratelimit.Limit{
		"stage_attachment": {PerMinute: 1, Burst: 1},
	})
	h := RateLimit(limiter, "stage_attachment")(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	call := func(uid string) *httptest.ResponseRecorder {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/attachments", nil), rec)
		if uid != "" {
			c.Set("uid", uid)
		}
		require.NoError(t, h(c))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("pilot-1").Code)
	rec := call("pilot-1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), errors.CodeTooManyRequests)

	assert.Equal(t, http.StatusNoContent, call("pilot-2").Code)

	// anonymous callers are keyed by address
	assert.Equal(t, http.StatusNoContent, call("").Code)
	assert.Equal(t, http.StatusTooManyRequests, call("").Code)
}
