package utils

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"", PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}},
		{"?page=3&limit=10", PaginationParams{Page: 3, PageSize: 10, Offset: 20}},
		{"?page=-1&limit=9999", PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}},
		{"?page=abc&limit=xyz", PaginationParams{Page: 1, PageSize: DefaultPageSize, Offset: 0}},
		{"?page=288230376151711744&limit=64", PaginationParams{Page: 288230376151711744, PageSize: 64, Offset: math.MaxInt}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestLatest(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{5, 6, 7}, Latest(items, PaginationParams{Page: 1, PageSize: 3, Offset: 0}))
	assert.Equal(t, []int{2, 3, 4}, Latest(items, PaginationParams{Page: 2, PageSize: 3, Offset: 3}))
	assert.Equal(t, []int{1}, Latest(items, PaginationParams{Page: 3, PageSize: 3, Offset: 6}))
	assert.Empty(t, Latest(items, PaginationParams{Page: 4, PageSize: 3, Offset: 9}))
}

func TestLatest_OutOfRangeOffset(t *testing.T) {
	items := []int{1, 2, 3}

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=288230376151711744&limit=64", nil), httptest.NewRecorder())

	assert.NotPanics(t, func() {
		assert.Empty(t, Latest(items, GetPaginationParams(c)))
	})
	assert.Empty(t, Latest(items, PaginationParams{Page: 1, PageSize: 3, Offset: -64}))
	assert.Empty(t, Latest(items, PaginationParams{Page: 2, PageSize: 3, Offset: 3}))
}
