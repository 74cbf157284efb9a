package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/company-task-api/internal/constants"
)

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		query string
		want  PaginationParams
	}{
		{"defaults", "", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"explicit", "page=3&limit=10", PaginationParams{Page: 3, Limit: 10, Offset: 20}},
		{"negative page", "page=-2&limit=5", PaginationParams{Page: 1, Limit: 5, Offset: 0}},
		{"limit too large", "limit=1000", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
		{"garbage", "page=abc&limit=xyz", PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)

			assert.Equal(t, tt.want, GetPaginationParams(c))
		})
	}
}

func TestNewPaginationResponse(t *testing.T) {
	resp := NewPaginationResponse(NewPaginationParams(2, 10), 25)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, int64(25), resp.Total)

	empty := NewPaginationResponse(NewPaginationParams(1, 10), 0)
	assert.Equal(t, 0, empty.TotalPages)
}
