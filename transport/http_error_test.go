package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusError int

func (s statusError) Error() string   { return "upstream said no" }
func (s statusError) StatusCode() int { return int(s) }

func TestProblemFrom(t *testing.T) {
	for _, test := range []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{name: "Invalid Argument", err: internal.NewErrorf(internal.ErrorCodeInvalidArgument, "quantity must be positive"), status: http.StatusBadRequest, detail: "quantity must be positive"},
		{name: "Not Found", err: internal.NewErrorf(internal.ErrorCodeNotFound, "cart does not exist"), status: http.StatusNotFound, detail: "cart does not exist"},
		{name: "Conflict", err: internal.NewErrorf(internal.ErrorCodeConflict, "already reviewed"), status: http.StatusConflict, detail: "already reviewed"},
		{name: "Unauthorized", err: internal.NewErrorf(internal.ErrorCodeUnauthorized, "token expired"), status: http.StatusUnauthorized, detail: "token expired"},
		{name: "Internal Hides Detail", err: internal.WrapErrorf(errors.New("pq: relation missing"), internal.ErrorCodeInternal, "Failed to list"), status: http.StatusInternalServerError, detail: genericDetail},
		{name: "Dependency Status", err: internal.WrapErrorf(statusError(http.StatusGatewayTimeout), internal.ErrorCodeInternal, "send failed"), status: http.StatusGatewayTimeout, detail: genericDetail},
		{name: "Bare Status Error", err: statusError(http.StatusBadRequest), status: http.StatusBadRequest, detail: "upstream said no"},
		{name: "Unknown", err: errors.New("boom"), status: http.StatusInternalServerError, detail: genericDetail},
	} {
		t.Run(test.name, func(t *testing.T) {
			p := ProblemFrom(test.err)
			assert.Equal(t, test.status, p.Status)
			assert.Equal(t, test.detail, p.Detail)
			assert.Equal(t, http.StatusText(test.status), p.Title)
			assert.Contains(t, p.Type, "https://bloom.shop/problems/")
		})
	}
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorMiddleware(logger.Nop()))
	r.GET("/carts/:id", func(c *gin.Context) {
		Fail(c, internal.NewErrorf(internal.ErrorCodeNotFound, "Cart %s does not exist", c.Param("id")))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/carts/abc", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ProblemContentType, w.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Cart abc does not exist", p.Detail)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "https://bloom.shop/problems/not-found", p.Type)
}
