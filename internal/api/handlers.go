package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/middleware"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

// sharerID reads the acting user from X-Sharer-User-Id. On failure the
// response is already written.
func (s *HTTPServer) sharerID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.GetHeader(models.HeaderSharerUserID))
	if raw == "" {
		s.abort(c, http.StatusBadRequest, "missing "+models.HeaderSharerUserID+" header")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.abort(c, http.StatusBadRequest, "invalid "+models.HeaderSharerUserID+" header")
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		s.abort(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.abort(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *HTTPServer) abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func (s *HTTPServer) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	s.abort(c, status, domain.Message(err, http.StatusText(status)))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
