package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/metrics"
	"shareit/internal/middleware"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// sharer requires a numeric X-Sharer-User-Id.
func (s *Server) sharer(c *gin.Context) {
	raw := strings.TrimSpace(c.GetHeader(models.HeaderSharerUserID))
	if raw == "" {
		badRequest(c, "missing "+models.HeaderSharerUserID+" header")
		return
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
		badRequest(c, "invalid "+models.HeaderSharerUserID+" header")
		return
	}
	c.Next()
}

func (s *Server) pathIDs(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			if id, err := strconv.ParseInt(c.Param(name), 10, 64); err != nil || id <= 0 {
				badRequest(c, "invalid "+name)
				return
			}
		}
		c.Next()
	}
}

func (s *Server) requiredQuery(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.GetQuery(name); !ok {
			badRequest(c, "missing query parameter "+name)
			return
		}
		c.Next()
	}
}

func (s *Server) state(c *gin.Context) {
	if _, err := models.ParseBookingState(c.Query("state")); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.Next()
}

func (s *Server) approved(c *gin.Context) {
	if _, err := strconv.ParseBool(c.Query("approved")); err != nil {
		badRequest(c, "approved must be true or false")
		return
	}
	c.Next()
}

// body decodes and validates the JSON body. The raw bytes stay cached on
// the context for relay.
func (s *Server) body(newReq func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.ShouldBindBodyWith(newReq(), binding.JSON); err != nil {
			badRequest(c, validationMessage(err))
			return
		}
		c.Next()
	}
}

// relay forwards the request to the server tier and copies its answer back.
func (s *Server) relay(c *gin.Context) {
	var body []byte
	if cached, ok := c.Get(gin.BodyBytesKey); ok {
		body, _ = cached.([]byte)
	}

	resp, err := s.upstream.Forward(c.Request.Context(), c.Request.Method, c.Request.URL.RequestURI(), c.Request.Header, body)
	if err != nil {
		metrics.IncUpstreamError()
		s.logger.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("upstream request failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
		return
	}

	for _, name := range relayedHeaders {
		if v := resp.Header.Get(name); v != "" {
			c.Header(name, v)
		}
	}
	if len(resp.Body) == 0 {
		c.Status(resp.Status)
		return
	}
	c.Data(resp.Status, resp.Header.Get("Content-Type"), resp.Body)
}
