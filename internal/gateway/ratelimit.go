package gateway

import (
	"net/http"
	"time"

	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

// rateLimit applies a fixed window per acting user, or per client address
// for anonymous or malformed-header calls. Store errors let the request through.
func (s *Server) rateLimit() gin.HandlerFunc {
	limit := s.cfg.RateLimit.Requests
	window := time.Duration(s.cfg.RateLimit.WindowSeconds) * time.Second

	return func(c *gin.Context) {
		if s.limiter == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := models.RateLimitKey(c.GetHeader(models.HeaderSharerUserID), c.ClientIP())

		allowed, err := s.limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
			c.Next()
			return
		}
		if !allowed {
			metrics.IncRateLimited("gateway")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
