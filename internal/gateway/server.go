package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/logging"
	"shareit/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server is the validating front tier. Requests that pass the shape checks
// are relayed to the server tier and its answer is returned unchanged.
type Server struct {
	cfg      config.GatewayConfig
	upstream Upstream
	limiter  domain.RateLimitStore
	engine   *gin.Engine
	server   *http.Server
	logger   *zerolog.Logger
}

// NewServer wires the router. limiter may be nil to disable rate limiting.
func NewServer(cfg config.GatewayConfig, upstream Upstream, limiter domain.RateLimitStore, logger *zerolog.Logger) *Server {
	registerValidators()

	log := logging.Component(logger, "gateway")
	s := &Server{cfg: cfg, upstream: upstream, limiter: limiter, logger: log}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Metrics("gateway"),
		s.rateLimit(),
	)
	s.registerRoutes(engine)
	s.engine = engine

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := r.Group("/users")
	users.POST("", s.body(func() any { return &userCreateRequest{} }), s.relay)
	users.GET("/:userId", s.pathIDs("userId"), s.relay)
	users.PATCH("/:userId", s.pathIDs("userId"), s.body(func() any { return &userPatchRequest{} }), s.relay)
	users.DELETE("/:userId", s.pathIDs("userId"), s.relay)

	items := r.Group("/items", s.sharer)
	items.POST("", s.body(func() any { return &itemCreateRequest{} }), s.relay)
	items.GET("", s.relay)
	items.GET("/search", s.requiredQuery("text"), s.relay)
	items.GET("/:itemId", s.pathIDs("itemId"), s.relay)
	items.PATCH("/:itemId", s.pathIDs("itemId"), s.body(func() any { return &itemPatchRequest{} }), s.relay)
	items.DELETE("/:itemId", s.pathIDs("itemId"), s.relay)
	items.POST("/:itemId/comment", s.pathIDs("itemId"), s.body(func() any { return &commentRequest{} }), s.relay)

	bookings := r.Group("/bookings", s.sharer)
	bookings.POST("", s.body(func() any { return &bookingCreateRequest{} }), s.relay)
	bookings.GET("", s.state, s.relay)
	bookings.GET("/owner", s.state, s.relay)
	bookings.GET("/owner/export", s.state, s.relay)
	bookings.GET("/:bookingId", s.pathIDs("bookingId"), s.relay)
	bookings.PATCH("/:bookingId", s.pathIDs("bookingId"), s.approved, s.relay)

	requests := r.Group("/requests", s.sharer)
	requests.POST("", s.body(func() any { return &itemRequestCreateRequest{} }), s.relay)
	requests.GET("", s.relay)
	requests.GET("/all", s.relay)
	requests.GET("/:requestId", s.pathIDs("requestId"), s.relay)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Str("upstream", s.cfg.ServerURL).Msg("gateway listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
