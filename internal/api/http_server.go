package api

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

// Services bundles the business services the HTTP surface dispatches to.
type Services struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings domain.BookingService
	Requests domain.RequestService
}

// Pinger reports whether the backing store answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HTTPServer is the server tier: it owns the business rules and the store
// and trusts the gateway to have validated the input shape.
type HTTPServer struct {
	cfg    config.ServerConfig
	svc    Services
	store  Pinger
	engine *gin.Engine
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.ServerConfig, svc Services, store Pinger, logger *zerolog.Logger) *HTTPServer {
	log := logging.Component(logger, "http")
	srv := &HTTPServer{cfg: cfg, svc: svc, store: store, logger: log}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.AccessLog(log),
		middleware.Metrics("server"),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		newRateLimiter(cfg.RateLimit).middleware(),
	)
	srv.registerRoutes(engine)
	srv.engine = engine

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSeconds) * time.Second,
	}

	return srv
}

func (s *HTTPServer) registerRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)

	users := r.Group("/users")
	users.POST("", s.createUser)
	users.GET("/:userId", s.getUser)
	users.PATCH("/:userId", s.updateUser)
	users.DELETE("/:userId", s.deleteUser)

	items := r.Group("/items")
	items.POST("", s.createItem)
	items.GET("", s.listOwnerItems)
	items.GET("/search", s.searchItems)
	items.GET("/:itemId", s.getItem)
	items.PATCH("/:itemId", s.patchItem)
	items.DELETE("/:itemId", s.deleteItem)
	items.POST("/:itemId/comment", s.addComment)

	bookings := r.Group("/bookings")
	bookings.POST("", s.createBooking)
	bookings.GET("", s.listBookerBookings)
	bookings.GET("/owner", s.listOwnerBookings)
	bookings.GET("/owner/export", s.exportOwnerBookings)
	bookings.GET("/:bookingId", s.getBooking)
	bookings.PATCH("/:bookingId", s.approveBooking)

	requests := r.Group("/requests")
	requests.POST("", s.createRequest)
	requests.GET("", s.listOwnRequests)
	requests.GET("/all", s.listOtherRequests)
	requests.GET("/:requestId", s.getRequest)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.PingContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
