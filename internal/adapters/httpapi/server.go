package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the HTTP front of the checker: a single-check endpoint, the async
// job endpoints and the operational routes.
type Server struct {
	httpServer *http.Server
	handler    *CheckHandler
	logger     *zap.Logger
}

// NewServer builds the router and wraps it in an http.Server.
func NewServer(listenAddress string, corsOrigins []string, handler *CheckHandler, logger *zap.Logger) *Server {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(PrometheusMiddleware())

	corsConfig := cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", MetricsHandler())

	api := router.Group("/api")
	{
		api.GET("/check-key", handler.HasKey)
		api.POST("/check", handler.Check)
		api.POST("/jobs", handler.CreateJob)
		api.GET("/jobs", handler.ListJobs)
		api.GET("/jobs/:id", handler.GetJob)
		api.POST("/jobs/:id/cancel", handler.CancelJob)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              listenAddress,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		handler: handler,
		logger:  logger,
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
