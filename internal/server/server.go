package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickpoll/config"
	"quickpoll/internal/handler"
	"quickpoll/internal/middleware"
	"quickpoll/internal/redis"
	"quickpoll/internal/services"
	"quickpoll/internal/transport/httpdto"
	"quickpoll/internal/websocket"
	"quickpoll/pkg/database"
	"quickpoll/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	pool       *pgxpool.Pool
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Device *handler.DeviceHandler
	Poll   *handler.PollHandler
	Vote   *handler.VoteHandler
	Export *handler.ExportHandler
	Upload *handler.UploadHandler
	WS     *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger, pool *pgxpool.Pool) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		pool:   pool,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))
	s.engine.Use(middleware.DeviceMiddleware())

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), s.pool); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	requireAuth := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)

	auth := s.engine.Group("/v1/auth")
	auth.Use(middleware.RateLimitMiddleware(limiter))
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
	}

	devices := s.engine.Group("/v1/devices")
	{
		devices.POST("", handlers.Device.Ensure)
		devices.POST("/name", handlers.Device.ClaimName)
	}

	polls := s.engine.Group("/v1/polls")
	{
		polls.POST("", requireAuth, handlers.Poll.Create)
		polls.GET("", requireAuth, handlers.Poll.ListMine)
		polls.GET("/:id", handlers.Poll.Get)
		polls.PATCH("/:id", requireAuth, handlers.Poll.Update)
		polls.POST("/:id/close", requireAuth, handlers.Poll.Close)
		polls.DELETE("/:id", requireAuth, handlers.Poll.Delete)
		polls.POST("/:id/options", requireAuth, handlers.Poll.AddOption)

		polls.GET("/:id/admission", optionalAuth, handlers.Vote.Admission)
		polls.POST("/:id/votes", optionalAuth, middleware.VoteRateLimitMiddleware(limiter), handlers.Vote.Submit)
		polls.GET("/:id/vote", optionalAuth, handlers.Vote.MyVote)
		polls.GET("/:id/tally", optionalAuth, handlers.Vote.Tally)
		polls.GET("/:id/results", optionalAuth, handlers.Vote.Results)
		polls.GET("/:id/export", requireAuth, handlers.Export.Export)
	}

	uploads := s.engine.Group("/v1/uploads")
	{
		uploads.POST("/presign", requireAuth, handlers.Upload.Presign)
	}

	s.engine.GET("/v1/ws", handlers.WS.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
