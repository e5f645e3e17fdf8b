package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfvault/pdfvault-backend/internal/auth"
	"github.com/pdfvault/pdfvault-backend/internal/auth/middleware"
	authservice "github.com/pdfvault/pdfvault-backend/internal/auth/service"
	"github.com/pdfvault/pdfvault-backend/internal/conf"
	fileservice "github.com/pdfvault/pdfvault-backend/internal/file/service"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/database"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

// HTTPServer hosts the REST API
type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewHTTPServer wires middleware and routes
func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	db *database.DB,
	redisClient *redis.Client,
	jwtManager *auth.JWTManager,
	authSvc *authservice.AuthService,
	fileSvc *fileservice.FileService,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		httpStatus := http.StatusOK
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")

	// Public auth endpoints, rate-limited per IP
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RegisterRateLimiter(redisClient, log), authSvc.Register)
		authGroup.POST("/login", middleware.LoginRateLimiter(redisClient, log), authSvc.Login)
		authGroup.POST("/admin/login", middleware.LoginRateLimiter(redisClient, log), authSvc.AdminLogin)
	}

	// File endpoints, authenticated
	files := api.Group("/files", middleware.JWTAuth(jwtManager, log))
	{
		files.POST("", middleware.UploadRateLimiter(redisClient, log), fileSvc.Upload)
		files.GET("", fileSvc.List)
		files.GET("/global", fileSvc.ListGlobal)
		files.GET("/search", fileSvc.Search)
		files.GET("/:id/download", fileSvc.Download)
		files.GET("/:id/preview", fileSvc.Preview)
		files.PUT("/:id/global", fileSvc.SetGlobal)
		files.DELETE("/:id", fileSvc.Delete)
	}

	// Admin endpoints, require the admin claim
	admin := api.Group("/admin", middleware.JWTAuth(jwtManager, log), middleware.AdminAuth())
	{
		admin.GET("/users", authSvc.ListUsers)
		admin.PUT("/users/:email/password", authSvc.ResetUserPassword)
	}

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

// Start blocks serving requests until Stop is called
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop shuts the server down gracefully
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
