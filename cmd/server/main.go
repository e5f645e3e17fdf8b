package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdfvault/pdfvault-backend/internal/auth"
	authbiz "github.com/pdfvault/pdfvault-backend/internal/auth/biz"
	authdata "github.com/pdfvault/pdfvault-backend/internal/auth/data"
	authservice "github.com/pdfvault/pdfvault-backend/internal/auth/service"
	"github.com/pdfvault/pdfvault-backend/internal/conf"
	"github.com/pdfvault/pdfvault-backend/internal/data"
	"github.com/pdfvault/pdfvault-backend/internal/email"
	filebiz "github.com/pdfvault/pdfvault-backend/internal/file/biz"
	filedata "github.com/pdfvault/pdfvault-backend/internal/file/data"
	fileservice "github.com/pdfvault/pdfvault-backend/internal/file/service"
	"github.com/pdfvault/pdfvault-backend/internal/file/storage"
	"github.com/pdfvault/pdfvault-backend/internal/pkg/logger"
	"github.com/pdfvault/pdfvault-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Initialize blob storage
	store, err := storage.NewLocalStore(config.Storage.UploadDir, config.Storage.TempDir, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}

	// Initialize repositories
	userRepo := authdata.NewUserRepo(d.DB, log)
	fileRepo := filedata.NewFileRepo(d.DB, log)

	// Initialize use cases
	jwtManager := auth.NewJWTManager(config.Auth.JWTSecret, config.Auth.JWTIssuer, config.Auth.AccessTokenDuration)

	var notifier authbiz.Notifier
	mailer := email.NewMailer(&config.Email, log)
	if mailer.Enabled() {
		notifier = mailer
	}

	authUseCase := authbiz.NewAuthUseCase(
		userRepo,
		jwtManager,
		authbiz.AdminCredentials{
			Email:        config.Admin.Email,
			PasswordHash: config.Admin.PasswordHash,
		},
		notifier,
		log,
	)
	fileUseCase := filebiz.NewFileUseCase(fileRepo, store, log)

	// Initialize services
	authSvc := authservice.NewAuthService(authUseCase, log)
	fileSvc := fileservice.NewFileService(fileUseCase, store, config.Storage.MaxFileSize, log)

	// Initialize server
	httpServer := server.NewHTTPServer(config, log, d.DB, d.RedisClient, jwtManager, authSvc, fileSvc)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
