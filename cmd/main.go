package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/config"
	"github.com/courtside/league-system/db"
	"github.com/courtside/league-system/handlers"
	"github.com/courtside/league-system/repositories"
	api "github.com/courtside/league-system/routes"
	"github.com/courtside/league-system/services"
	"github.com/courtside/league-system/storage"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := dbConn.Migrate(cfg.MigrationsPath); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied", slog.String("path", cfg.MigrationsPath))

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, logo uploads disabled")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn.DB)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn.DB)
	cupRepo := repositories.NewPostgresCupRepository(dbConn.DB)
	matchRepo := repositories.NewPostgresCupMatchRepository(dbConn.DB)
	eventRepo := repositories.NewPostgresEventRepository(dbConn.DB)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn.DB)
	proposalRepo := repositories.NewPostgresProposalRepository(dbConn.DB)

	authService := services.NewAuthService(userRepo)
	cupService := services.NewCupService(dbConn, cupRepo, matchRepo, eventRepo, invitationRepo, teamRepo, uploader, wsHub, logger)
	eventService := services.NewEventService(dbConn, eventRepo, invitationRepo, proposalRepo)
	rsvpService := services.NewRSVPService(dbConn, eventRepo, invitationRepo, wsHub, logger)
	votingService := services.NewVotingService(dbConn, eventRepo, invitationRepo, proposalRepo, wsHub, logger)
	logger.Info("services initialized")

	jwtSecret := []byte(cfg.JWTSecretKey)
	router := api.InitRoutes(api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, jwtSecret),
		Cup:       handlers.NewCupHandler(cupService),
		Event:     handlers.NewEventHandler(eventService, rsvpService),
		Voting:    handlers.NewVotingHandler(votingService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, logger),
	}, jwtSecret)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
