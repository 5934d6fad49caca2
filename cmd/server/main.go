package main

import (
	"alcyxob/coaching-app/internal/api"
	"alcyxob/coaching-app/internal/config"
	"alcyxob/coaching-app/internal/events"
	"alcyxob/coaching-app/internal/logging"
	"alcyxob/coaching-app/internal/payment"
	"alcyxob/coaching-app/internal/repository"
	"alcyxob/coaching-app/internal/repository/memory"
	"alcyxob/coaching-app/internal/repository/mongo"
	"alcyxob/coaching-app/internal/service"
	"alcyxob/coaching-app/internal/status"
	"alcyxob/coaching-app/internal/storage"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Coaching Platform API
// @version 1.0
// @description Programs, assignments and client status for coaches and their clients.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	os.Exit(run())
}

// run wires the server and blocks until it stops. Deferred cleanup runs
// before the exit code is handed back to main.
func run() int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", "error", err)
		return 1
	}
	logger := logging.SetupGlobalHandler("coaching-api", cfg.Log.Level)
	logger.Info("configuration loaded", "driver", cfg.Database.Driver, "address", cfg.Server.Address)

	// --- Repositories ---
	var repos repository.Repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		repos = memory.NewRepositories()
	default:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			logger.Error("could not connect to MongoDB", "error", err)
			return 1
		}
		defer func() {
			logger.Info("disconnecting MongoDB")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				logger.Error("failed to disconnect MongoDB", "error", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		// The active-assignment index enforces a business rule, so it has
		// to exist before requests are served.
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err = mongo.EnsureIndexes(ctx, appDB)
		cancel()
		if err != nil {
			logger.Error("failed to ensure indexes", "error", err)
			return 1
		}
		repos = mongo.NewRepositories(appDB)
	}

	// --- Storage ---
	fileStorage, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		logger.Error("failed to initialize S3 storage", "error", err)
		return 1
	}

	// --- Events ---
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			logger.Error("failed to connect to NATS", "url", cfg.NATS.URL, "error", err)
			return 1
		}
		publisher = natsPublisher
	}
	defer publisher.Close()

	gateway := payment.NewStripeGateway(cfg.Stripe)

	// --- Services ---
	thresholds := status.Thresholds{
		Inactivity: cfg.Status.InactivityThreshold,
		NewWindow:  cfg.Status.NewWindow,
	}
	services := api.Services{
		Auth:        service.NewAuthService(repos, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Plans.TrialDuration),
		Checkout:    service.NewCheckoutService(repos, gateway, cfg.Plans.TrialDuration, cfg.Plans.PaidDuration),
		Programs:    service.NewProgramService(repos, publisher),
		Assignments: service.NewAssignmentService(repos, publisher),
		Clients:     service.NewClientService(repos, thresholds),
		Library:     service.NewLibraryService(repos.Library),
		Media:       service.NewMediaService(repos.Media, fileStorage),
	}

	// --- Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(logging.RequestLogger(logger), gin.Recovery())
	api.SetupRoutes(router, services)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if err := serve(server, quit, logger); err != nil {
		logger.Error("listen failed", "error", err)
		return 1
	}
	logger.Info("server exiting")
	return 0
}

// serve runs the server until it fails or a signal arrives on quit, in
// which case it shuts down gracefully.
func serve(server *http.Server, quit <-chan os.Signal, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	return nil
}
