package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/frontandrew/tollplaza/internal/delivery/http"
	"github.com/frontandrew/tollplaza/internal/domain"
	"github.com/frontandrew/tollplaza/internal/pkg/clock"
	"github.com/frontandrew/tollplaza/internal/pkg/config"
	"github.com/frontandrew/tollplaza/internal/pkg/database"
	"github.com/frontandrew/tollplaza/internal/pkg/id"
	"github.com/frontandrew/tollplaza/internal/pkg/lock"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/frontandrew/tollplaza/internal/pkg/redis"
	"github.com/frontandrew/tollplaza/internal/repository"
	"github.com/frontandrew/tollplaza/internal/repository/cached"
	"github.com/frontandrew/tollplaza/internal/repository/postgres"
	"github.com/frontandrew/tollplaza/internal/usecase/leaderboard"
	"github.com/frontandrew/tollplaza/internal/usecase/pass"
	"github.com/frontandrew/tollplaza/internal/usecase/passage"
	"github.com/frontandrew/tollplaza/internal/usecase/pricing"
	"github.com/frontandrew/tollplaza/internal/usecase/transaction"
	"github.com/frontandrew/tollplaza/internal/usecase/vehicle"
)

func main() {
	// =========================================================================
	// Load configuration
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Initialize logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting toll plaza API server", map[string]interface{}{
		"version": "1.0.0",
	})

	// =========================================================================
	// Connect to PostgreSQL
	// =========================================================================

	ctx := context.Background()
	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Connect to Redis
	// =========================================================================

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis is not available, leaderboard caching disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer redisClient.Close()
		log.Info("Connected to Redis", map[string]interface{}{
			"address": cfg.Redis.Address(),
		})
	}

	// =========================================================================
	// Create repositories
	// =========================================================================

	vehicleRepo := postgres.NewVehicleRepository(db)
	passRepo := postgres.NewPassRepository(db)
	txnRepo := postgres.NewTransactionRepository(db)

	var tollRepo repository.TollRepository = postgres.NewTollRepository(db)
	if redisClient != nil {
		tollRepo = cached.NewTollRepository(tollRepo, redisClient)
	}

	log.Info("Repositories initialized")

	// =========================================================================
	// Seed dev data
	// =========================================================================

	if cfg.Seed.Enabled {
		if err := seedTestData(ctx, tollRepo, vehicleRepo, log); err != nil {
			log.Fatal("Failed to seed test data", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// =========================================================================
	// Create use case services
	// =========================================================================

	ids := id.NewUUIDGenerator()
	clk := clock.NewSystem()

	// One keyed lock for purchases and passages: both flows serialize on
	// the same (vehicle, toll) key.
	locks := lock.NewKeyed()

	pricingService := pricing.NewService()
	vehicleService := vehicle.NewService(vehicleRepo, log)
	passService := pass.NewService(passRepo, vehicleRepo, tollRepo, txnRepo, pricingService, ids, clk, locks, log)
	passageService := passage.NewService(passRepo, vehicleRepo, tollRepo, txnRepo, pricingService, ids, clk, locks, cfg.Passage.SaveRetries, log)
	leaderboardService := leaderboard.NewService(tollRepo, log)
	txnService := transaction.NewService(txnRepo)

	log.Info("Use case services initialized")

	// =========================================================================
	// Create HTTP handlers
	// =========================================================================

	vehicleHandler := deliveryHTTP.NewVehicleHandler(vehicleService, log)
	passHandler := deliveryHTTP.NewPassHandler(passService, log)
	passageHandler := deliveryHTTP.NewPassageHandler(passageService, log)
	leaderboardHandler := deliveryHTTP.NewLeaderboardHandler(leaderboardService, log)
	txnHandler := deliveryHTTP.NewTransactionHandler(txnService, log)

	log.Info("HTTP handlers initialized")

	// =========================================================================
	// Create and set up HTTP router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		vehicleHandler,
		passHandler,
		passageHandler,
		leaderboardHandler,
		txnHandler,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Create HTTP server
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Run server in a goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}

// seedTestData creates two tolls and a few vehicles for local development.
// Runs only when the toll table is empty so restarts stay idempotent.
func seedTestData(ctx context.Context, tollRepo repository.TollRepository, vehicleRepo repository.VehicleRepository, log logger.Logger) error {
	count, err := tollRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count tolls: %w", err)
	}
	if count > 0 {
		log.Info("Seed skipped, tolls already present", map[string]interface{}{
			"tolls": count,
		})
		return nil
	}

	tolls := []*domain.Toll{
		{
			ID:       "T1",
			Name:     "Mumbai-Pune Expressway Toll",
			Location: "Khalapur",
			Booths: []*domain.TollBooth{
				{ID: "T1-B1", TollID: "T1", Name: "Booth 1"},
				{ID: "T1-B2", TollID: "T1", Name: "Booth 2"},
				{ID: "T1-B3", TollID: "T1", Name: "Booth 3"},
			},
		},
		{
			ID:       "T2",
			Name:     "Bangalore Electronic City Toll",
			Location: "Hosur Road",
			Booths: []*domain.TollBooth{
				{ID: "T2-B1", TollID: "T2", Name: "Booth 1"},
				{ID: "T2-B2", TollID: "T2", Name: "Booth 2"},
			},
		},
	}
	for _, toll := range tolls {
		if err := tollRepo.Create(ctx, toll); err != nil {
			return fmt.Errorf("failed to seed toll %s: %w", toll.ID, err)
		}
	}

	vehicles := []*domain.Vehicle{
		{RegistrationNumber: "MH12AB1234", VehicleType: domain.VehicleTypeFourWheeler},
		{RegistrationNumber: "MH14CD5678", VehicleType: domain.VehicleTypeTwoWheeler},
		{RegistrationNumber: "KA01EF9012", VehicleType: domain.VehicleTypeFourWheeler},
		{RegistrationNumber: "KA05GH3456", VehicleType: domain.VehicleTypeTwoWheeler},
	}
	for _, v := range vehicles {
		if err := vehicleRepo.Create(ctx, v); err != nil {
			return fmt.Errorf("failed to seed vehicle %s: %w", v.RegistrationNumber, err)
		}
	}

	log.Info("Seeded test data", map[string]interface{}{
		"tolls":    len(tolls),
		"vehicles": len(vehicles),
	})
	return nil
}
