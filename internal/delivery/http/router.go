package http

import (
	"net/http"

	"github.com/frontandrew/tollplaza/internal/delivery/http/middleware"
	"github.com/frontandrew/tollplaza/internal/pkg/config"
	"github.com/frontandrew/tollplaza/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds every dependency of the HTTP router.
type Router struct {
	vehicleHandler     *VehicleHandler
	passHandler        *PassHandler
	passageHandler     *PassageHandler
	leaderboardHandler *LeaderboardHandler
	txnHandler         *TransactionHandler
	config             *config.Config
	logger             logger.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(
	vehicleHandler *VehicleHandler,
	passHandler *PassHandler,
	passageHandler *PassageHandler,
	leaderboardHandler *LeaderboardHandler,
	txnHandler *TransactionHandler,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		vehicleHandler:     vehicleHandler,
		passHandler:        passHandler,
		passageHandler:     passageHandler,
		leaderboardHandler: leaderboardHandler,
		txnHandler:         txnHandler,
		config:             config,
		logger:             logger,
	}
}

// Setup wires up all routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Vehicle endpoints
		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", rt.vehicleHandler.Register)
			r.Get("/", rt.vehicleHandler.List)
			r.Get("/{reg}", rt.vehicleHandler.GetByRegistration)
			r.Get("/{reg}/passes", rt.passHandler.GetByVehicle)
		})

		// Pass endpoints
		r.Route("/passes", func(r chi.Router) {
			r.Get("/options", rt.passHandler.Options)
			r.Post("/", rt.passHandler.Purchase)
			r.Get("/{id}", rt.passHandler.GetByID)
		})

		// Passage evaluation endpoint (used by booth equipment)
		r.Post("/passages", rt.passageHandler.Evaluate)

		// Leaderboard endpoint
		r.Get("/leaderboard", rt.leaderboardHandler.Get)

		// Audit trail endpoint
		r.Get("/transactions", rt.txnHandler.List)
	})

	return r
}
