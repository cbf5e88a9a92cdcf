package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/eyasluna999/wertigo/internal/api/auth"
	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/api/health"
	"github.com/eyasluna999/wertigo/internal/api/recommendation"
	"github.com/eyasluna999/wertigo/internal/api/session"
	"github.com/eyasluna999/wertigo/internal/api/trip"
)

// Config contains dependencies needed for the router setup
type Config struct {
	HealthHandler          *health.HandlerImpl
	AuthHandler            *auth.HandlerImpl
	SessionHandler         *session.HandlerImpl
	RecommendationHandler  *recommendation.HandlerImpl
	DestinationHandler     *destination.HandlerImpl
	TripHandler            *trip.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Get("/health", cfg.HealthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {

		// --- Public routes ---
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)

			r.Post("/sessions", cfg.SessionHandler.CreateSession)
			r.Get("/sessions/{id}", cfg.SessionHandler.GetSession)

			r.Post("/recommend", cfg.RecommendationHandler.Recommend)

			r.Get("/cities", cfg.DestinationHandler.GetCities)
			r.Get("/categories", cfg.DestinationHandler.GetCategories)
			r.Get("/dataset/info", cfg.DestinationHandler.GetDatasetInfo)
			r.Get("/destinations/{id}", cfg.DestinationHandler.GetDestination)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Post("/trips", cfg.TripHandler.CreateTrip)
			r.Get("/trips", cfg.TripHandler.ListTrips)
			r.Get("/trips/{id}", cfg.TripHandler.GetTrip)
			r.Delete("/trips/{id}", cfg.TripHandler.DeleteTrip)
		})
	})

	return r
}
