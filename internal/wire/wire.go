// internal/wire/wire.go
package wire

import (
	"license-server/internal/adaptor"
	"license-server/internal/data/repository"
	"license-server/internal/usecase"
	"license-server/pkg/middleware"
	"license-server/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
	Limiter *middleware.RateLimiter
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	infra usecase.Infra,
	queue adaptor.DeadLetterSource,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	// Initialize services dan handlers
	service := usecase.NewService(repo, infra, config, logger)
	handler := adaptor.NewHandler(service, queue, config, logger)
	limiter := middleware.NewRateLimiter(config.Rate.RPS, config.Rate.Burst, logger)

	// Setup router
	router := setupRouter(handler, infra, limiter, config, logger)

	return &App{
		Router:  router,
		Service: service,
		Limiter: limiter,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(
	handler *adaptor.Handler,
	infra usecase.Infra,
	limiter *middleware.RateLimiter,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	// tanpa proxy terpercaya, header forwarded bisa dipalsukan untuk lolos rate limit
	if config.App.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	if infra.Metrics != nil {
		r.Use(infra.Metrics.Instrument)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.AdminKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Apply routes
	wireAuth(r, handler.Auth, limiter)
	wireLicense(r, handler.License, limiter)
	wireAdmin(r, handler.Admin, config, logger)

	r.Get("/", handler.System.Info)
	r.Get("/health", handler.System.Health)
	if infra.Metrics != nil {
		r.Method("GET", "/metrics", infra.Metrics.Handler())
	}

	return r
}
