package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/zheli/invoice-bun/internal/auth"
	"github.com/zheli/invoice-bun/internal/config"
	"github.com/zheli/invoice-bun/internal/httputil"
	"github.com/zheli/invoice-bun/internal/invoice"
	"github.com/zheli/invoice-bun/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	invoiceHandler *invoice.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/access-token", authHandler.AccessToken)
		r.Get("/google/login", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
	})

	// Registration is public; the rest of /users requires authentication
	r.Route("/users", func(r chi.Router) {
		r.Post("/", authHandler.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireUser)
			r.Get("/me", authHandler.Me)
		})
	})

	// Invoice routes (require authentication)
	r.Route("/invoices", func(r chi.Router) {
		r.Use(authMiddleware.RequireUser)

		r.Get("/", invoiceHandler.List)
		r.Post("/", invoiceHandler.Create)
		r.Get("/{invoiceID}", invoiceHandler.Get)
		r.Put("/{invoiceID}", invoiceHandler.Update)
		r.Delete("/{invoiceID}", invoiceHandler.Delete)
		r.Get("/{invoiceID}/pdf", invoiceHandler.RenderPDF)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
