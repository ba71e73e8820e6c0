package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/middleware"
	"github.com/library/library-go/internal/service"
)

// RouterDeps holds everything the HTTP layer needs.
type RouterDeps struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Loans   *service.LoanService
	Metrics *metrics.Metrics

	// AuthLimiter throttles register and token requests. The caller owns it
	// and stops it on shutdown.
	AuthLimiter *middleware.RateLimiter
	CORSOrigins []string
}

// NewRouter builds the chi router with all API routes.
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := NewAuthHandler(deps.Auth)
	bookHandler := NewBookHandler(deps.Catalog)
	loanHandler := NewLoanHandler(deps.Loans)

	r := chi.NewRouter()
	// Recoverer sits inside Logger and Metrics so panics are logged and measured as 500s.
	r.Use(middleware.RequestID, middleware.Logger, middleware.Metrics(deps.Metrics), chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthLimiter.Handler)
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/token", authHandler.HandleToken)
		})

		r.Get("/books", bookHandler.HandleList)
		r.Get("/books/search", bookHandler.HandleSearch)
		r.Get("/books/{book_id}", bookHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Auth))

			r.Get("/auth/me", authHandler.HandleMe)

			r.Post("/books", bookHandler.HandleCreate)
			r.Put("/books/{book_id}", bookHandler.HandleUpdate)
			r.Delete("/books/{book_id}", bookHandler.HandleDelete)

			r.Get("/loans", loanHandler.HandleList)
			r.Post("/loans", loanHandler.HandleCreate)
			r.Get("/loans/active", loanHandler.HandleListActive)
			r.Get("/loans/history", loanHandler.HandleHistory)
			r.Post("/loans/{loan_id}/return", loanHandler.HandleReturn)
		})
	})

	return r
}
