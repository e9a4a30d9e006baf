// Package salestracker собирает HTTP-приложение: хранилище, кеш, события, сервисы и маршруты.
package salestracker

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/profileupdate"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/health"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/analytics"
	salecreate "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/create"
	salelist "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/list"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/read"
	saleremove "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/remove"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/update"
	usercreate "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/users/create"
	userlist "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/users/list"
	userremove "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/users/remove"
	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	authservice "github.com/magabrotheeeer/sales-tracker/internal/services/auth"
	saleservice "github.com/magabrotheeeer/sales-tracker/internal/services/sale"
	userservice "github.com/magabrotheeeer/sales-tracker/internal/services/user"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth  *authservice.AuthService
	Users *userservice.UserService
	Sales *saleservice.SaleService
	DB    health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, m *metrics.Metrics, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		m.Middleware,
	)

	jwtAuth := middlewarectx.JWTMiddleware(s.Auth, logger)
	adminOnly := middlewarectx.AdminOnly(logger)

	r.Get("/health", health.New(logger, s.DB).ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

		r.Route("/auth", func(r chi.Router) {
			// Открытые конечные точки
			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth)
				r.Post("/logout", logout.New(logger).ServeHTTP)
				r.Get("/profile", profile.New(logger, s.Auth).ServeHTTP)
				r.Put("/profile", profileupdate.New(logger, s.Auth).ServeHTTP)
				r.With(adminOnly).Get("/users", userlist.New(logger, s.Users).ServeHTTP)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(jwtAuth, adminOnly)
			r.Get("/", userlist.New(logger, s.Users).ServeHTTP)
			r.Post("/", usercreate.New(logger, s.Users).ServeHTTP)
			r.Delete("/{id}", userremove.New(logger, s.Users).ServeHTTP)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Use(jwtAuth)
			r.Post("/", salecreate.New(logger, s.Sales).ServeHTTP)
			r.Get("/", salelist.New(logger, s.Sales).ServeHTTP)
			r.With(adminOnly).Get("/analytics", analytics.New(logger, s.Sales).ServeHTTP)
			r.Get("/{id}", read.New(logger, s.Sales).ServeHTTP)
			r.Put("/{id}", update.New(logger, s.Sales).ServeHTTP)
			r.With(adminOnly).Delete("/{id}", saleremove.New(logger, s.Sales).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
