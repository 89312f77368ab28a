package testprep

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/testprep/internal/config"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/health"
	promocreate "github.com/magabrotheeeer/testprep/internal/http/handlers/promo/create"
	promolist "github.com/magabrotheeeer/testprep/internal/http/handlers/promo/list"
	questioncheck "github.com/magabrotheeeer/testprep/internal/http/handlers/question/check"
	questioncreate "github.com/magabrotheeeer/testprep/internal/http/handlers/question/create"
	questionlist "github.com/magabrotheeeer/testprep/internal/http/handlers/question/list"
	questionread "github.com/magabrotheeeer/testprep/internal/http/handlers/question/read"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/subscription/buy"
	subcheck "github.com/magabrotheeeer/testprep/internal/http/handlers/subscription/check"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/subscription/history"
	"github.com/magabrotheeeer/testprep/internal/http/handlers/subscription/my"
	tariffcreate "github.com/magabrotheeeer/testprep/internal/http/handlers/tariff/create"
	tarifflist "github.com/magabrotheeeer/testprep/internal/http/handlers/tariff/list"
	tariffread "github.com/magabrotheeeer/testprep/internal/http/handlers/tariff/read"
	tariffremove "github.com/magabrotheeeer/testprep/internal/http/handlers/tariff/remove"
	tariffupdate "github.com/magabrotheeeer/testprep/internal/http/handlers/tariff/update"
	"github.com/magabrotheeeer/testprep/internal/http/middlewarectx"
	"github.com/magabrotheeeer/testprep/internal/metrics"
	"github.com/magabrotheeeer/testprep/internal/models"
	authservice "github.com/magabrotheeeer/testprep/internal/services/auth"
	examservice "github.com/magabrotheeeer/testprep/internal/services/exam"
	gradingservice "github.com/magabrotheeeer/testprep/internal/services/grading"
	promoservice "github.com/magabrotheeeer/testprep/internal/services/promo"
	subservice "github.com/magabrotheeeer/testprep/internal/services/subscription"
	tariffservice "github.com/magabrotheeeer/testprep/internal/services/tariff"
)

// Services набор сервисов, которые обслуживают маршруты.
type Services struct {
	Auth          *authservice.AuthService
	Grading       *gradingservice.Service
	Exams         *examservice.Service
	Tariffs       *tariffservice.Service
	Subscriptions *subservice.Service
	Promos        *promoservice.Service
	Dependencies  map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, limit config.RateLimit, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limit.RPS, limit.Burst))

		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))

			r.Post("/questions/check-answers", questioncheck.New(logger, s.Grading).ServeHTTP)
			r.Get("/questions", questionlist.New(logger, s.Exams).ServeHTTP)
			r.Get("/questions/{id}", questionread.New(logger, s.Exams).ServeHTTP)

			r.Get("/tariffs", tarifflist.New(logger, s.Tariffs).ServeHTTP)
			r.Get("/tariffs/{id}", tariffread.New(logger, s.Tariffs).ServeHTTP)

			r.Post("/subscriptions/buy", buy.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/my", my.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/check", subcheck.New(logger, s.Subscriptions).ServeHTTP)
			r.Get("/subscriptions/history", history.New(logger, s.Subscriptions).ServeHTTP)

			// Администрирование
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))

				r.Post("/questions", questioncreate.New(logger, s.Exams).ServeHTTP)
				r.Post("/tariffs", tariffcreate.New(logger, s.Tariffs).ServeHTTP)
				r.Put("/tariffs/{id}", tariffupdate.New(logger, s.Tariffs).ServeHTTP)
				r.Delete("/tariffs/{id}", tariffremove.New(logger, s.Tariffs).ServeHTTP)
				r.Post("/promos", promocreate.New(logger, s.Promos).ServeHTTP)
				r.Get("/promos", promolist.New(logger, s.Promos).ServeHTTP)
			})
		})
	})

	r.Get("/healthz", health.New(logger, s.Dependencies).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
