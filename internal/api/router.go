package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smartbiz.ai/advisor/internal/metrics"
)

func NewRouter(apiHandler *APIHandler, chatLimiter *ClientRateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(MetricsMiddleware)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", apiHandler.HealthHandler)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Get("/quick-questions", apiHandler.QuickQuestionsHandler)
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/analyze-business", apiHandler.AnalyzeBusinessHandler)
		r.With(chatLimiter.Middleware).Post("/chat", apiHandler.ChatProxyHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Post("/logout", apiHandler.LogoutHandler)
			r.Get("/profile", apiHandler.ProfileHandler)
			r.Patch("/profile", apiHandler.UpdateProfileHandler)
			r.Get("/session", apiHandler.GetSessionHandler)
			r.Post("/session/messages", apiHandler.PostMessageHandler)
			r.Get("/session/speech", apiHandler.SpeechHandler)
		})
	})

	return r
}
