package session

import (
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the auth endpoints. The login limiter is injected so
// main can tune it from config and tests can drop it.
func SetupRoutes(h *Handlers, loginLimiter func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	if loginLimiter != nil {
		r.With(loginLimiter).Post("/login", h.LoginHandler)
	} else {
		r.Post("/login", h.LoginHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(h.Manager))
		r.Post("/logout", h.LogoutHandler)
		r.Get("/me", h.MeHandler)
		r.Put("/me", h.UpdateUserHandler)
		r.Post("/update-password", h.UpdatePasswordHandler)
		r.Post("/verify-email", h.RequestVerifyEmailHandler)
	})

	return r
}
