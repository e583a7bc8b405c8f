package payment

import (
	"net/http"

	"github.com/CampusTransit/CT-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes wires the payment endpoints. The return route is necessarily
// unauthenticated: the gateway redirect arrives without our cookie in some
// browsers, so the signed state token is what authenticates it.
func SetupRoutes(h *Handlers, opsAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/return", h.ReturnHandler)
	r.With(opsAuth).Get("/pending", h.PendingListHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(h.Manager))
		r.Post("/initiate", h.InitiateHandler)
		r.Post("/verify-manual", h.ManualVerifyHandler)
		mountDemoRoutes(r, h)
	})

	return r
}
