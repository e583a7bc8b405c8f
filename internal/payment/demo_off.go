//go:build !demo

package payment

import "github.com/go-chi/chi/v5"

func mountDemoRoutes(chi.Router, *Handlers) {}
