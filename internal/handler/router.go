package handler

import (
	"net/http"

	"kantin-be/internal/logger"
	custommw "kantin-be/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// SetupRouter builds the full route tree with the shared middleware
// chain. Auth runs globally so anonymous browsing still works; RequireAuth
// guards only the routes that need an identity.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(custommw.AuthMiddleware)
	r.Use(custommw.RateLimitMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/menu", func(r chi.Router) {
			r.Get("/", h.ListMenu)
			r.Get("/{id}", h.GetMenuItem)

			r.Group(func(r chi.Router) {
				r.Use(custommw.RequireAuth)
				r.Post("/", h.CreateMenuItem)
				r.Put("/{id}", h.UpdateMenuItem)
				r.Delete("/{id}", h.DeleteMenuItem)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(custommw.RequireAuth)

			r.Post("/", h.PlaceOrder)
			r.Get("/", h.ListOrders)
			r.Post("/manual", h.CreateManualOrder)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Delete("/", h.DeleteOrder)
				r.Post("/cancel", h.CancelOrder)
				r.Post("/confirm", h.ConfirmOrder)
				r.Post("/complete", h.CompleteOrder)
				r.Post("/payment-proof", h.SubmitPaymentProof)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(custommw.RequireAuth)
			r.Post("/admin/sweep", h.SweepExpired)
			r.Get("/reports/orders.csv", h.ExportOrdersCSV)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
