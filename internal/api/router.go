/**
 * @description
 * This file sets up the HTTP router for the transfer-service. It defines the
 * API endpoints, associates them with their handlers, and applies middleware
 * for logging, panic recovery, timeouts, and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes creates and returns the router for the transfer service.
func Routes(h *Handlers, authTokenSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(ServiceAuthMiddleware(authTokenSecret))

		r.Post("/accounts", h.OpenAccountHandler)
		r.Get("/accounts/{accountID}", h.GetAccountHandler)
		r.Post("/accounts/{accountID}/deposit", h.DepositHandler)
		r.Post("/accounts/{accountID}/withdraw", h.WithdrawHandler)

		r.Post("/transfers", h.RequestTransferHandler)
		r.Get("/transfers/{transferID}", h.GetTransferHandler)
	})

	return r
}
