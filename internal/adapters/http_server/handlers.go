package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewpilot/internal/app"
	"reviewpilot/internal/auth"
	"reviewpilot/internal/domain"
)

type Handlers struct {
	Auth     *app.AuthService
	Business *app.BusinessService
	Reviews  *app.ReviewService
	Analysis *app.AnalysisService
	Billing  *app.BillingService
	Tokens   *auth.Manager
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/auth/google", h.googleAuthURL)
	s.mux.Post("/auth/google/callback", h.googleCallback)
	s.mux.Post("/auth/refresh", h.refreshToken)

	s.mux.Post("/webhooks/stripe", h.stripeWebhook)

	s.mux.Group(func(r chi.Router) {
		r.Use(Auth(h.Tokens))
		r.Get("/business/accounts", h.listAccounts)
		r.Post("/business/accounts/{id}/sync-reviews", h.syncReviews)
		r.Get("/reviews", h.listReviews)
		r.Post("/reviews/{id}/analyze", h.analyzeReview)
		r.Post("/reviews/{id}/respond", h.respondToReview)
		r.Get("/subscriptions/status", h.subscriptionStatus)
		r.Post("/subscriptions/create-checkout", h.createCheckout)
		r.Post("/subscriptions/create-portal", h.createPortal)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps domain errors onto problem responses; anything unexpected
// is a logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.Is(err, domain.ErrNotConnected):
		writeProblem(w, http.StatusBadRequest, "Not Connected", "google account not connected")
	case errors.Is(err, domain.ErrNoSubscription):
		writeProblem(w, http.StatusBadRequest, "No Subscription", "no subscription found")
	case errors.Is(err, domain.ErrNoEmail):
		writeProblem(w, http.StatusBadRequest, "Missing Email", "email not provided by google")
	case errors.Is(err, domain.ErrInvalidToken):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
	case errors.Is(err, domain.ErrSignatureInvalid):
		writeProblem(w, http.StatusBadRequest, "Invalid Signature", "webhook signature verification failed")
	case errors.Is(err, domain.ErrAnalysisFailed):
		log.Error().Str("route", r.URL.Path).Err(err).Msg("analysis failed")
		writeProblem(w, http.StatusInternalServerError, "Analysis Failed", "could not analyze review")
	default:
		log.Error().Str("route", r.URL.Path).Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "request failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return false
	}
	return true
}
