package httpserver

import (
	"errors"
	"io"
	"net/http"

	"reviewpilot/internal/adapters/observability"
	"reviewpilot/internal/domain"
)

// Stripe caps event payloads well below this; anything larger is garbage.
const maxWebhookBody = int64(64 << 10)

// stripeWebhook verifies the signature over the exact raw body before any
// state is touched. A verification failure is the provider's problem (400);
// a processing failure after verification is ours (500) and the provider
// redelivers the event.
func (h *Handlers) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		observability.ObserveWebhook("unknown", "error")
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "could not read payload")
		return
	}

	err = h.Billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, domain.ErrSignatureInvalid) {
			observability.ObserveWebhook("unknown", "rejected")
		} else {
			observability.ObserveWebhook("unknown", "error")
		}
		writeError(w, r, err)
		return
	}

	observability.ObserveWebhook("stripe", "ok")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
