package httpserver

import (
	"net/http"
)

func (h *Handlers) subscriptionStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.Billing.Status(r.Context(), UserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handlers) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID string `json:"priceId"`
		Plan    string `json:"plan"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PriceID == "" || req.Plan == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Fields", "priceId and plan are required")
		return
	}

	url, err := h.Billing.CreateCheckout(r.Context(), UserID(r), req.PriceID, req.Plan)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"checkoutUrl": url})
}

func (h *Handlers) createPortal(w http.ResponseWriter, r *http.Request) {
	url, err := h.Billing.CreatePortal(r.Context(), UserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"portalUrl": url})
}
