package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"reviewpilot/internal/domain"
)

type accountView struct {
	ID          string `json:"id"`
	GoogleID    string `json:"googleId"`
	Name        string `json:"name"`
	ReviewCount int    `json:"reviewCount"`
}

func viewAccounts(as []domain.BusinessAccount) []accountView {
	out := make([]accountView, 0, len(as))
	for _, a := range as {
		out = append(out, accountView{ID: a.ID, GoogleID: a.GoogleID, Name: a.Name, ReviewCount: a.ReviewCount})
	}
	return out
}

func (h *Handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Business.ListAccounts(r.Context(), UserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": viewAccounts(accounts)})
}

func (h *Handlers) syncReviews(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if err := h.Business.SyncReviews(r.Context(), accountID, UserID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "reviews synced",
		"accountId": accountID,
	})
}
