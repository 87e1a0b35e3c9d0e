package httpserver

import (
	"net/http"

	"reviewpilot/internal/domain"
)

type userView struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func viewUser(u domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (h *Handlers) googleAuthURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"authUrl": h.Auth.LoginURL()})
}

func (h *Handlers) googleCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Code", "authorization code required")
		return
	}

	token, user, err := h.Auth.HandleCallback(r.Context(), req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: viewUser(user)})
}

func (h *Handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Token", "token required")
		return
	}

	token, user, err := h.Auth.Refresh(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: viewUser(user)})
}
