package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"reviewpilot/internal/domain"
)

type reviewView struct {
	ID                string     `json:"id"`
	AccountID         string     `json:"accountId"`
	Author            *string    `json:"author"`
	Rating            int        `json:"rating"`
	Text              *string    `json:"text"`
	ReviewDate        time.Time  `json:"reviewDate"`
	Sentiment         *string    `json:"sentiment"`
	KeyTopics         []string   `json:"keyTopics"`
	UrgencyScore      *float64   `json:"urgencyScore"`
	SuggestedResponse *string    `json:"suggestedResponse"`
}

type paginationView struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func viewReviews(rs []domain.Review) []reviewView {
	out := make([]reviewView, 0, len(rs))
	for _, rv := range rs {
		out = append(out, reviewView{
			ID:                rv.ID,
			AccountID:         rv.AccountID,
			Author:            rv.Author,
			Rating:            rv.Rating,
			Text:              rv.Text,
			ReviewDate:        rv.ReviewDate,
			Sentiment:         rv.Sentiment,
			KeyTopics:         rv.KeyTopics,
			UrgencyScore:      rv.UrgencyScore,
			SuggestedResponse: rv.SuggestedResponse,
		})
	}
	return out
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	q := domain.ReviewsQuery{UserID: UserID(r)}
	if v := r.URL.Query().Get("accountId"); v != "" {
		q.AccountID = &v
	}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid Page", "page must be a positive integer")
			return
		}
		q.Page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeProblem(w, http.StatusBadRequest, "Invalid Limit", "limit must be a positive integer")
			return
		}
		q.Limit = n
	}

	page, err := h.Reviews.ListReviews(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reviews":    viewReviews(page.Items),
		"pagination": paginationView(page.Pagination),
	})
}

func (h *Handlers) analyzeReview(w http.ResponseWriter, r *http.Request) {
	a, err := h.Analysis.Analyze(r.Context(), chi.URLParam(r, "id"), UserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sentiment":         a.Sentiment,
		"keyTopics":         a.KeyTopics,
		"urgencyScore":      a.UrgencyScore,
		"suggestedResponse": a.SuggestedResponse,
	})
}

func (h *Handlers) respondToReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResponseText string `json:"responseText"`
		IsPublished  bool   `json:"isPublished"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ResponseText == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Text", "responseText is required")
		return
	}

	rr, err := h.Reviews.Respond(r.Context(), chi.URLParam(r, "id"), UserID(r), req.ResponseText, req.IsPublished)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           rr.ID,
		"reviewId":     rr.ReviewID,
		"userId":       rr.UserID,
		"responseText": rr.ResponseText,
		"isPublished":  rr.IsPublished,
		"publishedAt":  rr.PublishedAt,
		"createdAt":    rr.CreatedAt,
	})
}
