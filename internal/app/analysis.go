package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"reviewpilot/internal/domain"
)

type AnalysisService struct {
	store  domain.Store
	oracle domain.Oracle
	cache  domain.Cache
}

func NewAnalysisService(store domain.Store, oracle domain.Oracle, cache domain.Cache) *AnalysisService {
	return &AnalysisService{store: store, oracle: oracle, cache: cache}
}

// Analyze returns the review's structured analysis, producing it on first
// call. An already-analyzed review is returned as stored without touching
// the oracle. On any oracle or parse failure nothing is written; the caller
// re-invokes the operation.
func (s *AnalysisService) Analyze(ctx context.Context, reviewID, userID string) (domain.Analysis, error) {
	rv, err := s.store.GetReview(ctx, reviewID, userID)
	if err != nil {
		return domain.Analysis{}, err
	}

	if rv.Analyzed() {
		a := domain.Analysis{
			Sentiment:         *rv.Sentiment,
			KeyTopics:         rv.KeyTopics,
			SuggestedResponse: *rv.SuggestedResponse,
		}
		if rv.UrgencyScore != nil {
			a.UrgencyScore = *rv.UrgencyScore
		}
		return a, nil
	}

	text, err := s.oracle.Generate(ctx, buildPrompt(rv))
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("oracle: %w", err)
	}

	a, err := parseAnalysis(text)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}

	// All four fields land in one statement; the row never ends up partial.
	if err := s.store.SetReviewAnalysis(ctx, rv.ID, a); err != nil {
		return domain.Analysis{}, err
	}
	invalidateReviewPages(ctx, s.cache, userID, rv.AccountID)
	return a, nil
}

func buildPrompt(rv domain.Review) string {
	author := "Anonymous"
	if rv.Author != nil && *rv.Author != "" {
		author = *rv.Author
	}
	body := ""
	if rv.Text != nil {
		body = *rv.Text
	}
	return fmt.Sprintf(`Analyze this restaurant review and provide:
1. Sentiment (positive, negative, neutral)
2. Key topics (as array of strings)
3. Urgency score (0-1, where 1 is most urgent to respond)
4. A professional, empathetic response suggestion

Review: %q
Rating: %d/5 stars
Reviewer: %s

Respond in JSON format:
{
  "sentiment": "positive|negative|neutral",
  "keyTopics": ["topic1", "topic2"],
  "urgencyScore": 0.0-1.0,
  "suggestedResponse": "Professional response text"
}`, body, rv.Rating, author)
}

// parseAnalysis decodes the oracle's reply strictly: all four fields must be
// present and in range, otherwise the whole result is rejected.
func parseAnalysis(text string) (domain.Analysis, error) {
	var raw struct {
		Sentiment         *string  `json:"sentiment"`
		KeyTopics         []string `json:"keyTopics"`
		UrgencyScore      *float64 `json:"urgencyScore"`
		SuggestedResponse *string  `json:"suggestedResponse"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return domain.Analysis{}, err
	}
	if raw.Sentiment == nil || raw.KeyTopics == nil || raw.UrgencyScore == nil || raw.SuggestedResponse == nil {
		return domain.Analysis{}, fmt.Errorf("incomplete analysis object")
	}
	switch *raw.Sentiment {
	case "positive", "negative", "neutral":
	default:
		return domain.Analysis{}, fmt.Errorf("unknown sentiment %q", *raw.Sentiment)
	}
	if *raw.UrgencyScore < 0 || *raw.UrgencyScore > 1 {
		return domain.Analysis{}, fmt.Errorf("urgency score %v out of range", *raw.UrgencyScore)
	}
	return domain.Analysis{
		Sentiment:         *raw.Sentiment,
		KeyTopics:         raw.KeyTopics,
		UrgencyScore:      *raw.UrgencyScore,
		SuggestedResponse: *raw.SuggestedResponse,
	}, nil
}

// stripFences unwraps a ```json ... ``` block when the model adds one.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
