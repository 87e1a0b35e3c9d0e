package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"reviewpilot/internal/domain"
)

/********** alias registries (single source of truth) **********/

var reviewAliases = map[string][]string{
	"source_id": {"reviewId", "name", "id"},
	"author":    {"reviewer.displayName", "reviewer.name", "author"},
	"text":      {"comment", "text", "review_text"},
	"date":      {"createTime", "updateTime", "reviewDate"},
}

// Business Profile sends star ratings as enum words.
var starRatings = map[string]int{
	"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5,
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := lookupStr(m, p); s != "" {
			return &s
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

/********** user info **********/

func mapUserInfo(m map[string]any) (email string, name *string) {
	email = lookupStr(m, "email")
	name = ptrStr(lookupStr(m, "name"))
	return email, name
}

/********** business accounts **********/

// mapAccount requires both the resource name (external id) and the display
// name; anything else is dropped.
func mapAccount(userID string, m map[string]any) (domain.BusinessAccount, bool) {
	googleID := lookupStr(m, "name")
	display := lookupStr(m, "accountName")
	if googleID == "" || display == "" {
		return domain.BusinessAccount{}, false
	}
	return domain.BusinessAccount{
		GoogleID: googleID,
		Name:     display,
		UserID:   userID,
	}, true
}

/********** reviews **********/

func mapReviews(accountID string, raw []map[string]any) []domain.Review {
	out := make([]domain.Review, 0, len(raw))
	for _, m := range raw {
		rv, ok := mapReview(accountID, m)
		if !ok {
			log.Debug().Str("account", accountID).Msg("skipping review without id or rating")
			continue
		}
		out = append(out, rv)
	}
	return out
}

func mapReview(accountID string, m map[string]any) (domain.Review, bool) {
	sourceID := firstNonEmptyAlias(m, reviewAliases, "source_id")
	rating := mapRating(m)
	if sourceID == nil || rating == 0 {
		return domain.Review{}, false
	}

	rv := domain.Review{
		AccountID: accountID,
		GoogleID:  sourceID,
		Author:    firstNonEmptyAlias(m, reviewAliases, "author"),
		Rating:    rating,
		Text:      firstNonEmptyAlias(m, reviewAliases, "text"),
	}

	rv.ReviewDate = time.Now().UTC() // unknown dates sort as newest
	if ds := firstNonEmptyAlias(m, reviewAliases, "date"); ds != nil {
		if t, err := time.Parse(time.RFC3339, *ds); err == nil {
			rv.ReviewDate = t.UTC()
		}
	}
	return rv, true
}

// mapRating accepts the enum form ("FIVE"), a number, or a numeric string.
// Returns 0 when nothing usable is present.
func mapRating(m map[string]any) int {
	if s := lookupStr(m, "starRating"); s != "" {
		if n, ok := starRatings[strings.ToUpper(s)]; ok {
			return n
		}
	}
	switch v := lookupAny(m, "rating").(type) {
	case float64:
		return clampRating(int(v))
	case int:
		return clampRating(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return clampRating(int(f))
		}
	}
	return 0
}

func clampRating(n int) int {
	if n < 1 || n > 5 {
		return 0
	}
	return n
}
