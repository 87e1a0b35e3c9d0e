package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"reviewpilot/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- users ----

func (r *Repo) UpsertUserByEmail(ctx context.Context, u domain.UserUpsert) (domain.User, error) {
	// Fresh id is only used on the insert path; an existing row keeps its id.
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		uuid.New().String(),
		u.Email,
		valStr(u.Name),
		valStr(u.RefreshToken),
	)
	if err != nil {
		return domain.User{}, err
	}
	return r.getUser(ctx, getUserByEmailSQL, u.Email)
}

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	return r.getUser(ctx, getUserSQL, id)
}

func (r *Repo) getUser(ctx context.Context, query, arg string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func scanUser(scan func(...any) error) (domain.User, error) {
	var u domain.User
	var name, refresh, customer, plan sql.NullString
	var endsAt sql.NullTime
	if err := scan(
		&u.ID, &u.Email, &name, &refresh, &customer,
		&u.SubscriptionStatus, &plan, &endsAt,
	); err != nil {
		return domain.User{}, err
	}
	u.Name = strPtr(name)
	u.GoogleRefreshToken = strPtr(refresh)
	u.StripeCustomerID = strPtr(customer)
	u.SubscriptionPlan = strPtr(plan)
	u.SubscriptionEndsAt = timePtr(endsAt)
	return u, nil
}

func (r *Repo) ListConnectedUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, listConnectedUsersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	_, err := r.db.ExecContext(ctx, setStripeCustomerSQL, customerID, userID)
	return err
}

func (r *Repo) SetSubscriptionPlan(ctx context.Context, userID, status, plan string) error {
	_, err := r.db.ExecContext(ctx, setSubscriptionPlanSQL, status, plan, userID)
	return err
}

func (r *Repo) SetSubscriptionStatus(ctx context.Context, userID, status string) error {
	_, err := r.db.ExecContext(ctx, setSubscriptionStatusSQL, status, userID)
	return err
}

func (r *Repo) SetSubscriptionState(ctx context.Context, userID, status string, endsAt *time.Time) error {
	_, err := r.db.ExecContext(ctx, setSubscriptionStateSQL, status, valTime(endsAt), userID)
	return err
}

// ---- business accounts ----

func (r *Repo) UpsertAccount(ctx context.Context, a domain.BusinessAccount) error {
	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, upsertAccountSQL, id, a.GoogleID, a.Name, a.UserID)
	return err
}

func (r *Repo) ListAccounts(ctx context.Context, userID string) ([]domain.BusinessAccount, error) {
	rows, err := r.db.QueryContext(ctx, listAccountsSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BusinessAccount
	for rows.Next() {
		var a domain.BusinessAccount
		if err := rows.Scan(&a.ID, &a.GoogleID, &a.Name, &a.UserID, &a.ReviewCount); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) GetAccount(ctx context.Context, id, userID string) (domain.BusinessAccount, error) {
	var a domain.BusinessAccount
	err := r.db.QueryRowContext(ctx, getAccountSQL, id, userID).
		Scan(&a.ID, &a.GoogleID, &a.Name, &a.UserID)
	if err == sql.ErrNoRows {
		return domain.BusinessAccount{}, domain.ErrNotFound
	}
	return a, err
}

// ---- reviews ----

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*7)
	for _, rv := range rs {
		id := rv.ID
		if id == "" {
			id = uuid.New().String()
		}
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args,
			id,
			rv.AccountID,
			valStr(rv.GoogleID),
			valStr(rv.Author),
			rv.Rating,
			valStr(rv.Text),
			rv.ReviewDate,
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanReview(scan func(...any) error) (domain.Review, error) {
	var rv domain.Review
	var googleID, author, text, sentiment, suggested sql.NullString
	var topicsRaw []byte
	var urgency sql.NullFloat64
	if err := scan(
		&rv.ID, &rv.AccountID, &googleID, &author, &rv.Rating, &text, &rv.ReviewDate,
		&sentiment, &topicsRaw, &urgency, &suggested,
	); err != nil {
		return domain.Review{}, err
	}
	rv.GoogleID = strPtr(googleID)
	rv.Author = strPtr(author)
	rv.Text = strPtr(text)
	rv.Sentiment = strPtr(sentiment)
	rv.SuggestedResponse = strPtr(suggested)
	if urgency.Valid {
		f := urgency.Float64
		rv.UrgencyScore = &f
	}
	if len(topicsRaw) > 0 {
		_ = json.Unmarshal(topicsRaw, &rv.KeyTopics)
	}
	return rv, nil
}

func (r *Repo) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, int, error) {
	accountID := ""
	if q.AccountID != nil {
		accountID = *q.AccountID
	}
	offset := (q.Page - 1) * q.Limit

	var total int
	if err := r.db.QueryRowContext(ctx, countReviewsSQL,
		q.UserID, accountID, accountID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listReviewsSQL,
		q.UserID, accountID, accountID, q.Limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

func (r *Repo) GetReview(ctx context.Context, id, userID string) (domain.Review, error) {
	row := r.db.QueryRowContext(ctx, getReviewSQL, id, userID)
	rv, err := scanReview(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Review{}, domain.ErrNotFound
	}
	return rv, err
}

func (r *Repo) SetReviewAnalysis(ctx context.Context, reviewID string, a domain.Analysis) error {
	topics, _ := json.Marshal(a.KeyTopics)
	_, err := r.db.ExecContext(ctx, setReviewAnalysisSQL,
		a.Sentiment, string(topics), a.UrgencyScore, a.SuggestedResponse, reviewID,
	)
	return err
}

func (r *Repo) CreateResponse(ctx context.Context, rr domain.ReviewResponse) error {
	_, err := r.db.ExecContext(ctx, insertResponseSQL,
		rr.ID, rr.ReviewID, rr.UserID, rr.ResponseText, rr.IsPublished, valTime(rr.PublishedAt),
	)
	return err
}
