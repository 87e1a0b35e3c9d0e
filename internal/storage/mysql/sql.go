package mysql

const insertUserSQL = `
INSERT INTO users
  (id, email, name, google_refresh_token, subscription_status)
VALUES
  (?, ?, ?, ?, 'none')
ON DUPLICATE KEY UPDATE
  name                 = COALESCE(VALUES(name), users.name),
  google_refresh_token = COALESCE(VALUES(google_refresh_token), users.google_refresh_token),
  updated_at           = CURRENT_TIMESTAMP
`

const userColumns = `
  id, email, name, google_refresh_token, stripe_customer_id,
  subscription_status, subscription_plan, subscription_ends_at
`

const getUserSQL = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

const getUserByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

const listConnectedUsersSQL = `
SELECT ` + userColumns + `
FROM users
WHERE google_refresh_token IS NOT NULL AND google_refresh_token <> ''
ORDER BY email
`

const setStripeCustomerSQL = `
UPDATE users SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

const setSubscriptionPlanSQL = `
UPDATE users
SET subscription_status = ?, subscription_plan = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const setSubscriptionStatusSQL = `
UPDATE users
SET subscription_status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const setSubscriptionStateSQL = `
UPDATE users
SET subscription_status = ?, subscription_ends_at = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const upsertAccountSQL = `
INSERT INTO business_accounts
  (id, google_id, name, user_id)
VALUES
  (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name       = VALUES(name),
  user_id    = VALUES(user_id),
  updated_at = CURRENT_TIMESTAMP
`

const listAccountsSQL = `
SELECT a.id, a.google_id, a.name, a.user_id, COUNT(r.id)
FROM business_accounts a
LEFT JOIN reviews r ON r.account_id = a.id
WHERE a.user_id = ?
GROUP BY a.id, a.google_id, a.name, a.user_id
ORDER BY a.name, a.id
`

const getAccountSQL = `
SELECT id, google_id, name, user_id
FROM business_accounts
WHERE id = ? AND user_id = ?
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (id, account_id, google_id, author, rating, `text`, review_date)\nVALUES "

// Provider fields only; analysis columns are owned by SetReviewAnalysis and
// must survive re-syncs untouched.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  author      = COALESCE(VALUES(author), reviews.author),\n" +
	"  rating      = VALUES(rating),\n" +
	"  `text`      = COALESCE(VALUES(`text`), reviews.`text`),\n" +
	"  review_date = VALUES(review_date),\n" +
	"  updated_at  = CURRENT_TIMESTAMP\n"

const reviewColumns = `
  r.id, r.account_id, r.google_id, r.author, r.rating, r.` + "`text`" + `, r.review_date,
  r.sentiment, r.key_topics, r.urgency_score, r.suggested_response
`

const getReviewSQL = `
SELECT ` + reviewColumns + `
FROM reviews r
JOIN business_accounts a ON a.id = r.account_id
WHERE r.id = ? AND a.user_id = ?
`

const listReviewsSQL = `
SELECT ` + reviewColumns + `
FROM reviews r
JOIN business_accounts a ON a.id = r.account_id
WHERE a.user_id = ? AND (? = '' OR r.account_id = ?)
ORDER BY r.review_date DESC, r.id DESC
LIMIT ? OFFSET ?
`

const countReviewsSQL = `
SELECT COUNT(*)
FROM reviews r
JOIN business_accounts a ON a.id = r.account_id
WHERE a.user_id = ? AND (? = '' OR r.account_id = ?)
`

// All four analysis columns in one statement; the row is never left partial.
const setReviewAnalysisSQL = `
UPDATE reviews
SET sentiment = ?, key_topics = ?, urgency_score = ?, suggested_response = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const insertResponseSQL = `
INSERT INTO review_responses
  (id, review_id, user_id, response_text, is_published, published_at)
VALUES
  (?, ?, ?, ?, ?, ?)
`
