package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
)

type SubscriptionRepo struct {
	DB DBTX
}

const subscriptionColumns = `id, user_id, status, start_date, end_date, job_post_limit, payment_status, payment_id, amount, created_at, updated_at`

// One subscription per user: a new purchase replaces the previous record
const upsertSubscription = `-- name: upsertSubscription
INSERT INTO subscriptions (id, user_id, status, start_date, end_date, job_post_limit, payment_status, payment_id, amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id) DO UPDATE
SET status = EXCLUDED.status,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    job_post_limit = EXCLUDED.job_post_limit,
    payment_status = EXCLUDED.payment_status,
    payment_id = EXCLUDED.payment_id,
    amount = EXCLUDED.amount,
    updated_at = now()
RETURNING ` + subscriptionColumns

func (r *SubscriptionRepo) UpsertSubscription(ctx context.Context, s models.Subscription) (models.Subscription, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, upsertSubscription,
		s.ID, s.UserID, s.Status, s.StartDate, s.EndDate, s.JobPostLimit, s.PaymentStatus, s.PaymentID, s.Amount)

	sub, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Subscription])
	if err != nil {
		return sub, fmt.Errorf("db error: %w", err)
	}

	return sub, nil
}

func (r *SubscriptionRepo) GetSubscription(ctx context.Context, userID uuid.UUID) (models.Subscription, error) {
	const getSubscription = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`

	rows, _ := r.DB.Query(ctx, getSubscription, userID)
	sub, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Subscription])

	switch {
	case err == nil:
		return sub, nil
	case errors.Is(err, pgx.ErrNoRows):
		return sub, apperrors.ErrSubscriptionNotFound
	default:
		return sub, fmt.Errorf("db error: %w", err)
	}
}

const expireSubscriptions = `-- name: expireSubscriptions
UPDATE subscriptions
SET status = 'expired', job_post_limit = $2, updated_at = now()
WHERE status = 'active' AND end_date <= $1
`

func (r *SubscriptionRepo) ExpireSubscriptions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, expireSubscriptions, before, models.DefaultJobPostLimit)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}
