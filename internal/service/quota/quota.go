// Package quota computes how many jobs a company may have posted
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

type Engine struct {
	storage repository.Storage
	now     func() time.Time
}

// now may be nil, time.Now is used then
func New(storage repository.Storage, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{storage: storage, now: now}
}

// In returns engine reading through the given storage, usually a transaction
func (e *Engine) In(storage repository.Storage) *Engine {
	return &Engine{storage: storage, now: e.now}
}

// Allowance is the subscription limit while subscription is active and not ended,
// models.DefaultJobPostLimit otherwise
func (e *Engine) Allowance(ctx context.Context, companyID uuid.UUID) (int, error) {
	sub, err := e.storage.Subscription().GetSubscription(ctx, companyID)
	switch {
	case errors.Is(err, apperrors.ErrSubscriptionNotFound):
		return models.DefaultJobPostLimit, nil
	case err != nil:
		return 0, err
	}

	if !sub.Usable(e.now()) {
		return models.DefaultJobPostLimit, nil
	}

	return sub.JobPostLimit, nil
}

// CanPost reports whether the company is below its allowance
// Posted jobs never expire out of the count
func (e *Engine) CanPost(ctx context.Context, companyID uuid.UUID) (bool, error) {
	allowance, err := e.Allowance(ctx, companyID)
	if err != nil {
		return false, err
	}

	count, err := e.storage.Job().CountJobs(ctx, companyID)
	if err != nil {
		return false, err
	}

	return count < allowance, nil
}
