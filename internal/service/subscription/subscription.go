package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/authz"
)

const (
	defaultPeriod       = 30 * 24 * time.Hour
	defaultJobPostLimit = 50
)

type Config struct {
	// How long purchased subscription lasts. 30 days if not set
	Period time.Duration

	// Job post limit granted by subscription. 50 if not set
	JobPostLimit int

	// time.Now if not set
	Now func() time.Time
}

type PurchaseParams struct {
	PaymentID string
	Amount    decimal.Decimal
}

type SubscriptionService struct {
	period  time.Duration
	limit   int
	now     func() time.Time
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *SubscriptionService {
	if cfg.Period == 0 {
		cfg.Period = defaultPeriod
	}
	if cfg.JobPostLimit == 0 {
		cfg.JobPostLimit = defaultJobPostLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &SubscriptionService{
		period:  cfg.Period,
		limit:   cfg.JobPostLimit,
		now:     cfg.Now,
		storage: storage,
	}
}

// Purchase subscription for the company. Payment is trusted as completed
func (s *SubscriptionService) Create(ctx context.Context, user models.User, params PurchaseParams) (models.Subscription, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Subscription{}, err
	}
	if strings.TrimSpace(params.PaymentID) == "" {
		return models.Subscription{}, fmt.Errorf("payment id is required: %w", apperrors.ErrInvalidArgument)
	}
	if params.Amount.IsNegative() {
		return models.Subscription{}, fmt.Errorf("amount must not be negative: %w", apperrors.ErrInvalidArgument)
	}

	now := s.now()

	current, err := s.storage.Subscription().GetSubscription(ctx, user.ID)
	switch {
	case errors.Is(err, apperrors.ErrSubscriptionNotFound):
	case err != nil:
		return models.Subscription{}, err
	case current.Usable(now):
		return models.Subscription{}, apperrors.ErrSubscriptionActive
	}

	return s.storage.Subscription().UpsertSubscription(ctx, models.Subscription{
		UserID:        user.ID,
		Status:        models.SubscriptionActive,
		StartDate:     now,
		EndDate:       now.Add(s.period),
		JobPostLimit:  s.limit,
		PaymentStatus: models.PaymentCompleted,
		PaymentID:     params.PaymentID,
		Amount:        params.Amount,
	})
}

func (s *SubscriptionService) Get(ctx context.Context, user models.User) (models.Subscription, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Subscription{}, err
	}
	return s.storage.Subscription().GetSubscription(ctx, user.ID)
}

// Cancel active subscription, limit falls back to default
func (s *SubscriptionService) Cancel(ctx context.Context, user models.User) (models.Subscription, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Subscription{}, err
	}

	sub, err := s.storage.Subscription().GetSubscription(ctx, user.ID)
	if err != nil {
		return models.Subscription{}, err
	}
	if sub.Status != models.SubscriptionActive {
		return models.Subscription{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidArgument, apperrors.ErrSubscriptionInactive)
	}

	sub.Status = models.SubscriptionInactive
	sub.JobPostLimit = models.DefaultJobPostLimit

	return s.storage.Subscription().UpsertSubscription(ctx, sub)
}
