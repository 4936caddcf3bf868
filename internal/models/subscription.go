package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionExpired  = "expired"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Job post limit applied when company has no usable subscription
const DefaultJobPostLimit = 5

type Subscription struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Status        string
	StartDate     time.Time
	EndDate       time.Time
	JobPostLimit  int
	PaymentStatus string
	PaymentID     string
	Amount        decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Usable reports whether the subscription grants its own limit at the moment
func (s Subscription) Usable(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.After(now)
}
