package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/handlers/userctx"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/service/subscription"
)

type subscriptionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Status        string          `json:"status"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	JobPostLimit  int             `json:"jobPostLimit"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentID     string          `json:"paymentId"`
	Amount        decimal.Decimal `json:"amount"`
}

func newSubscriptionResponse(s models.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:            s.ID,
		Status:        s.Status,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		JobPostLimit:  s.JobPostLimit,
		PaymentStatus: s.PaymentStatus,
		PaymentID:     s.PaymentID,
		Amount:        s.Amount,
	}
}

func handleCreateSubscription(ss subscriptionService, l logger.Logger) http.Handler {
	type request struct {
		PaymentID string          `json:"paymentId" validate:"required,notblank"`
		Amount    decimal.Decimal `json:"amount"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		sub, err := ss.Create(r.Context(), user, subscription.PurchaseParams{PaymentID: data.PaymentID, Amount: data.Amount})
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSONStatus(w, newSubscriptionResponse(sub), http.StatusCreated)
	})
}

func handleGetSubscription(ss subscriptionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		sub, err := ss.Get(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newSubscriptionResponse(sub))
	})
}

func handleCancelSubscription(ss subscriptionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		sub, err := ss.Cancel(r.Context(), user)
		if err != nil {
			renderError(w, l, err)
			return
		}

		render.JSON(w, newSubscriptionResponse(sub))
	})
}
