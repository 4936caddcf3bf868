package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/handlers/render"
	"github.com/nkiryanov/jobboard/internal/logger"
)

// Status code for the service error. Order matters: wrapped kinds win over the causes
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrUnauthenticated),
		errors.Is(err, apperrors.ErrOTPInvalidOrExpired):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrProfileNotFound),
		errors.Is(err, apperrors.ErrSubscriptionNotFound),
		errors.Is(err, apperrors.ErrJobNotFound),
		errors.Is(err, apperrors.ErrApplicationNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrUserAlreadyExists),
		errors.Is(err, apperrors.ErrEmailTaken),
		errors.Is(err, apperrors.ErrProfileAlreadyExists),
		errors.Is(err, apperrors.ErrSubscriptionActive),
		errors.Is(err, apperrors.ErrApplicationExists):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrNotificationSend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Render error returned by service. Unknown errors are logged and hidden from client
func renderError(w http.ResponseWriter, l logger.Logger, err error) {
	code := statusOf(err)

	switch code {
	case http.StatusInternalServerError:
		l.Error("Request failed", "error", err)
		render.ServiceError(w, "Internal server error", code)
	case http.StatusBadGateway:
		l.Warn("Notification failed", "error", err)
		render.ServiceError(w, apperrors.ErrNotificationSend.Error(), code)
	default:
		render.ServiceError(w, strings.ReplaceAll(err.Error(), "\n", ": "), code)
	}
}
