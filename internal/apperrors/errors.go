package apperrors

import (
	"errors"
)

// Error kinds. Handlers map them to HTTP status codes
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrQuotaExceeded    = errors.New("job post limit reached")
	ErrNotificationSend = errors.New("notification could not be sent")
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already in use by another user")
	ErrPasswordMismatch  = errors.New("password is incorrect")

	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenNotYetValid = errors.New("token not active yet")
	ErrTokenInvalid     = errors.New("token is invalid")
	ErrRefreshRevoked   = errors.New("refresh token is revoked")

	ErrOTPInvalidOrExpired = errors.New("invalid or expired otp")

	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrProfileNotFound      = errors.New("profile not found")

	ErrSubscriptionActive   = errors.New("subscription is active already")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionInactive = errors.New("no active subscription")

	ErrJobNotFound = errors.New("job not found")

	ErrApplicationExists   = errors.New("already applied to this job")
	ErrApplicationNotFound = errors.New("application not found")
	ErrStatusInvalid       = errors.New("invalid application status")
)
