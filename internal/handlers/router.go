package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nkiryanov/jobboard/internal/handlers/middleware"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/auth"
	"github.com/nkiryanov/jobboard/internal/service/subscription"
)

// Unauthenticated OTP endpoints: 5 requests burst, then one per 12 seconds per client
const (
	otpRateLimit = rate.Limit(1.0 / 12)
	otpRateBurst = 5
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	jobService jobService,
	applicationService applicationService,
	subscriptionService subscriptionService,
	profileService profileService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	// Role is checked before handler decodes the body
	withRole := func(role models.Role) func(http.Handler) http.Handler {
		return func(h http.Handler) http.Handler {
			return chain(h, withAuth, middleware.RequireRole(role))
		}
	}
	asJobseeker := withRole(models.RoleJobseeker)
	asCompany := withRole(models.RoleCompany)
	asAdmin := withRole(models.RoleAdmin)
	otpLimiter := middleware.NewRateLimiter(otpRateLimit, otpRateBurst)

	api := http.NewServeMux()

	api.Handle("POST /users/register", handleRegister(authService, logger))
	api.Handle("POST /users/login", handleLogin(authService, logger))
	api.Handle("POST /users/send-otp", otpLimiter.Middleware(handleSendOTP(authService, logger)))
	api.Handle("POST /users/login-otp", otpLimiter.Middleware(handleLoginOTP(authService, logger)))
	api.Handle("POST /users/refresh", handleTokenRefresh(authService, logger))
	api.Handle("POST /users/logout", withAuth(handleLogout(authService, logger)))
	api.Handle("GET /users/current-user", withAuth(handleCurrentUser()))
	api.Handle("GET /users/get-allUser", asAdmin(handleListUsers(authService, logger)))
	api.Handle("PATCH /users/update-auth-profile", withAuth(handleUpdateAuthProfile(authService, logger)))
	api.Handle("PUT /users/change-password", withAuth(handleChangePassword(authService, logger)))

	api.Handle("POST /applications/apply", asJobseeker(handleApply(applicationService, logger)))
	api.Handle("GET /applications/my-applications", asJobseeker(handleMyApplications(applicationService, logger)))
	api.Handle("GET /applications/company-applications", asCompany(handleCompanyApplications(applicationService, logger)))
	api.Handle("POST /applications/update-status", asCompany(handleUpdateApplicationStatus(applicationService, logger)))

	api.Handle("POST /subscription/create", asCompany(handleCreateSubscription(subscriptionService, logger)))
	api.Handle("GET /subscription/getAllSubscription", asCompany(handleGetSubscription(subscriptionService, logger)))
	api.Handle("POST /subscription/cancel", asCompany(handleCancelSubscription(subscriptionService, logger)))

	api.Handle("POST /postJobs/postJob", asCompany(handlePostJob(jobService, logger)))
	api.Handle("GET /postJobs/getAllJobs", handleListJobs(jobService, logger))
	api.Handle("GET /postJobs/getAllJob", asCompany(handleListOwnJobs(jobService, logger)))
	api.Handle("PUT /postJobs/updateJob/{id}", asCompany(handleUpdateJob(jobService, logger)))
	api.Handle("DELETE /postJobs/JobDelete/{id}", asCompany(handleDeleteJob(jobService, logger)))

	api.Handle("POST /profile", withAuth(handleCreateProfile(profileService, logger)))
	api.Handle("GET /profile", withAuth(handleGetProfile(profileService, logger)))
	api.Handle("PATCH /profile", withAuth(handleUpdateProfile(profileService, logger)))
	api.Handle("DELETE /profile", withAuth(handleDeleteProfile(profileService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user and issue tokens
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.LoginResult, error)

	// Login user with email and password
	Login(ctx context.Context, email string, password string) (models.LoginResult, error)

	// One-time code login: send code to email, then exchange it for tokens
	RequestOTP(ctx context.Context, email string) error
	LoginOTP(ctx context.Context, email string, code string) (models.LoginResult, error)

	// Refresh tokens using refresh token
	RefreshPair(ctx context.Context, refresh string) (models.LoginResult, error)
	Logout(ctx context.Context, user models.User) error

	Authenticate(ctx context.Context, access string) (models.User, error)
	UpdateAuthProfile(ctx context.Context, user models.User, params repository.UpdateUserParams) (models.User, error)
	ChangePassword(ctx context.Context, user models.User, oldPassword string, newPassword string) error
	ListUsers(ctx context.Context, caller models.User) (auth.UsersByRole, error)

	// Set auth tokens (access, refresh) to response or clear them
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)
	ClearTokens(w http.ResponseWriter)

	// Get tokens from request
	GetAccessString(r *http.Request) (string, error)
	GetRefreshString(r *http.Request) (string, error)
}

type jobService interface {
	Post(ctx context.Context, user models.User, job models.Job) (models.Job, error)
	Update(ctx context.Context, user models.User, jobID uuid.UUID, params repository.UpdateJobParams) (models.Job, error)
	Delete(ctx context.Context, user models.User, jobID uuid.UUID) error
	ListAll(ctx context.Context) ([]models.Job, error)
	ListOwn(ctx context.Context, user models.User) ([]models.Job, error)
}

type applicationService interface {
	Apply(ctx context.Context, user models.User, jobID uuid.UUID) (models.Application, error)
	UpdateStatus(ctx context.Context, user models.User, applicationID uuid.UUID, status models.ApplicationStatus) (models.Application, error)
	ListMine(ctx context.Context, user models.User) ([]models.ApplicationView, error)
	ListForCompany(ctx context.Context, user models.User) ([]models.ApplicationView, error)
}

type subscriptionService interface {
	Create(ctx context.Context, user models.User, params subscription.PurchaseParams) (models.Subscription, error)
	Get(ctx context.Context, user models.User) (models.Subscription, error)
	Cancel(ctx context.Context, user models.User) (models.Subscription, error)
}

type profileService interface {
	Create(ctx context.Context, user models.User, data json.RawMessage) (models.Profile, error)
	Get(ctx context.Context, user models.User) (models.Profile, error)
	Update(ctx context.Context, user models.User, data json.RawMessage) (models.Profile, error)
	Delete(ctx context.Context, user models.User) error
}
