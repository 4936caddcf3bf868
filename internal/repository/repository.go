package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/models"
)

type CreateUserParams struct {
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	Role           models.Role
}

type UpdateUserParams struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// User repository interface, the credential store
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// List users with the role
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)

	// Update name or email. Nil fields are left as is
	// If the email belongs to other user has to return apperrors.ErrEmailTaken
	UpdateUser(ctx context.Context, userID uuid.UUID, params UpdateUserParams) (models.User, error)

	SetPassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	// Overwrite the stored refresh token. Empty token clears it
	SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Store one-time code and its expiration
	SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error

	// Clear one-time code only if it still equals the given one
	// Must return apperrors.ErrOTPInvalidOrExpired if nothing was cleared
	ConsumeOTP(ctx context.Context, userID uuid.UUID, code string) error
}

type ProfileRepo interface {
	// Has to return apperrors.ErrProfileAlreadyExists if profile exists
	CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)

	// Has to return apperrors.ErrProfileNotFound if profile not exists
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
	DeleteProfile(ctx context.Context, userID uuid.UUID) error

	ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type SubscriptionRepo interface {
	// Insert or replace the user subscription (one per user)
	UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)

	// Has to return apperrors.ErrSubscriptionNotFound if user has no subscription
	GetSubscription(ctx context.Context, userID uuid.UUID) (models.Subscription, error)

	// Mark active subscriptions that ended before the moment as expired
	ExpireSubscriptions(ctx context.Context, before time.Time) (int64, error)
}

type UpdateJobParams struct {
	Title               *string
	CompanyName         *string
	Location            *string
	JobType             *string
	SalaryRange         *string
	ExperienceLevel     *string
	ContactEmail        *string
	ApplicationDeadline *time.Time
	Description         *string
	CompanyDescription  *string
	Requirements        []string
	Skills              []string
	Benefits            []string
	Active              *bool
}

type JobRepo interface {
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)

	// Has to return apperrors.ErrJobNotFound if job not exists
	GetJob(ctx context.Context, jobID uuid.UUID) (models.Job, error)
	UpdateJob(ctx context.Context, jobID uuid.UUID, params UpdateJobParams) (models.Job, error)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error

	// List jobs. uuid.Nil owner means all jobs
	ListJobs(ctx context.Context, ownerID uuid.UUID) ([]models.Job, error)
	CountJobs(ctx context.Context, ownerID uuid.UUID) (int, error)

	// Serialize job creation per owner until the transaction ends
	LockOwner(ctx context.Context, ownerID uuid.UUID) error
}

type ApplicationRepo interface {
	// Has to return apperrors.ErrApplicationExists if applicant already applied to the job
	CreateApplication(ctx context.Context, applicantID uuid.UUID, jobID uuid.UUID) (models.Application, error)

	// Has to return apperrors.ErrApplicationNotFound if application not exists
	GetApplication(ctx context.Context, applicationID uuid.UUID) (models.Application, error)
	ApplicationExists(ctx context.Context, applicantID uuid.UUID, jobID uuid.UUID) (bool, error)
	SetStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (models.Application, error)

	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]models.ApplicationView, error)
	ListByJobOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ApplicationView, error)
}

// Storage gives access to all the repositories sharing one connection
type Storage interface {
	User() UserRepo
	Profile() ProfileRepo
	Subscription() SubscriptionRepo
	Job() JobRepo
	Application() ApplicationRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
