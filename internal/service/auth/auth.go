package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/authz"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	ParseAccess(ctx context.Context, access string) (models.AccessClaims, error)
	ParseRefresh(ctx context.Context, refresh string) (uuid.UUID, error)
}

type otpService interface {
	Request(ctx context.Context, email string) error
	Validate(ctx context.Context, email string, code string) (models.User, error)
}

type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

// Users grouped by role, as admin sees them
type UsersByRole struct {
	Jobseekers []models.User
	Companies  []models.User
	Admins     []models.User
}

type AuthService struct {
	// Manager to issue token pairs (access and refresh)
	tokenManager tokenManager

	// One-time code challenges
	otp otpService

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	storage repository.Storage

	transport
}

func NewService(cfg Config, tokenManager tokenManager, otp otpService, storage repository.Storage) (*AuthService, error) {
	// Set default bcrypt hasher if not user provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	return &AuthService{
		tokenManager: tokenManager,
		otp:          otp,
		hasher:       hasher,
		storage:      storage,
		transport:    newTransport(cfg),
	}, nil
}

// Register user and log him in. Empty role means jobseeker
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.LoginResult, error) {
	if !params.Role.Valid() {
		return models.LoginResult{}, fmt.Errorf("unknown role %q: %w", params.Role, apperrors.ErrInvalidArgument)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		HashedPassword: hash,
		Role:           params.Role,
	})
	if err != nil {
		return models.LoginResult{}, err
	}

	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (models.LoginResult, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		return models.LoginResult{}, err
	}

	err = s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, apperrors.ErrPasswordMismatch)
	}

	return s.issue(ctx, user)
}

// Send one-time login code to the user email
func (s *AuthService) RequestOTP(ctx context.Context, email string) error {
	return s.otp.Request(ctx, email)
}

func (s *AuthService) LoginOTP(ctx context.Context, email string, code string) (models.LoginResult, error) {
	user, err := s.otp.Validate(ctx, email, code)
	if err != nil {
		return models.LoginResult{}, err
	}

	return s.issue(ctx, user)
}

// Exchange refresh token for new pair. Only the latest issued refresh token is accepted
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.LoginResult, error) {
	userID, err := s.tokenManager.ParseRefresh(ctx, refresh)
	if err != nil {
		return models.LoginResult{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.LoginResult{}, unauthenticated(err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refresh)) != 1 {
		return models.LoginResult{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, apperrors.ErrRefreshRevoked)
	}

	return s.issue(ctx, user)
}

// Clear stored refresh token. Access tokens stay valid until they expire
func (s *AuthService) Logout(ctx context.Context, user models.User) error {
	return s.storage.User().SetRefreshToken(ctx, user.ID, "")
}

// Resolve user by access token: verify it and load the user it was issued to
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, error) {
	claims, err := s.tokenManager.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, unauthenticated(err)
	}

	return user, nil
}

func (s *AuthService) UpdateAuthProfile(ctx context.Context, user models.User, params repository.UpdateUserParams) (models.User, error) {
	return s.storage.User().UpdateUser(ctx, user.ID, params)
}

func (s *AuthService) ChangePassword(ctx context.Context, user models.User, oldPassword string, newPassword string) error {
	// Context user may be stale, compare against the stored hash
	stored, err := s.storage.User().GetUserByID(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(stored.HashedPassword, oldPassword); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, apperrors.ErrPasswordMismatch)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.storage.User().SetPassword(ctx, user.ID, hash)
}

// List all users grouped by role. Admin only
func (s *AuthService) ListUsers(ctx context.Context, caller models.User) (UsersByRole, error) {
	var res UsersByRole
	if err := authz.RequireRole(caller, models.RoleAdmin); err != nil {
		return res, err
	}

	groups := []struct {
		role models.Role
		dst  *[]models.User
	}{
		{models.RoleJobseeker, &res.Jobseekers},
		{models.RoleCompany, &res.Companies},
		{models.RoleAdmin, &res.Admins},
	}
	for _, g := range groups {
		users, err := s.storage.User().ListUsers(ctx, g.role)
		if err != nil {
			return UsersByRole{}, err
		}
		*g.dst = users
	}

	return res, nil
}

func (s *AuthService) issue(ctx context.Context, user models.User) (models.LoginResult, error) {
	pair, err := s.tokenManager.GeneratePair(ctx, user)
	if err != nil {
		return models.LoginResult{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	completed, err := s.storage.Profile().ProfileExists(ctx, user.ID)
	if err != nil {
		return models.LoginResult{}, err
	}

	user.RefreshToken = pair.Refresh.Value

	return models.LoginResult{User: user, Tokens: pair, ProfileCompleted: completed}, nil
}

// Token for deleted user is not a valid token
func unauthenticated(err error) error {
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, err)
	}
	return err
}
