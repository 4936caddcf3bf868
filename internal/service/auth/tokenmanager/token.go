package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token types. Stored in 'typ' claim so refresh token can't be used as access one and vice versa
const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Type      string      `json:"typ"`
	UserID    uuid.UUID   `json:"uid"`
	Role      models.Role `json:"role"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	Type   string    `json:"typ"`
	UserID uuid.UUID `json:"uid"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock. time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	key        string
	alg        jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	// Refresh token is stored on the user record
	userRepo repository.UserRepo
}

func New(cfg Config, userRepo repository.UserRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        cfg.SecretKey,
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
		userRepo:   userRepo,
	}, nil
}

// Issue new access and refresh tokens
// Refresh token overwrites the one stored for the user, so only the latest one is usable
func (m *TokenManager) GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := m.now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	access, err := m.sign(AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
		},
		Type:      typeAccess,
		UserID:    user.ID,
		Role:      user.Role,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	})
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.sign(RefreshTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
		},
		Type:   typeRefresh,
		UserID: user.ID,
	})
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	err = m.userRepo.SetRefreshToken(ctx, user.ID, refresh)
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(ctx context.Context, access string) (models.AccessClaims, error) {
	claims := &AccessTokenClaims{}
	if err := m.parse(access, claims, &claims.Type, typeAccess); err != nil {
		return models.AccessClaims{}, err
	}

	return models.AccessClaims{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		Role:      claims.Role,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse and validate refresh token. Does not check it against the stored one
func (m *TokenManager) ParseRefresh(ctx context.Context, refresh string) (uuid.UUID, error) {
	claims := &RefreshTokenClaims{}
	if err := m.parse(refresh, claims, &claims.Type, typeRefresh); err != nil {
		return uuid.Nil, err
	}

	return claims.UserID, nil
}

func (m *TokenManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(m.alg, claims).SignedString([]byte(m.key))
}

func (m *TokenManager) parse(value string, claims jwt.Claims, typ *string, wantType string) error {
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(m.key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("error while parsing or validating token. Err: %w", classify(err))
	}

	if *typ != wantType {
		return fmt.Errorf("expected %s token, got %q. Err: %w", wantType, *typ, classify(jwt.ErrTokenInvalidClaims))
	}

	return nil
}

// Map jwt errors to app ones. Each of them is also ErrUnauthenticated
func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = apperrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		kind = apperrors.ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed):
		kind = apperrors.ErrTokenMalformed
	default:
		kind = apperrors.ErrTokenInvalid
	}

	return fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, kind)
}
