package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/notify"
	"github.com/nkiryanov/jobboard/internal/repository"
)

const (
	defaultTTL = 5 * time.Minute
	codeDigits = 6
)

type sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

type Config struct {
	// How long code is valid. 5 minutes if not set
	TTL time.Duration

	// Clock and code generator. Overridden in tests
	Now      func() time.Time
	Generate func() (string, error)
}

type Service struct {
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)

	users  repository.UserRepo
	sender sender
}

func NewService(cfg Config, users repository.UserRepo, sender sender) (*Service, error) {
	if users == nil || sender == nil {
		return nil, errors.New("user repo and sender must not be nil")
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Generate == nil {
		cfg.Generate = GenerateCode
	}

	return &Service{
		ttl:      cfg.TTL,
		now:      cfg.Now,
		generate: cfg.Generate,
		users:    users,
		sender:   sender,
	}, nil
}

// Request issues new code for the user with the email and sends it
// The code replaces any pending one
func (s *Service) Request(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("can't generate code. Err: %w", err)
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.users.SetOTP(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	err = s.sender.Send(ctx, notify.Message{
		To:      user.Email,
		Subject: "OTP for Login",
		HTML:    fmt.Sprintf("<p>Your OTP is <b>%s</b>. It is valid for %d minutes.</p>", code, int(s.ttl.Minutes())),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrNotificationSend, err)
	}

	return nil
}

// Validate checks the code and consumes it on success
// Wrong or expired code leaves stored state untouched
func (s *Service) Validate(ctx context.Context, email string, code string) (models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	if !s.matches(user, code) {
		return models.User{}, apperrors.ErrOTPInvalidOrExpired
	}

	// Fails if the code was consumed or replaced concurrently
	if err := s.users.ConsumeOTP(ctx, user.ID, code); err != nil {
		return models.User{}, err
	}

	user.OTPCode = ""
	user.OTPExpiresAt = nil

	return user, nil
}

func (s *Service) matches(user models.User, code string) bool {
	if user.OTPCode == "" || user.OTPExpiresAt == nil {
		return false
	}
	if s.now().After(*user.OTPExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.OTPCode), []byte(code)) == 1
}

// GenerateCode returns uniformly random code of 6 digits, leading zeros included
func GenerateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
