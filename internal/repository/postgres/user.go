package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, first_name, last_name, email, password_hash, role, otp_code, otp_expires_at, refresh_token`

const createUser = `-- name: CreateUser
INSERT INTO users (id, first_name, last_name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, p repository.CreateUserParams) (models.User, error) {
	role := p.Role
	if role == "" {
		role = models.RoleJobseeker
	}

	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), p.FirstName, p.LastName, normalizeEmail(p.Email), p.HashedPassword, role)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		if isUniqueViolation(err) {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: getUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: getUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE lower(email) = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, normalizeEmail(email))
	return collectUser(rows)
}

const listUsers = `-- name: listUsers
SELECT ` + userColumns + ` FROM users
WHERE role = $1
ORDER BY created_at
`

func (r *UserRepo) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	rows, _ := r.DB.Query(ctx, listUsers, role)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return users, nil
}

const updateUser = `-- name: updateUser
UPDATE users
SET first_name = COALESCE($2, first_name),
    last_name = COALESCE($3, last_name),
    email = COALESCE($4, email)
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateUser(ctx context.Context, id uuid.UUID, p repository.UpdateUserParams) (models.User, error) {
	var email *string
	if p.Email != nil {
		e := normalizeEmail(*p.Email)
		email = &e
	}

	rows, _ := r.DB.Query(ctx, updateUser, id, p.FirstName, p.LastName, email)
	user, err := collectUser(rows)
	if err != nil && isUniqueViolation(err) {
		return user, apperrors.ErrEmailTaken
	}

	return user, err
}

func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	const setPassword = `UPDATE users SET password_hash = $2 WHERE id = $1`
	return r.execOne(ctx, setPassword, id, hashedPassword)
}

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	const setRefresh = `UPDATE users SET refresh_token = NULLIF($2, '') WHERE id = $1`
	return r.execOne(ctx, setRefresh, id, token)
}

func (r *UserRepo) SetOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	const setOTP = `UPDATE users SET otp_code = $2, otp_expires_at = $3 WHERE id = $1`
	return r.execOne(ctx, setOTP, id, code, expiresAt)
}

// Conditional update: concurrent consumers of the same code race here and only one wins
const consumeOTP = `-- name: consumeOTP
UPDATE users
SET otp_code = NULL, otp_expires_at = NULL
WHERE id = $1 AND otp_code = $2
`

func (r *UserRepo) ConsumeOTP(ctx context.Context, id uuid.UUID, code string) error {
	tag, err := r.DB.Exec(ctx, consumeOTP, id, code)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrOTPInvalidOrExpired
	default:
		return nil
	}
}

func (r *UserRepo) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.DB.Exec(ctx, sql, args...)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	var otp, refresh *string
	err := row.Scan(&u.ID, &u.CreatedAt, &u.FirstName, &u.LastName, &u.Email, &u.HashedPassword, &u.Role, &otp, &u.OTPExpiresAt, &refresh)
	if otp != nil {
		u.OTPCode = *otp
	}
	if refresh != nil {
		u.RefreshToken = *refresh
	}
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
