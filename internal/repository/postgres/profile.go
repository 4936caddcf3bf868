package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const profileColumns = `user_id, role, data, created_at, updated_at`

const createProfile = `-- name: createProfile
INSERT INTO profiles (user_id, role, data)
VALUES ($1, $2, $3)
RETURNING ` + profileColumns

func (r *ProfileRepo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile, p.UserID, p.Role, jsonData(p.Data))
	profile, err := pgx.CollectOneRow(rows, rowToProfile)
	if err != nil {
		if isUniqueViolation(err) {
			return profile, apperrors.ErrProfileAlreadyExists
		}
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	const getProfile = `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	rows, _ := r.DB.Query(ctx, getProfile, userID)
	return collectProfile(rows)
}

// New data is merged into the stored one, top level keys only
const updateProfile = `-- name: updateProfile
UPDATE profiles
SET data = data || $2::jsonb, updated_at = now()
WHERE user_id = $1
RETURNING ` + profileColumns

func (r *ProfileRepo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, updateProfile, p.UserID, jsonData(p.Data))
	return collectProfile(rows)
}

func (r *ProfileRepo) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrProfileNotFound
	default:
		return nil
	}
}

func (r *ProfileRepo) ProfileExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func collectProfile(rows pgx.Rows) (models.Profile, error) {
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	var data []byte
	err := row.Scan(&p.UserID, &p.Role, &data, &p.CreatedAt, &p.UpdatedAt)
	p.Data = data
	return p, err
}

// Pass json as string so pgx sends it as text and postgres casts it to jsonb
func jsonData(data []byte) string {
	if len(data) == 0 {
		return "{}"
	}
	return string(data)
}
