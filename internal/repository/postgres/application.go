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

type ApplicationRepo struct {
	DB DBTX
}

const applicationColumns = `id, applicant_id, job_id, status, applied_at, updated_at`

const createApplication = `-- name: createApplication
INSERT INTO applications (id, applicant_id, job_id, status)
VALUES ($1, $2, $3, $4)
RETURNING ` + applicationColumns

func (r *ApplicationRepo) CreateApplication(ctx context.Context, applicantID uuid.UUID, jobID uuid.UUID) (models.Application, error) {
	rows, _ := r.DB.Query(ctx, createApplication, uuid.New(), applicantID, jobID, models.StatusApplied)
	app, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Application])
	if err != nil {
		if isUniqueViolation(err) {
			return app, apperrors.ErrApplicationExists
		}
		return app, fmt.Errorf("db error: %w", err)
	}

	return app, nil
}

func (r *ApplicationRepo) GetApplication(ctx context.Context, applicationID uuid.UUID) (models.Application, error) {
	const getApplication = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	rows, _ := r.DB.Query(ctx, getApplication, applicationID)
	return collectApplication(rows)
}

func (r *ApplicationRepo) ApplicationExists(ctx context.Context, applicantID uuid.UUID, jobID uuid.UUID) (bool, error) {
	const applicationExists = `SELECT EXISTS (SELECT 1 FROM applications WHERE applicant_id = $1 AND job_id = $2)`

	var exists bool
	if err := r.DB.QueryRow(ctx, applicationExists, applicantID, jobID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *ApplicationRepo) SetStatus(ctx context.Context, applicationID uuid.UUID, status models.ApplicationStatus) (models.Application, error) {
	const setStatus = `UPDATE applications SET status = $2, updated_at = now() WHERE id = $1 RETURNING ` + applicationColumns
	rows, _ := r.DB.Query(ctx, setStatus, applicationID, status)
	return collectApplication(rows)
}

const listApplicationViews = `
SELECT a.id, a.applicant_id, a.job_id, a.status, a.applied_at, a.updated_at,
       j.title, j.company_name, j.location,
       u.first_name || ' ' || u.last_name, u.email
FROM applications a
JOIN jobs j ON j.id = a.job_id
JOIN users u ON u.id = a.applicant_id
`

func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]models.ApplicationView, error) {
	const listByApplicant = listApplicationViews + `WHERE a.applicant_id = $1 ORDER BY a.applied_at DESC`
	rows, _ := r.DB.Query(ctx, listByApplicant, applicantID)
	return collectViews(rows)
}

func (r *ApplicationRepo) ListByJobOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ApplicationView, error) {
	const listByJobOwner = listApplicationViews + `WHERE j.owner_id = $1 ORDER BY a.applied_at DESC`
	rows, _ := r.DB.Query(ctx, listByJobOwner, ownerID)
	return collectViews(rows)
}

func collectApplication(rows pgx.Rows) (models.Application, error) {
	app, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Application])

	switch {
	case err == nil:
		return app, nil
	case errors.Is(err, pgx.ErrNoRows):
		return app, apperrors.ErrApplicationNotFound
	default:
		return app, fmt.Errorf("db error: %w", err)
	}
}

func collectViews(rows pgx.Rows) ([]models.ApplicationView, error) {
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ApplicationView, error) {
		var v models.ApplicationView
		err := row.Scan(
			&v.ID, &v.ApplicantID, &v.JobID, &v.Status, &v.AppliedAt, &v.UpdatedAt,
			&v.JobTitle, &v.CompanyName, &v.Location,
			&v.ApplicantName, &v.ApplicantEmail,
		)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return views, nil
}
