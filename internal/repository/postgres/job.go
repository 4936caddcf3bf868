package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

type JobRepo struct {
	DB DBTX
}

const jobColumns = `id, owner_id, title, company_name, location, job_type, salary_range, experience_level, contact_email,
application_deadline, description, company_description, requirements, skills, benefits, active, created_at, updated_at`

const createJob = `-- name: createJob
INSERT INTO jobs (id, owner_id, title, company_name, location, job_type, salary_range, experience_level, contact_email,
    application_deadline, description, company_description, requirements, skills, benefits, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + jobColumns

func (r *JobRepo) CreateJob(ctx context.Context, j models.Job) (models.Job, error) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createJob,
		j.ID, j.OwnerID, j.Title, j.CompanyName, j.Location, j.JobType, j.SalaryRange, j.ExperienceLevel, j.ContactEmail,
		j.ApplicationDeadline, j.Description, j.CompanyDescription,
		nonNil(j.Requirements), nonNil(j.Skills), nonNil(j.Benefits), j.Active,
	)

	job, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Job])
	if err != nil {
		return job, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

func (r *JobRepo) GetJob(ctx context.Context, jobID uuid.UUID) (models.Job, error) {
	const getJob = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	rows, _ := r.DB.Query(ctx, getJob, jobID)
	return collectJob(rows)
}

const updateJob = `-- name: updateJob
UPDATE jobs
SET title = COALESCE($2, title),
    company_name = COALESCE($3, company_name),
    location = COALESCE($4, location),
    job_type = COALESCE($5, job_type),
    salary_range = COALESCE($6, salary_range),
    experience_level = COALESCE($7, experience_level),
    contact_email = COALESCE($8, contact_email),
    application_deadline = COALESCE($9, application_deadline),
    description = COALESCE($10, description),
    company_description = COALESCE($11, company_description),
    requirements = COALESCE($12, requirements),
    skills = COALESCE($13, skills),
    benefits = COALESCE($14, benefits),
    active = COALESCE($15, active),
    updated_at = now()
WHERE id = $1
RETURNING ` + jobColumns

func (r *JobRepo) UpdateJob(ctx context.Context, jobID uuid.UUID, p repository.UpdateJobParams) (models.Job, error) {
	// nil slice is sent as NULL and keeps the stored array
	rows, _ := r.DB.Query(ctx, updateJob, jobID,
		p.Title, p.CompanyName, p.Location, p.JobType, p.SalaryRange, p.ExperienceLevel, p.ContactEmail,
		p.ApplicationDeadline, p.Description, p.CompanyDescription,
		p.Requirements, p.Skills, p.Benefits, p.Active,
	)
	return collectJob(rows)
}

func (r *JobRepo) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrJobNotFound
	default:
		return nil
	}
}

const listJobs = `-- name: listJobs
SELECT ` + jobColumns + ` FROM jobs
WHERE $1::uuid IS NULL OR owner_id = $1
ORDER BY created_at DESC
`

func (r *JobRepo) ListJobs(ctx context.Context, ownerID uuid.UUID) ([]models.Job, error) {
	rows, _ := r.DB.Query(ctx, listJobs, ownerArg(ownerID))
	jobs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Job])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return jobs, nil
}

func (r *JobRepo) CountJobs(ctx context.Context, ownerID uuid.UUID) (int, error) {
	const countJobs = `SELECT count(*) FROM jobs WHERE owner_id = $1`

	var n int
	if err := r.DB.QueryRow(ctx, countJobs, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Transaction scoped advisory lock; released on commit or rollback
func (r *JobRepo) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	const lockOwner = `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`

	_, err := r.DB.Exec(ctx, lockOwner, ownerID.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func collectJob(rows pgx.Rows) (models.Job, error) {
	job, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[models.Job])

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotFound
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

func ownerArg(ownerID uuid.UUID) *uuid.UUID {
	if ownerID == uuid.Nil {
		return nil
	}
	return &ownerID
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
