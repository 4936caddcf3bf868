package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/authz"
	"github.com/nkiryanov/jobboard/internal/service/quota"
)

type JobService struct {
	storage repository.Storage
	quota   *quota.Engine
}

func NewService(storage repository.Storage, quota *quota.Engine) *JobService {
	return &JobService{storage: storage, quota: quota}
}

// Post job on behalf of the company if it is below its quota
// Count and insert run under per-owner lock, so concurrent posts can't exceed the quota
func (s *JobService) Post(ctx context.Context, user models.User, job models.Job) (models.Job, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Job{}, err
	}
	if err := validateKinds(&job.JobType, &job.ExperienceLevel); err != nil {
		return models.Job{}, err
	}

	job.ID = uuid.Nil
	job.OwnerID = user.ID
	job.Active = true

	var created models.Job
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if err := tx.Job().LockOwner(ctx, user.ID); err != nil {
			return err
		}

		ok, err := s.quota.In(tx).CanPost(ctx, user.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrQuotaExceeded
		}

		created, err = tx.Job().CreateJob(ctx, job)
		return err
	})

	return created, err
}

func (s *JobService) Update(ctx context.Context, user models.User, jobID uuid.UUID, params repository.UpdateJobParams) (models.Job, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Job{}, err
	}
	if err := validateKinds(params.JobType, params.ExperienceLevel); err != nil {
		return models.Job{}, err
	}

	job, err := s.storage.Job().GetJob(ctx, jobID)
	if err != nil {
		return models.Job{}, err
	}
	if err := authz.RequireOwner(user, job.OwnerID); err != nil {
		return models.Job{}, err
	}

	return s.storage.Job().UpdateJob(ctx, jobID, params)
}

func (s *JobService) Delete(ctx context.Context, user models.User, jobID uuid.UUID) error {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return err
	}

	job, err := s.storage.Job().GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := authz.RequireOwner(user, job.OwnerID); err != nil {
		return err
	}

	return s.storage.Job().DeleteJob(ctx, jobID)
}

// All posted jobs, public
func (s *JobService) ListAll(ctx context.Context) ([]models.Job, error) {
	return s.storage.Job().ListJobs(ctx, uuid.Nil)
}

// Jobs posted by the company
func (s *JobService) ListOwn(ctx context.Context, user models.User) ([]models.Job, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return nil, err
	}
	return s.storage.Job().ListJobs(ctx, user.ID)
}

func validateKinds(jobType *string, level *string) error {
	if jobType != nil {
		switch *jobType {
		case models.JobTypeFullTime, models.JobTypePartTime, models.JobTypeContract, models.JobTypeRemote:
		default:
			return fmt.Errorf("unknown job type %q: %w", *jobType, apperrors.ErrInvalidArgument)
		}
	}

	if level != nil {
		switch *level {
		case models.LevelMid, models.LevelSenior, models.LevelExecutive:
		default:
			return fmt.Errorf("unknown experience level %q: %w", *level, apperrors.ErrInvalidArgument)
		}
	}

	return nil
}
