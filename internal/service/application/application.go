package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
	"github.com/nkiryanov/jobboard/internal/service/authz"
)

type ApplicationService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ApplicationService {
	return &ApplicationService{storage: storage}
}

// Apply to the job. One application per applicant and job
func (s *ApplicationService) Apply(ctx context.Context, user models.User, jobID uuid.UUID) (models.Application, error) {
	if err := authz.RequireRole(user, models.RoleJobseeker); err != nil {
		return models.Application{}, err
	}

	if _, err := s.storage.Job().GetJob(ctx, jobID); err != nil {
		return models.Application{}, err
	}

	exists, err := s.storage.Application().ApplicationExists(ctx, user.ID, jobID)
	if err != nil {
		return models.Application{}, err
	}
	if exists {
		return models.Application{}, apperrors.ErrApplicationExists
	}

	// Concurrent duplicate is rejected by unique constraint with the same error
	return s.storage.Application().CreateApplication(ctx, user.ID, jobID)
}

// Set application status. Any of the known statuses may follow any other
func (s *ApplicationService) UpdateStatus(ctx context.Context, user models.User, applicationID uuid.UUID, status models.ApplicationStatus) (models.Application, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return models.Application{}, err
	}

	app, err := s.storage.Application().GetApplication(ctx, applicationID)
	if err != nil {
		return models.Application{}, err
	}

	job, err := s.storage.Job().GetJob(ctx, app.JobID)
	if err != nil {
		return models.Application{}, err
	}
	if err := authz.RequireOwner(user, job.OwnerID); err != nil {
		return models.Application{}, err
	}

	if !status.Valid() {
		return models.Application{}, fmt.Errorf("%w: %w %q", apperrors.ErrInvalidArgument, apperrors.ErrStatusInvalid, status)
	}

	return s.storage.Application().SetStatus(ctx, applicationID, status)
}

// Applications of the jobseeker
func (s *ApplicationService) ListMine(ctx context.Context, user models.User) ([]models.ApplicationView, error) {
	if err := authz.RequireRole(user, models.RoleJobseeker); err != nil {
		return nil, err
	}
	return s.storage.Application().ListByApplicant(ctx, user.ID)
}

// Applications to the jobs posted by the company
func (s *ApplicationService) ListForCompany(ctx context.Context, user models.User) ([]models.ApplicationView, error) {
	if err := authz.RequireRole(user, models.RoleCompany); err != nil {
		return nil, err
	}
	return s.storage.Application().ListByJobOwner(ctx, user.ID)
}
