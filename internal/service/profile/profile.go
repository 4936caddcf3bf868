package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/repository"
)

// ProfileService keeps the role specific profile of the current user
// Profile content is free form JSON object, only its presence matters for login
type ProfileService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ProfileService {
	return &ProfileService{storage: storage}
}

func (s *ProfileService) Create(ctx context.Context, user models.User, data json.RawMessage) (models.Profile, error) {
	if err := validateData(data); err != nil {
		return models.Profile{}, err
	}

	return s.storage.Profile().CreateProfile(ctx, models.Profile{
		UserID: user.ID,
		Role:   user.Role,
		Data:   data,
	})
}

func (s *ProfileService) Get(ctx context.Context, user models.User) (models.Profile, error) {
	return s.storage.Profile().GetProfile(ctx, user.ID)
}

// Update merges top level keys of data into the stored profile
func (s *ProfileService) Update(ctx context.Context, user models.User, data json.RawMessage) (models.Profile, error) {
	if err := validateData(data); err != nil {
		return models.Profile{}, err
	}

	return s.storage.Profile().UpdateProfile(ctx, models.Profile{UserID: user.ID, Data: data})
}

func (s *ProfileService) Delete(ctx context.Context, user models.User) error {
	return s.storage.Profile().DeleteProfile(ctx, user.ID)
}

func validateData(data json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return fmt.Errorf("profile must be json object: %w", apperrors.ErrInvalidArgument)
	}
	return nil
}
