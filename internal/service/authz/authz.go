// Package authz holds per-operation role and ownership checks
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/jobboard/internal/apperrors"
	"github.com/nkiryanov/jobboard/internal/models"
)

// RequireRole fails with apperrors.ErrForbidden unless the user has one of the roles
func RequireRole(user models.User, roles ...models.Role) error {
	if user.Role.Is(roles...) {
		return nil
	}
	return fmt.Errorf("role %q not allowed, want one of %v: %w", user.Role, roles, apperrors.ErrForbidden)
}

// RequireOwner fails with apperrors.ErrForbidden unless the user owns the resource
func RequireOwner(user models.User, ownerID uuid.UUID) error {
	if user.ID == ownerID {
		return nil
	}
	return fmt.Errorf("user is not the owner: %w", apperrors.ErrForbidden)
}
