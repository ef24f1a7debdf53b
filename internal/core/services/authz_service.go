package services

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
)

// AuthorizationService implements the business logic for RBAC.
type AuthorizationService struct {
	authRepo ports.AuthorizationRepository
}

// Ensure implementation matches the interface.
var _ ports.AuthorizationService = (*AuthorizationService)(nil)

// NewAuthorizationService creates a new service for authorization logic.
func NewAuthorizationService(authRepo ports.AuthorizationRepository) ports.AuthorizationService {
	return &AuthorizationService{
		authRepo: authRepo,
	}
}

// Can checks if a user has a specific permission.
func (s *AuthorizationService) Can(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	userPermissions, err := s.GetPermissions(ctx, userID)
	if err != nil {
		// If there's an error fetching permissions (e.g., db down), deny access.
		return false, err
	}
	return slices.Contains(userPermissions, permission), nil
}

// GetPermissions returns all permissions for a user.
func (s *AuthorizationService) GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	permissions, err := s.authRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		return nil, apperrors.Unavailable("get user permissions", err)
	}
	if permissions == nil {
		return []string{}, nil
	}
	return permissions, nil
}

// Authorize lets master callers through and checks the permission for everyone else.
func (s *AuthorizationService) Authorize(ctx context.Context, auth domain.AuthContext, permission string) error {
	if auth.Master {
		return nil
	}
	if auth.UserID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}

	ok, err := s.Can(ctx, auth.UserID, permission)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrForbidden
	}
	return nil
}
