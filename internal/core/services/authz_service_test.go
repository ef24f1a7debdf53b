package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	apperrors "github.com/lorrc/service-desk-analytics/internal/core/errors"
	"github.com/lorrc/service-desk-analytics/internal/core/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeAuthRepo struct {
	permissions []string
	err         error
	calls       int
}

func (f *fakeAuthRepo) GetUserPermissions(_ context.Context, _ uuid.UUID) ([]string, error) {
	f.calls++
	return f.permissions, f.err
}

func TestAuthorizationService_GetPermissions_NilBecomesEmpty(t *testing.T) {
	svc := NewAuthorizationService(&fakeAuthRepo{})

	permissions, err := svc.GetPermissions(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, permissions)
	require.Empty(t, permissions)
}

func TestAuthorizationService_GetPermissions_WrapsBackendErrors(t *testing.T) {
	svc := NewAuthorizationService(&fakeAuthRepo{err: errors.New("connection refused")})

	_, err := svc.GetPermissions(context.Background(), uuid.New())
	require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
}

func TestAuthorizationService_Can(t *testing.T) {
	repo := &fakeAuthRepo{permissions: []string{domain.PermissionStatsRead}}
	svc := NewAuthorizationService(repo)

	ok, err := svc.Can(context.Background(), uuid.New(), domain.PermissionStatsRead)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Can(context.Background(), uuid.New(), domain.PermissionStatsRecompute)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthorizationService_Authorize(t *testing.T) {
	tests := []struct {
		name        string
		auth        domain.AuthContext
		permissions []string
		wantErr     error
		wantCalls   int
	}{
		{
			name:      "master bypasses lookup",
			auth:      domain.MasterContext(),
			wantCalls: 0,
		},
		{
			name:      "anonymous caller",
			auth:      domain.AuthContext{},
			wantErr:   apperrors.ErrUnauthorized,
			wantCalls: 0,
		},
		{
			name:        "permission held",
			auth:        domain.UserContext(uuid.New()),
			permissions: []string{domain.PermissionStatsRead, domain.PermissionStatsRecompute},
			wantCalls:   1,
		},
		{
			name:        "permission missing",
			auth:        domain.UserContext(uuid.New()),
			permissions: []string{domain.PermissionStatsRead},
			wantErr:     apperrors.ErrForbidden,
			wantCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAuthRepo{permissions: tt.permissions}
			svc := NewAuthorizationService(repo)

			err := svc.Authorize(context.Background(), tt.auth, domain.PermissionStatsRecompute)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantCalls, repo.calls)
		})
	}
}

func TestAuthorizationService_Authorize_BackendDown(t *testing.T) {
	userID := uuid.New()
	repo := mocks.NewMockAuthorizationRepository()
	repo.On("GetUserPermissions", mock.Anything, userID).Return(nil, errors.New("dial tcp: timeout"))

	svc := NewAuthorizationService(repo)
	err := svc.Authorize(context.Background(), domain.UserContext(userID), domain.PermissionStatsRead)

	require.ErrorIs(t, err, apperrors.ErrBackendUnavailable)
	require.NotErrorIs(t, err, apperrors.ErrForbidden)
	repo.AssertExpectations(t)
}
