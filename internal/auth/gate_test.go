package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/domain"
)

func ctxWithCaller(role domain.Role, userID int64) context.Context {
	return WithCaller(context.Background(), &Caller{
		UserID: userID,
		Name:   "Test User",
		Email:  "test@example.com",
		Role:   role,
	})
}

func TestRequireAuthenticated(t *testing.T) {
	t.Run("anonymous is rejected", func(t *testing.T) {
		_, err := RequireAuthenticated(context.Background())
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("member passes", func(t *testing.T) {
		caller, err := RequireAuthenticated(ctxWithCaller(domain.RoleMember, 7))
		require.NoError(t, err)
		require.Equal(t, int64(7), caller.UserID)
	})
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{
			name:    "anonymous is unauthorized",
			ctx:     context.Background(),
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "member is forbidden",
			ctx:     ctxWithCaller(domain.RoleMember, 1),
			wantErr: domain.ErrForbidden,
		},
		{
			name: "admin passes",
			ctx:  ctxWithCaller(domain.RoleAdmin, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequireAdmin(tt.ctx)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRequireSelfOrAdmin(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		userID  int64
		wantErr error
	}{
		{
			name:    "anonymous is unauthorized",
			ctx:     context.Background(),
			userID:  1,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:   "member accessing own resource passes",
			ctx:    ctxWithCaller(domain.RoleMember, 5),
			userID: 5,
		},
		{
			name:    "member accessing another user is forbidden",
			ctx:     ctxWithCaller(domain.RoleMember, 5),
			userID:  6,
			wantErr: domain.ErrForbidden,
		},
		{
			name:   "admin accessing any user passes",
			ctx:    ctxWithCaller(domain.RoleAdmin, 1),
			userID: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequireSelfOrAdmin(tt.ctx, tt.userID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
