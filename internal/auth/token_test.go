package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_IssueAndParse(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)

	user := &domain.User{
		ID:    42,
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  domain.RoleAdmin,
	}

	token, err := mgr.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.Parse(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, string(domain.RoleAdmin), claims.Role)
}

func TestTokenManager_ParseRejectsExpired(t *testing.T) {
	mgr := NewTokenManager(testSecret, -time.Minute)

	token, err := mgr.Issue(&domain.User{ID: 1, Role: domain.RoleMember})
	require.NoError(t, err)

	_, err = mgr.Parse(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenManager_ParseRejectsWrongSecret(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)
	other := NewTokenManager("another-secret-another-secret-32", time.Hour)

	token, err := mgr.Issue(&domain.User{ID: 1, Role: domain.RoleMember})
	require.NoError(t, err)

	_, err = other.Parse(token)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenManager_ParseRejectsGarbage(t *testing.T) {
	mgr := NewTokenManager(testSecret, time.Hour)

	_, err := mgr.Parse("not-a-token")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}
