package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	return &Service{Repo: NewMemoryRepo(), Cost: bcrypt.MinCost}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Ann@Example.COM ", "secret1", " Ann Lee ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.ID, LocalPrefix))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann Lee", user.FullName)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	got, err := svc.Authenticate(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ann@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejectsDuplicatesAndShortPasswords(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "12345", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, "ann@example.com", "123456", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "ANN@example.com", "abcdef", "")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestOAuthUserCannotUsePasswordLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:1", Email: "G@example.com"}))

	_, err := svc.Authenticate(ctx, "g@example.com", "anything")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := svc.GetByID(ctx, "google:1")
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", user.Email)
}

func TestOAuthUpsertKeepsEmailsUnique(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)
	require.ErrorIs(t, svc.UpsertFromAuth(ctx, User{ID: "google:7", Email: "ANN@example.com"}), ErrEmailTaken)

	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:8", Email: "old@example.com"}))
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:8", Email: "new@example.com", FullName: "Bo"}))

	repo := svc.Repo.(*MemoryRepo)
	_, err = repo.GetByEmail(ctx, "old@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	got, err := repo.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bo", got.FullName)
}
