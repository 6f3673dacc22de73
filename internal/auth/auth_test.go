package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/storage/storagetest"
)

func newService(t *testing.T) (*Service, *storage.Storage) {
	t.Helper()
	s := storagetest.New(t)
	svc, err := NewService(s, config.AuthConfig{JWTSecret: "test-secret", Issuer: "wedding-rsvp", TokenExpiry: time.Hour},
		zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return svc, s
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(nil, config.AuthConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	acc, err := svc.SignUp(ctx, " Dana@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", acc.Email)
	assert.NotEqual(t, "correct horse", acc.PasswordHash)

	token, signedIn, err := svc.SignIn(ctx, "dana@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, signedIn.ID)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, userID)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "not-an-email", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = svc.SignUp(ctx, "Dana <dana@example.com>", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = svc.SignUp(ctx, "dana@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUpDuplicate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "dana@example.com", "correct horse")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "DANA@example.com", "another password")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "dana@example.com", "correct horse")
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, "dana@example.com", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.SignIn(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	svc, _ := newService(t)

	token, err := svc.IssueToken("user-1")
	require.NoError(t, err)

	_, err = svc.ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService(nil, config.AuthConfig{JWTSecret: "other", Issuer: "wedding-rsvp"}, zerolog.Nop())
	require.NoError(t, err)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteAccount(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()

	acc, err := svc.SignUp(ctx, "dana@example.com", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAccount(ctx, acc.ID))

	_, err = s.GetAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
