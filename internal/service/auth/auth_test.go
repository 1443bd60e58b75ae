package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/repository/memstore"
)

func newService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	docs := memstore.New()
	return NewService(docs, "test-secret", time.Hour, nil), docs
}

func TestCreateAccountAndAuthenticateRoundTrip(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, " Operario@Farm.Test ", "hunter2hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var stored models.User
	require.NoError(t, docs.Get(ctx, models.CollectionUsers, id, &stored))
	assert.Equal(t, "operario@farm.test", stored.Email)
	assert.Equal(t, models.RoleBasic, stored.Role)
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)

	token, user, err := svc.Authenticate(ctx, "operario@farm.test", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	subject, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, subject)
}

func TestCreateAccountRejectsWeakPassword(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.CreateAccount(context.Background(), "a@b.test", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "dup@farm.test", "longenough1")
	require.NoError(t, err)

	_, err = svc.CreateAccount(ctx, "DUP@farm.test", "longenough2")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "a@farm.test", "correcthorse")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "a@farm.test", "wronghorse11")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Authenticate(context.Background(), "ghost@farm.test", "whatever123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateArchivedAccount(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "old@farm.test", "longenough1")
	require.NoError(t, err)

	var user models.User
	require.NoError(t, docs.Get(ctx, models.CollectionUsers, id, &user))
	user.ID = ""
	user.IsActive = false
	require.NoError(t, docs.Set(ctx, models.CollectionUsers, id, user))

	_, _, err = svc.Authenticate(ctx, "old@farm.test", "longenough1")
	assert.ErrorIs(t, err, ErrAccountArchived)
}

func TestSendPasswordResetStoresOnlyHash(t *testing.T) {
	svc, docs := newService(t)
	ctx := context.Background()

	id, err := svc.CreateAccount(ctx, "reset@farm.test", "longenough1")
	require.NoError(t, err)

	token, err := svc.SendPasswordReset(ctx, "reset@farm.test")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var user models.User
	require.NoError(t, docs.Get(ctx, models.CollectionUsers, id, &user))
	assert.NotEmpty(t, user.ResetTokenHash)
	assert.NotEqual(t, token, user.ResetTokenHash)
	assert.True(t, user.ResetTokenExpiry.After(time.Now()))
}

func TestSendPasswordResetUnknownUser(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.SendPasswordReset(context.Background(), "nobody@farm.test")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestResetPasswordRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "reset@farm.test", "oldpassword1")
	require.NoError(t, err)

	token, err := svc.SendPasswordReset(ctx, "reset@farm.test")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, token, "newpassword1"))

	// Old password no longer works, new one does, token is spent.
	_, _, err = svc.Authenticate(ctx, "reset@farm.test", "oldpassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Authenticate(ctx, "reset@farm.test", "newpassword1")
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "anotherpass1"), ErrInvalidToken)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "late@farm.test", "oldpassword1")
	require.NoError(t, err)

	token, err := svc.SendPasswordReset(ctx, "late@farm.test")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "newpassword1"), ErrInvalidToken)
}

func TestResetPasswordRejectsUnknownToken(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.ResetPassword(context.Background(), "bogus", "newpassword1"), ErrInvalidToken)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	docs := memstore.New()
	issuer := NewService(docs, "secret-a", time.Hour, nil)
	verifier := NewService(docs, "secret-b", time.Hour, nil)

	ctx := context.Background()
	_, err := issuer.CreateAccount(ctx, "x@farm.test", "longenough1")
	require.NoError(t, err)
	token, _, err := issuer.Authenticate(ctx, "x@farm.test", "longenough1")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
