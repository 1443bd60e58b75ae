package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrovida/hidrofresa/internal/domain/models"
	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/repository/memstore"
)

func TestResolveRoleCreatesProfileOnFirstSignIn(t *testing.T) {
	docs := memstore.New()
	store := NewStore(docs, nil, nil)

	role, err := store.ResolveRole(context.Background(), "uid-1234", "op@farm.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleBasic, role)

	var created models.User
	require.NoError(t, docs.Get(context.Background(), models.CollectionUsers, "uid-1234", &created))
	assert.Equal(t, "op@farm.test", created.Email)
	assert.Equal(t, models.RoleBasic, created.Role)
	assert.True(t, created.IsActive)
}

func TestResolveRoleSynthesizesEmailWhenMissing(t *testing.T) {
	docs := memstore.New()
	store := NewStore(docs, nil, nil)

	_, err := store.ResolveRole(context.Background(), "abcdef0123456789", "")
	require.NoError(t, err)

	var created models.User
	require.NoError(t, docs.Get(context.Background(), models.CollectionUsers, "abcdef0123456789", &created))
	assert.Equal(t, "user_abcdef01@example.com", created.Email)
}

func TestResolveRoleReadsExistingAdminProfile(t *testing.T) {
	docs := memstore.New()
	require.NoError(t, docs.Set(context.Background(), models.CollectionUsers, "admin-1", models.User{
		Email:    "boss@farm.test",
		Role:     models.RoleAdmin,
		IsActive: true,
	}))

	store := NewStore(docs, nil, nil)
	role, err := store.ResolveRole(context.Background(), "admin-1", "boss@farm.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestHandleSignInFallsBackToBasicWithWarning(t *testing.T) {
	docs := memstore.New()
	docs.FailWith(models.CollectionUsers, "get", errors.New("network down"))
	center := notify.NewCenter(nil, nil)
	store := NewStore(docs, center, nil)

	role := store.HandleSignIn(context.Background(), "uid-9", "x@farm.test")

	assert.Equal(t, models.RoleBasic, role)
	assert.True(t, store.Ready(), "readiness must be set even on fallback")

	toasts := center.Active("uid-9")
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelWarning, toasts[0].Level)
}

func TestNothingReadyBeforeFirstSignIn(t *testing.T) {
	store := NewStore(memstore.New(), nil, nil)
	assert.False(t, store.Ready())
	_, ok := store.Current("uid-1")
	assert.False(t, ok)
}

func TestHandleSignOutClearsIdentityAndRoleAtomically(t *testing.T) {
	docs := memstore.New()
	store := NewStore(docs, nil, nil)

	store.HandleSignIn(context.Background(), "uid-1", "a@farm.test")
	cur, ok := store.Current("uid-1")
	require.True(t, ok)
	assert.Equal(t, "uid-1", cur.UserID)

	store.HandleSignOut("uid-1")
	_, ok = store.Current("uid-1")
	assert.False(t, ok)
	assert.True(t, store.Ready(), "readiness survives sign-out")
}

func TestSignOutLeavesOtherSessionsIntact(t *testing.T) {
	docs := memstore.New()
	store := NewStore(docs, nil, nil)
	ctx := context.Background()

	store.HandleSignIn(ctx, "uid-1", "a@farm.test")
	store.HandleSignIn(ctx, "uid-2", "b@farm.test")

	store.HandleSignOut("uid-1")

	_, ok := store.Current("uid-1")
	assert.False(t, ok)
	other, ok := store.Current("uid-2")
	require.True(t, ok)
	assert.Equal(t, "b@farm.test", other.Email)
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	store := NewStore(memstore.New(), nil, nil)
	err := store.ChangeRole(context.Background(), "admin-1", "uid-1", models.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestSetActiveArchivesWithoutDeleting(t *testing.T) {
	docs := memstore.New()
	require.NoError(t, docs.Set(context.Background(), models.CollectionUsers, "uid-2", models.User{
		Email: "op@farm.test", Role: models.RoleBasic, IsActive: true,
	}))
	store := NewStore(docs, nil, nil)

	require.NoError(t, store.SetActive(context.Background(), "admin-1", "uid-2", false))

	var archived models.User
	require.NoError(t, docs.Get(context.Background(), models.CollectionUsers, "uid-2", &archived))
	assert.False(t, archived.IsActive)
	assert.NotNil(t, archived.ArchivedAt)
}
