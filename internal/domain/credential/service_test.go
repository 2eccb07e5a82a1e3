package credential

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinito/infinito-api/internal/domain/auth"
	"github.com/infinito/infinito-api/internal/domain/user"
	"github.com/infinito/infinito-api/internal/pkg/secretbox"
)

func TestSaveStoresSealedKeyWithHint(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t)
	dave := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	c, err := svc.Save(ctx, dave, &dave.UserID, " openai ", "  sk-dave-1234567890  ")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.ServiceID)
	assert.Equal(t, "openai API Key", c.Name)
	assert.Equal(t, "****7890", c.KeyHint)
	assert.True(t, c.IsActive)
	assert.NotContains(t, repo.rows[c.ID].EncryptedKey, "sk-dave")

	// Saving again for the same service replaces the secret in place.
	again, err := svc.Save(ctx, dave, &dave.UserID, "openai", "sk-dave-abcdefghij")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, "****ghij", again.KeyHint)
	assert.Len(t, repo.rows, 1)
}

func TestSaveSystemKeyRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t)
	eve := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	_, err := svc.Save(ctx, eve, nil, "openai", "sk-system-0000000001")
	assert.ErrorIs(t, err, ErrForbidden)

	other := uuid.New()
	_, err = svc.Save(ctx, eve, &other, "openai", "sk-other-0000000001")
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := svc.Save(ctx, adminIdentity, nil, "openai", "sk-system-0000000001")
	require.NoError(t, err)
	assert.True(t, c.IsSystem())
	assert.Equal(t, "System openai API Key", c.Name)
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t)
	id := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	_, err := svc.Save(ctx, id, &id.UserID, "openai", "short")
	assert.ErrorIs(t, err, ErrKeyTooShort)

	_, err = svc.Save(ctx, id, &id.UserID, "Open AI", "sk-long-enough-key")
	assert.ErrorIs(t, err, ErrInvalidService)
}

func TestSaveWithoutEncryptionKey(t *testing.T) {
	box, err := secretbox.New(nil)
	require.NoError(t, err)
	svc := NewService(newFakeRepo(), box)
	id := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	_, err = svc.Save(context.Background(), id, &id.UserID, "openai", "sk-long-enough-key")
	assert.ErrorIs(t, err, ErrEncryptionDisabled)
}

func TestUpdateAndDeleteAuthorization(t *testing.T) {
	ctx := context.Background()
	repo, svc, _ := setup(t)
	owner := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}
	stranger := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	own, err := svc.Save(ctx, owner, &owner.UserID, "openai", "sk-owner-000000001")
	require.NoError(t, err)
	system, err := svc.Save(ctx, adminIdentity, nil, "openai", "sk-system-0000000001")
	require.NoError(t, err)

	visible := true
	_, err = svc.Update(ctx, stranger, own.ID, Patch{IsVisible: &visible})
	assert.ErrorIs(t, err, ErrNotFound, "other users' rows are hidden")
	_, err = svc.Update(ctx, stranger, system.ID, Patch{IsVisible: &visible})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, owner, own.ID, Patch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	updated, err := svc.Update(ctx, owner, own.ID, Patch{IsVisible: &visible})
	require.NoError(t, err)
	assert.True(t, updated.IsVisible)
	assert.True(t, updated.IsActive)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, own.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, owner, system.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner, own.ID))
	require.NoError(t, svc.Delete(ctx, adminIdentity, system.ID))
	assert.Empty(t, repo.rows)
	assert.ErrorIs(t, svc.Delete(ctx, adminIdentity, system.ID), ErrNotFound)
}

func TestListScopes(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := setup(t)
	a := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}
	b := &auth.Identity{UserID: uuid.New(), Role: user.RoleStandard}

	_, err := svc.Save(ctx, a, &a.UserID, "openai", "sk-a-0000000001")
	require.NoError(t, err)
	_, err = svc.Save(ctx, b, &b.UserID, "openai", "sk-b-0000000001")
	require.NoError(t, err)
	_, err = svc.Save(ctx, adminIdentity, nil, "openai", "sk-system-0000000001")
	require.NoError(t, err)

	mine, err := svc.List(ctx, a)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].OwnedBy(a.UserID))

	_, err = svc.ListAll(ctx, a)
	assert.ErrorIs(t, err, ErrForbidden)

	all, err := svc.ListAll(ctx, adminIdentity)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestKeyHintKeepsRunesWhole(t *testing.T) {
	hint := keyHint("sk-clé-ключ-密钥密钥")
	assert.True(t, utf8.ValidString(hint))
	assert.Equal(t, "****密钥密钥", hint)

	assert.Equal(t, "****", keyHint("ключ"))
	assert.Equal(t, "****7890", keyHint("sk-1234567890"))
}
