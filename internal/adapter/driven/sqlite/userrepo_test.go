package sqlite

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

func testKey() []byte {
	return []byte(strings.Repeat("k", 32))
}

func newUser(id string) *model.UserCredential {
	return &model.UserCredential{
		ExternalUserID: id,
		APIDomain:      "https://cad.onshape.com",
		Context: model.DocumentContext{
			DocumentID:  "D1",
			WVM:         model.WVMWorkspace,
			WVMID:       "W1",
			ElementID:   "E1",
			ElementType: model.ElementKindParts,
		},
	}
}

func TestUserRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)

	user, err := repo.GetByExternalID(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepo_SaveAndGetWithoutTokens(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)
	ctx := context.Background()

	u := newUser("U1")
	require.NoError(t, repo.Save(ctx, u))
	assert.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByExternalID(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "U1", got.ExternalUserID)
	assert.Equal(t, "", got.AccessToken)
	assert.Equal(t, "", got.RefreshToken)
	assert.Nil(t, got.TokenExpiry)
	assert.False(t, got.HasTokens())
	assert.Equal(t, "https://cad.onshape.com", got.APIDomain)
	assert.Equal(t, u.Context, got.Context)
}

func TestUserRepo_SaveUpdatesExistingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)
	ctx := context.Background()

	u := newUser("U1")
	require.NoError(t, repo.Save(ctx, u))
	firstID := u.ID

	expiry := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	u.AccessToken = "AT"
	u.RefreshToken = "RT"
	u.TokenExpiry = &expiry
	u.Context.ElementType = model.ElementKindAssemblies
	u.Context.ElementID = "E2"
	require.NoError(t, repo.Save(ctx, u))
	assert.Equal(t, firstID, u.ID, "upsert must keep the row id")

	got, err := repo.GetByExternalID(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AT", got.AccessToken)
	assert.Equal(t, "RT", got.RefreshToken)
	require.NotNil(t, got.TokenExpiry)
	assert.True(t, expiry.Equal(*got.TokenExpiry))
	assert.Equal(t, model.ElementKindAssemblies, got.Context.ElementType)
	assert.Equal(t, "E2", got.Context.ElementID)
}

func TestUserRepo_UsersAreIndependent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)
	ctx := context.Background()

	u1 := newUser("U1")
	u1.AccessToken = "AT1"
	u2 := newUser("U2")
	require.NoError(t, repo.Save(ctx, u1))
	require.NoError(t, repo.Save(ctx, u2))
	assert.NotEqual(t, u1.ID, u2.ID)

	got, err := repo.GetByExternalID(ctx, "U2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", got.AccessToken)
}

func TestUserRepo_SaveRejectsEmptyExternalID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)

	err := repo.Save(context.Background(), &model.UserCredential{})
	require.Error(t, err)
}

func TestUserRepo_EncryptsTokensAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, testKey())
	ctx := context.Background()

	u := newUser("U1")
	u.AccessToken = "plain-access"
	u.RefreshToken = "plain-refresh"
	require.NoError(t, repo.Save(ctx, u))

	var storedAccess, storedRefresh string
	err := db.Reader.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM onshape_users WHERE external_user_id = ?`, "U1",
	).Scan(&storedAccess, &storedRefresh)
	require.NoError(t, err)
	assert.NotEqual(t, "plain-access", storedAccess)
	assert.NotEqual(t, "plain-refresh", storedRefresh)

	got, err := repo.GetByExternalID(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "plain-access", got.AccessToken)
	assert.Equal(t, "plain-refresh", got.RefreshToken)
}

func TestUserRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := newUser("U1")
	u.AccessToken = "plain-access"
	require.NoError(t, NewUserRepo(db, testKey()).Save(ctx, u))

	other := []byte(strings.Repeat("x", 32))
	_, err := NewUserRepo(db, other).GetByExternalID(ctx, "U1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt access token")
}

func TestUserRepo_Ping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepo(db, nil)

	assert.NoError(t, repo.Ping(context.Background()))
}
