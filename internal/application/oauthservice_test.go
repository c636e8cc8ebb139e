package application_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/onshapeapp/internal/application"
	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

const testAuthURL = "https://oauth.example.com/oauth/authorize?client_id=CID&response_type=code"

func signInRequest() application.SignInRequest {
	return application.SignInRequest{
		UserID: "U1",
		Server: "https://x.com",
		Context: model.DocumentContext{
			DocumentID:  "D1",
			WVM:         "w",
			WVMID:       "W1",
			ElementID:   "E1",
			ElementType: model.ElementKindParts,
		},
	}
}

func authorizedUser() model.UserCredential {
	return model.UserCredential{
		ExternalUserID: "U1",
		AccessToken:    "AT-old",
		RefreshToken:   "RT-old",
		APIDomain:      "https://old.example.com",
	}
}

func newOAuthService(store *mockUserStore, oauth *mockOAuthProvider, api *mockOnshapeClient) *application.OAuthService {
	return application.NewOAuthService(store, oauth, api, discardLogger())
}

// --- SignIn ---

func TestSignIn_MissingUserID(t *testing.T) {
	store := newMockUserStore()
	svc := newOAuthService(store, &mockOAuthProvider{}, &mockOnshapeClient{})

	req := signInRequest()
	req.UserID = ""
	result, err := svc.SignIn(context.Background(), req)

	assert.Nil(t, result)
	require.ErrorIs(t, err, application.ErrMissingUserID)
	assert.Zero(t, store.saves)
}

func TestSignIn_NewUserRedirectsToAuthorization(t *testing.T) {
	store := newMockUserStore()
	oauth := &mockOAuthProvider{authURL: testAuthURL}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	result, err := svc.SignIn(context.Background(), signInRequest())

	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Equal(t, testAuthURL, result.RedirectURL)
	assert.Equal(t, application.RefreshSkipped, result.Refresh.Outcome)
	assert.Empty(t, oauth.refreshTokens, "new users have nothing to refresh")

	saved, ok := store.get("U1")
	require.True(t, ok, "record must be created on first sign-in")
	assert.Equal(t, "https://x.com", saved.APIDomain)
	assert.Equal(t, model.DocumentContext{
		DocumentID: "D1", WVM: "w", WVMID: "W1", ElementID: "E1", ElementType: model.ElementKindParts,
	}, saved.Context)
	assert.False(t, saved.HasTokens())
	assert.Empty(t, saved.RefreshToken)
}

func TestSignIn_ExistingUserWithoutTokensRedirectsToAuthorization(t *testing.T) {
	store := newMockUserStore(model.UserCredential{ExternalUserID: "U1"})
	oauth := &mockOAuthProvider{authURL: testAuthURL}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	result, err := svc.SignIn(context.Background(), signInRequest())

	require.NoError(t, err)
	assert.Equal(t, testAuthURL, result.RedirectURL)
	assert.Empty(t, oauth.refreshTokens)
}

func TestSignIn_AuthorizedUserRefreshesAndRedirectsToIndex(t *testing.T) {
	store := newMockUserStore(authorizedUser())
	expiry := time.Now().Add(time.Hour)
	oauth := &mockOAuthProvider{
		authURL:     testAuthURL,
		refreshToks: &model.TokenSet{AccessToken: "AT-new", RefreshToken: "RT-new", Expiry: expiry},
	}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	result, err := svc.SignIn(context.Background(), signInRequest())

	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, "/index/U1/", result.RedirectURL)
	assert.Equal(t, application.RefreshSucceeded, result.Refresh.Outcome)
	assert.Equal(t, []string{"RT-old"}, oauth.refreshTokens)

	saved, _ := store.get("U1")
	assert.Equal(t, "AT-new", saved.AccessToken)
	assert.Equal(t, "RT-new", saved.RefreshToken)
	require.NotNil(t, saved.TokenExpiry)
	assert.True(t, expiry.Equal(*saved.TokenExpiry))
	assert.Equal(t, "https://x.com", saved.APIDomain)
	assert.Equal(t, "D1", saved.Context.DocumentID)
}

func TestSignIn_RefreshFailureLeavesTokensAndContinues(t *testing.T) {
	store := newMockUserStore(authorizedUser())
	oauth := &mockOAuthProvider{
		authURL:    testAuthURL,
		refreshErr: &driven.TokenEndpointError{StatusCode: http.StatusInternalServerError, Body: "boom"},
	}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	result, err := svc.SignIn(context.Background(), signInRequest())

	require.NoError(t, err, "refresh failure must not fail sign-in")
	assert.Equal(t, application.RefreshFailed, result.Refresh.Outcome)
	var tokenErr *driven.TokenEndpointError
	require.ErrorAs(t, result.Refresh.Err, &tokenErr)

	saved, _ := store.get("U1")
	assert.Equal(t, "AT-old", saved.AccessToken)
	assert.Equal(t, "RT-old", saved.RefreshToken)
	assert.Equal(t, "D1", saved.Context.DocumentID, "context is still updated")
	assert.Equal(t, "/index/U1/", result.RedirectURL)
}

func TestSignIn_IsIdempotentForContext(t *testing.T) {
	store := newMockUserStore()
	svc := newOAuthService(store, &mockOAuthProvider{authURL: testAuthURL}, &mockOnshapeClient{})

	_, err := svc.SignIn(context.Background(), signInRequest())
	require.NoError(t, err)
	first, _ := store.get("U1")

	_, err = svc.SignIn(context.Background(), signInRequest())
	require.NoError(t, err)
	second, _ := store.get("U1")

	assert.Equal(t, first.Context, second.Context)
	assert.Equal(t, first.APIDomain, second.APIDomain)
}

func TestSignIn_StoreErrors(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		store := newMockUserStore()
		store.getErr = errors.New("db down")
		svc := newOAuthService(store, &mockOAuthProvider{}, &mockOnshapeClient{})

		_, err := svc.SignIn(context.Background(), signInRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("save", func(t *testing.T) {
		store := newMockUserStore()
		store.saveErr = errors.New("disk full")
		svc := newOAuthService(store, &mockOAuthProvider{}, &mockOnshapeClient{})

		_, err := svc.SignIn(context.Background(), signInRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

// --- HandleCallback ---

func TestHandleCallback_MissingCode(t *testing.T) {
	oauth := &mockOAuthProvider{}
	svc := newOAuthService(newMockUserStore(), oauth, &mockOnshapeClient{})

	_, err := svc.HandleCallback(context.Background(), "")

	require.ErrorIs(t, err, application.ErrMissingCode)
	assert.Empty(t, oauth.exchangeCodes)
}

func TestHandleCallback_StoresExchangedTokens(t *testing.T) {
	store := newMockUserStore(model.UserCredential{ExternalUserID: "U1", APIDomain: "https://x.com"})
	oauth := &mockOAuthProvider{
		exchangeToks: &model.TokenSet{AccessToken: "AT", RefreshToken: "RT", Expiry: time.Now().Add(time.Hour)},
	}
	api := &mockOnshapeClient{session: &model.SessionInfo{ID: "U1"}}
	svc := newOAuthService(store, oauth, api)

	user, err := svc.HandleCallback(context.Background(), "ABC")

	require.NoError(t, err)
	assert.Equal(t, []string{"ABC"}, oauth.exchangeCodes)
	assert.Equal(t, "AT", api.sessionToken, "session info uses the new access token")
	assert.Equal(t, "U1", user.ExternalUserID)
	assert.Equal(t, "/index/U1/", application.IndexPath(user.ExternalUserID))

	saved, _ := store.get("U1")
	assert.Equal(t, "AT", saved.AccessToken)
	assert.Equal(t, "RT", saved.RefreshToken)
	assert.NotNil(t, saved.TokenExpiry)
	assert.Equal(t, "https://x.com", saved.APIDomain, "context is untouched by the callback")
}

func TestHandleCallback_TokenEndpointRejects(t *testing.T) {
	store := newMockUserStore(model.UserCredential{ExternalUserID: "U1"})
	oauth := &mockOAuthProvider{
		exchangeErr: &driven.TokenEndpointError{StatusCode: http.StatusBadRequest, Body: `{"error":"invalid_grant"}`},
	}
	api := &mockOnshapeClient{}
	svc := newOAuthService(store, oauth, api)

	_, err := svc.HandleCallback(context.Background(), "ABC")

	var tokenErr *driven.TokenEndpointError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, `{"error":"invalid_grant"}`, tokenErr.Body)
	assert.Empty(t, api.sessionToken, "session info must not be called")
	assert.Zero(t, store.saves)
}

func TestHandleCallback_OrphanedCallback(t *testing.T) {
	store := newMockUserStore()
	oauth := &mockOAuthProvider{exchangeToks: &model.TokenSet{AccessToken: "AT", RefreshToken: "RT"}}
	api := &mockOnshapeClient{session: &model.SessionInfo{ID: "U9"}}
	svc := newOAuthService(store, oauth, api)

	_, err := svc.HandleCallback(context.Background(), "ABC")

	require.ErrorIs(t, err, application.ErrOrphanedCallback)
	assert.NotErrorIs(t, err, application.ErrUserNotFound)
	_, exists := store.get("U9")
	assert.False(t, exists, "no record is created for an orphaned callback")
}

func TestHandleCallback_SessionInfoFails(t *testing.T) {
	store := newMockUserStore(model.UserCredential{ExternalUserID: "U1"})
	oauth := &mockOAuthProvider{exchangeToks: &model.TokenSet{AccessToken: "AT", RefreshToken: "RT"}}
	api := &mockOnshapeClient{sessionErr: errors.New("connection refused")}
	svc := newOAuthService(store, oauth, api)

	_, err := svc.HandleCallback(context.Background(), "ABC")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	saved, _ := store.get("U1")
	assert.Empty(t, saved.AccessToken)
}

// --- Refresh ---

func TestRefresh_SaveFailureRestoresTokens(t *testing.T) {
	store := newMockUserStore()
	store.saveErr = errors.New("disk full")
	oauth := &mockOAuthProvider{refreshToks: &model.TokenSet{AccessToken: "AT-new", RefreshToken: "RT-new", Expiry: time.Now()}}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	user := authorizedUser()
	result := svc.Refresh(context.Background(), &user)

	assert.Equal(t, application.RefreshFailed, result.Outcome)
	require.Error(t, result.Err)
	assert.Equal(t, "AT-old", user.AccessToken)
	assert.Equal(t, "RT-old", user.RefreshToken)
	assert.Nil(t, user.TokenExpiry)
}

func TestRefresh_Success(t *testing.T) {
	store := newMockUserStore(authorizedUser())
	oauth := &mockOAuthProvider{refreshToks: &model.TokenSet{AccessToken: "AT-new", RefreshToken: "RT-new"}}
	svc := newOAuthService(store, oauth, &mockOnshapeClient{})

	user := authorizedUser()
	result := svc.Refresh(context.Background(), &user)

	assert.Equal(t, application.RefreshSucceeded, result.Outcome)
	assert.NoError(t, result.Err)
	assert.Equal(t, "AT-new", user.AccessToken)
	saved, _ := store.get("U1")
	assert.Equal(t, "RT-new", saved.RefreshToken)
}
