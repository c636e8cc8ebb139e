package onshape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/onshapeapp/internal/adapter/driven/onshape"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// tokenServer records every form posted to /oauth/token and answers with
// the configured status and body.
type tokenServer struct {
	mu     sync.Mutex
	forms  []url.Values
	status int
	body   string
}

func (s *tokenServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/oauth/token" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.forms = append(s.forms, r.PostForm)
	status, body := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *tokenServer) lastForm(t *testing.T) url.Values {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.forms, "token endpoint was not called")
	return s.forms[len(s.forms)-1]
}

func newTestOAuth(t *testing.T, ts *tokenServer, redirectURL string) *onshape.OAuth {
	t.Helper()

	server := httptest.NewServer(ts)
	t.Cleanup(server.Close)

	return onshape.NewOAuth(onshape.OAuthConfig{
		BaseURL:      server.URL,
		ClientID:     "client-123",
		ClientSecret: "secret-456",
		RedirectURL:  redirectURL,
	}, server.Client())
}

func TestAuthCodeURL(t *testing.T) {
	o := onshape.NewOAuth(onshape.OAuthConfig{
		BaseURL:      "https://oauth.onshape.com",
		ClientID:     "client-123",
		ClientSecret: "secret-456",
	}, nil)

	u, err := url.Parse(o.AuthCodeURL())
	require.NoError(t, err)

	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "oauth.onshape.com", u.Host)
	assert.Equal(t, "/oauth/authorize", u.Path)
	assert.Equal(t, url.Values{
		"response_type": {"code"},
		"client_id":     {"client-123"},
	}, u.Query())
}

func TestAuthCodeURL_WithRedirectURL(t *testing.T) {
	o := onshape.NewOAuth(onshape.OAuthConfig{
		BaseURL:     "https://oauth.onshape.com",
		ClientID:    "client-123",
		RedirectURL: "https://app.example.com/oauthRedirect/",
	}, nil)

	u, err := url.Parse(o.AuthCodeURL())
	require.NoError(t, err)
	assert.Equal(t, "https://app.example.com/oauthRedirect/", u.Query().Get("redirect_uri"))
}

func TestExchange_Success(t *testing.T) {
	ts := &tokenServer{
		status: http.StatusOK,
		body:   `{"access_token":"AT","refresh_token":"RT","expires_in":3600,"token_type":"Bearer"}`,
	}
	o := newTestOAuth(t, ts, "")

	before := time.Now()
	tokens, err := o.Exchange(context.Background(), "ABC")

	require.NoError(t, err)
	assert.Equal(t, "AT", tokens.AccessToken)
	assert.Equal(t, "RT", tokens.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), tokens.Expiry, 5*time.Second)

	form := ts.lastForm(t)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "ABC", form.Get("code"))
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Equal(t, "secret-456", form.Get("client_secret"))
}

func TestExchange_UpstreamErrorCarriesBody(t *testing.T) {
	ts := &tokenServer{
		status: http.StatusBadRequest,
		body:   `{"error":"invalid_grant","error_description":"code expired"}`,
	}
	o := newTestOAuth(t, ts, "")

	tokens, err := o.Exchange(context.Background(), "stale")

	assert.Nil(t, tokens)
	var tokenErr *driven.TokenEndpointError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, http.StatusBadRequest, tokenErr.StatusCode)
	assert.Equal(t, ts.body, tokenErr.Body)
}

func TestRefresh_Success(t *testing.T) {
	ts := &tokenServer{
		status: http.StatusOK,
		body:   `{"access_token":"AT2","refresh_token":"RT2","expires_in":60}`,
	}
	o := newTestOAuth(t, ts, "")

	tokens, err := o.Refresh(context.Background(), "RT1")

	require.NoError(t, err)
	assert.Equal(t, "AT2", tokens.AccessToken)
	assert.Equal(t, "RT2", tokens.RefreshToken)
	assert.False(t, tokens.Expiry.IsZero())

	form := ts.lastForm(t)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "RT1", form.Get("refresh_token"))
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Equal(t, "secret-456", form.Get("client_secret"))
}

func TestRefresh_ServerError(t *testing.T) {
	ts := &tokenServer{status: http.StatusInternalServerError, body: `boom`}
	o := newTestOAuth(t, ts, "")

	tokens, err := o.Refresh(context.Background(), "RT1")

	assert.Nil(t, tokens)
	var tokenErr *driven.TokenEndpointError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, http.StatusInternalServerError, tokenErr.StatusCode)
}

func TestRefresh_MissingAccessTokenInBody(t *testing.T) {
	ts := &tokenServer{status: http.StatusOK, body: `{"refresh_token":"RT2"}`}
	o := newTestOAuth(t, ts, "")

	tokens, err := o.Refresh(context.Background(), "RT1")

	assert.Nil(t, tokens)
	require.Error(t, err)
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	ts := &tokenServer{status: http.StatusOK, body: `{}`}
	o := newTestOAuth(t, ts, "")

	_, err := o.Refresh(context.Background(), "")

	require.Error(t, err)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	assert.Empty(t, ts.forms, "no request should be made without a refresh token")
}

func TestRefresh_MissingExpiresIn(t *testing.T) {
	ts := &tokenServer{status: http.StatusOK, body: `{"access_token":"AT2","refresh_token":"RT2"}`}
	o := newTestOAuth(t, ts, "")

	tokens, err := o.Refresh(context.Background(), "RT1")

	assert.Nil(t, tokens)
	require.ErrorContains(t, err, "expires_in")
}
