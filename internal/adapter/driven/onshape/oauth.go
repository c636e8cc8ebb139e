package onshape

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OAuthProvider = (*OAuth)(nil)

// OAuthConfig describes the authorization server and the registered client.
type OAuthConfig struct {
	BaseURL      string // e.g. https://oauth.onshape.com
	ClientID     string
	ClientSecret string
	RedirectURL  string // optional; sent as redirect_uri when set
}

// OAuth implements driven.OAuthProvider using golang.org/x/oauth2. Client
// credentials are sent in the form body, as Onshape expects.
type OAuth struct {
	cfg        oauth2.Config
	httpClient *http.Client
}

// NewOAuth creates an OAuth provider. A nil httpClient uses the oauth2
// package default.
func NewOAuth(cfg OAuthConfig, httpClient *http.Client) *OAuth {
	return &OAuth{
		cfg: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.BaseURL + "/oauth/authorize",
				TokenURL:  cfg.BaseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}
}

// AuthCodeURL returns {BaseURL}/oauth/authorize with response_type=code and
// the client id. No state parameter is added.
func (o *OAuth) AuthCodeURL() string {
	return o.cfg.AuthCodeURL("")
}

// Exchange posts grant_type=authorization_code to the token endpoint.
func (o *OAuth) Exchange(ctx context.Context, code string) (*model.TokenSet, error) {
	tok, err := o.cfg.Exchange(o.context(ctx), code)
	if err != nil {
		recordTokenRequest("authorization_code", tokenOutcome(err))
		return nil, fmt.Errorf("exchanging authorization code: %w", mapTokenError(err))
	}
	recordTokenRequest("authorization_code", outcomeOK)
	return toTokenSet(tok), nil
}

// Refresh posts grant_type=refresh_token to the token endpoint. When the
// response omits refresh_token the previous one is kept. A response without
// expires_in is rejected so a stale expiry is never carried forward.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*model.TokenSet, error) {
	if refreshToken == "" {
		recordTokenRequest("refresh_token", "no_refresh_token")
		return nil, errors.New("refreshing token: no refresh token stored")
	}

	// An empty access token is never valid, so Token() always hits the endpoint.
	src := o.cfg.TokenSource(o.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		recordTokenRequest("refresh_token", tokenOutcome(err))
		return nil, fmt.Errorf("refreshing token: %w", mapTokenError(err))
	}
	if tok.Expiry.IsZero() {
		recordTokenRequest("refresh_token", "missing_expires_in")
		return nil, errors.New("refreshing token: response has no expires_in")
	}
	recordTokenRequest("refresh_token", outcomeOK)
	return toTokenSet(tok), nil
}

func (o *OAuth) context(ctx context.Context) context.Context {
	if o.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
}

func toTokenSet(tok *oauth2.Token) *model.TokenSet {
	return &model.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}

// mapTokenError converts an oauth2.RetrieveError into a TokenEndpointError
// carrying the raw response text. Other errors are returned unchanged.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return err
	}
	status := 0
	if retrieveErr.Response != nil {
		status = retrieveErr.Response.StatusCode
	}
	return &driven.TokenEndpointError{StatusCode: status, Body: string(retrieveErr.Body)}
}

func tokenOutcome(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return outcomeStatus(retrieveErr.Response.StatusCode)
	}
	return "error"
}
