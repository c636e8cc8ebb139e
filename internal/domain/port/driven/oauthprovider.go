package driven

import (
	"context"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

// OAuthProvider defines the driven port for the authorization server.
// Non-success token responses are reported as *TokenEndpointError.
type OAuthProvider interface {
	// AuthCodeURL returns the authorization endpoint URL the browser is sent to.
	AuthCodeURL() string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*model.TokenSet, error)

	// Refresh trades a refresh token for a new token set.
	Refresh(ctx context.Context, refreshToken string) (*model.TokenSet, error)
}
