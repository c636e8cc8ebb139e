package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// RefreshOutcome describes what a refresh attempt did.
type RefreshOutcome string

const (
	RefreshSkipped   RefreshOutcome = "skipped"
	RefreshSucceeded RefreshOutcome = "succeeded"
	RefreshFailed    RefreshOutcome = "failed"
)

// RefreshResult is the typed result of a refresh attempt. Err is set only
// when Outcome is RefreshFailed.
type RefreshResult struct {
	Outcome RefreshOutcome
	Err     error
}

// SignInRequest carries the query parameters Onshape appends when it opens
// the app for a user.
type SignInRequest struct {
	UserID  string
	Server  string
	Context model.DocumentContext
}

// SignInResult tells the caller where to send the browser next.
type SignInResult struct {
	User        *model.UserCredential
	RedirectURL string
	// Authorized is true when the user already holds an access token and the
	// redirect points at the index page instead of the authorization server.
	Authorized bool
	Refresh    RefreshResult
}

// OAuthService drives the authorization-code flow: sign-in, callback
// exchange, and refresh of stored tokens. It depends only on port interfaces.
type OAuthService struct {
	users  driven.UserStore
	oauth  driven.OAuthProvider
	api    driven.OnshapeClient
	logger *slog.Logger
}

// NewOAuthService creates a new OAuthService with the required dependencies.
func NewOAuthService(users driven.UserStore, oauth driven.OAuthProvider, api driven.OnshapeClient, logger *slog.Logger) *OAuthService {
	return &OAuthService{
		users:  users,
		oauth:  oauth,
		api:    api,
		logger: logger,
	}
}

// IndexPath returns the app-relative path of a user's index page.
func IndexPath(externalUserID string) string {
	return "/index/" + url.PathEscape(externalUserID) + "/"
}

// SignIn records the user's current document context and decides whether the
// browser goes straight to the index page or to the authorization server.
// Users that already hold tokens get a best-effort refresh first; a failed
// refresh is logged and never blocks sign-in.
func (s *OAuthService) SignIn(ctx context.Context, req SignInRequest) (*SignInResult, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	user, err := s.users.GetByExternalID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", req.UserID, err)
	}

	refresh := RefreshResult{Outcome: RefreshSkipped}
	if user == nil {
		user = &model.UserCredential{ExternalUserID: req.UserID}
	} else if user.HasTokens() {
		refresh = s.Refresh(ctx, user)
		if refresh.Outcome == RefreshFailed {
			s.logger.Warn("token refresh failed, continuing sign-in",
				"user_id", user.ExternalUserID,
				"error", refresh.Err,
			)
		}
	}

	user.APIDomain = req.Server
	user.Context = req.Context
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %w", req.UserID, err)
	}

	result := &SignInResult{User: user, Refresh: refresh}
	if user.HasTokens() {
		result.Authorized = true
		result.RedirectURL = IndexPath(user.ExternalUserID)
	} else {
		result.RedirectURL = s.oauth.AuthCodeURL()
	}

	s.logger.Info("sign-in",
		"user_id", user.ExternalUserID,
		"authorized", result.Authorized,
		"refresh", string(refresh.Outcome),
	)
	return result, nil
}

// HandleCallback exchanges an authorization code for tokens, resolves the
// owning user through session info, and stores the tokens on that user's
// existing record. The record must have been created by SignIn; otherwise
// ErrOrphanedCallback is returned. A rejected exchange is returned as
// *driven.TokenEndpointError.
func (s *OAuthService) HandleCallback(ctx context.Context, code string) (*model.UserCredential, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	tokens, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	session, err := s.api.FetchSessionInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("resolve session user: %w", err)
	}

	user, err := s.users.GetByExternalID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", session.ID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrOrphanedCallback, session.ID)
	}

	user.ApplyTokens(*tokens)
	if err := s.users.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("save tokens for %s: %w", user.ExternalUserID, err)
	}

	s.logger.Info("oauth exchange complete", "user_id", user.ExternalUserID)
	return user, nil
}

// Refresh trades the user's refresh token for a new token set and persists
// it. On any failure the user's token fields are left as they were and the
// reason is returned in the result.
func (s *OAuthService) Refresh(ctx context.Context, user *model.UserCredential) RefreshResult {
	tokens, err := s.oauth.Refresh(ctx, user.RefreshToken)
	if err != nil {
		return RefreshResult{Outcome: RefreshFailed, Err: err}
	}

	previous := *user
	user.ApplyTokens(*tokens)
	if err := s.users.Save(ctx, user); err != nil {
		user.AccessToken = previous.AccessToken
		user.RefreshToken = previous.RefreshToken
		user.TokenExpiry = previous.TokenExpiry
		return RefreshResult{Outcome: RefreshFailed, Err: fmt.Errorf("save refreshed tokens: %w", err)}
	}

	return RefreshResult{Outcome: RefreshSucceeded}
}
