package model

import "time"

// UserCredential is the stored OAuth state for one Onshape user together with
// the document context they last launched the app from. ExternalUserID is the
// id issued by Onshape and never changes once the record exists.
type UserCredential struct {
	ID             int64
	ExternalUserID string
	AccessToken    string
	RefreshToken   string
	TokenExpiry    *time.Time
	APIDomain      string
	Context        DocumentContext
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasTokens reports whether the user has completed the OAuth exchange at least once.
func (u *UserCredential) HasTokens() bool {
	return u.AccessToken != ""
}

// ApplyTokens overwrites the token fields from a freshly issued token set.
// A zero Expiry leaves TokenExpiry untouched.
func (u *UserCredential) ApplyTokens(tokens TokenSet) {
	u.AccessToken = tokens.AccessToken
	u.RefreshToken = tokens.RefreshToken
	if !tokens.Expiry.IsZero() {
		expiry := tokens.Expiry
		u.TokenExpiry = &expiry
	}
}

// TokenSet is the result of an authorization-code exchange or a refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// SessionInfo is the subset of the Onshape session-info response the app uses.
type SessionInfo struct {
	ID string
}
