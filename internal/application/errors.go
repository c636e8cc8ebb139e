package application

import "errors"

var (
	// ErrMissingUserID is returned by SignIn when no user id was supplied.
	ErrMissingUserID = errors.New("missing userId parameter")

	// ErrMissingCode is returned by HandleCallback when no authorization code was supplied.
	ErrMissingCode = errors.New("no authorization code received")

	// ErrUserNotFound is returned when no credential exists for the requested user.
	ErrUserNotFound = errors.New("user not found")

	// ErrOrphanedCallback is returned by HandleCallback when the authorization
	// server identified a user that never started sign-in on this app.
	ErrOrphanedCallback = errors.New("oauth callback for a user that never signed in")
)
