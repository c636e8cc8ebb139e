package model

// FetchFailure explains why a document or element fetch produced no data.
type FetchFailure string

const (
	FetchFailureNone               FetchFailure = ""
	FetchFailureNotSignedIn        FetchFailure = "not_signed_in"
	FetchFailureUnauthorized       FetchFailure = "unauthorized"
	FetchFailureForbidden          FetchFailure = "forbidden"
	FetchFailureNotFound           FetchFailure = "not_found"
	FetchFailureUpstream           FetchFailure = "upstream_error"
	FetchFailureUnexpectedResponse FetchFailure = "unexpected_response"
)
