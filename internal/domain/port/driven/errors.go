package driven

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

// ErrUnexpectedResponse is returned when a success response does not have the
// expected shape, e.g. an assembly body without rootAssembly.instances.
var ErrUnexpectedResponse = errors.New("unexpected response shape")

// APIError is a non-success HTTP status from the Onshape REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("onshape api returned status %d", e.StatusCode)
}

// Failure classifies the status so that an expired token can be told apart
// from a missing document.
func (e *APIError) Failure() model.FetchFailure {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return model.FetchFailureUnauthorized
	case http.StatusForbidden:
		return model.FetchFailureForbidden
	case http.StatusNotFound:
		return model.FetchFailureNotFound
	default:
		return model.FetchFailureUpstream
	}
}

// TokenEndpointError is a non-success response from the OAuth token endpoint.
// Body is the raw response text.
type TokenEndpointError struct {
	StatusCode int
	Body       string
}

func (e *TokenEndpointError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Body)
}
