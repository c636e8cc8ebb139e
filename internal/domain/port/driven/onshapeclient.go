package driven

import (
	"context"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

// OnshapeClient defines the driven port for read calls against the Onshape
// REST API. Non-success responses are reported as *APIError.
type OnshapeClient interface {
	// FetchDocumentInfo returns metadata for a document.
	FetchDocumentInfo(ctx context.Context, domain, documentID, token string) (*model.DocumentInfo, error)

	// FetchElementInfo returns the parts (for ElementKindParts) or the root
	// assembly instances (for every other kind) of the element in docCtx.
	FetchElementInfo(ctx context.Context, domain string, docCtx model.DocumentContext, token string) (model.ElementInfo, error)

	// FetchSessionInfo returns the identity of the user owning token.
	FetchSessionInfo(ctx context.Context, token string) (*model.SessionInfo, error)
}
