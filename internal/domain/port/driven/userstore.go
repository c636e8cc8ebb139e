package driven

import (
	"context"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

// UserStore defines the driven port for UserCredential persistence.
// Token values cross this boundary as plaintext; any encryption at rest is
// the adapter's concern.
type UserStore interface {
	// GetByExternalID returns the credential for the given Onshape user id.
	// Returns (nil, nil) if no record exists.
	GetByExternalID(ctx context.Context, externalUserID string) (*model.UserCredential, error)

	// Save inserts the credential or updates the existing row with the same
	// ExternalUserID. On success ID, CreatedAt and UpdatedAt are populated
	// on the passed value.
	Save(ctx context.Context, user *model.UserCredential) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
