package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
// When constructed with a key, access and refresh tokens are encrypted with
// AES-256-GCM before write and decrypted after read.
type UserRepo struct {
	db     *DB
	cipher tokenCipher
}

// NewUserRepo creates a new UserRepo. key must be 32 bytes for AES-256-GCM,
// or nil to store tokens unencrypted.
func NewUserRepo(db *DB, key []byte) *UserRepo {
	return &UserRepo{db: db, cipher: tokenCipher{key: key}}
}

// GetByExternalID retrieves the credential for an Onshape user id.
// Returns (nil, nil) if no record exists.
func (r *UserRepo) GetByExternalID(ctx context.Context, externalUserID string) (*model.UserCredential, error) {
	const query = `
		SELECT id, external_user_id, access_token, refresh_token, token_expiry,
		       api_domain, document_id, wvm, wvm_id, element_id, element_type,
		       created_at, updated_at
		FROM onshape_users
		WHERE external_user_id = ?
	`

	var (
		u                         model.UserCredential
		accessToken, refreshToken sql.NullString
		tokenExpiry               sql.NullString
		elementType               string
		createdAt, updatedAt      string
	)

	err := r.db.Reader.QueryRowContext(ctx, query, externalUserID).Scan(
		&u.ID, &u.ExternalUserID, &accessToken, &refreshToken, &tokenExpiry,
		&u.APIDomain, &u.Context.DocumentID, &u.Context.WVM, &u.Context.WVMID,
		&u.Context.ElementID, &elementType, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", externalUserID, err)
	}
	u.Context.ElementType = model.ElementKind(elementType)

	if u.AccessToken, err = r.cipher.open(accessToken.String); err != nil {
		return nil, fmt.Errorf("decrypt access token for %s: %w", externalUserID, err)
	}
	if u.RefreshToken, err = r.cipher.open(refreshToken.String); err != nil {
		return nil, fmt.Errorf("decrypt refresh token for %s: %w", externalUserID, err)
	}

	if u.TokenExpiry, err = parseNullableTime(tokenExpiry); err != nil {
		return nil, fmt.Errorf("parse token_expiry for %s: %w", externalUserID, err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for %s: %w", externalUserID, err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for %s: %w", externalUserID, err)
	}

	return &u, nil
}

// Save inserts or updates the credential keyed by external_user_id. On
// conflict every mutable column is replaced and updated_at is refreshed;
// external_user_id and created_at are never rewritten.
func (r *UserRepo) Save(ctx context.Context, user *model.UserCredential) error {
	if user.ExternalUserID == "" {
		return errors.New("save user: external user id is empty")
	}

	accessToken, err := r.cipher.seal(user.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token for %s: %w", user.ExternalUserID, err)
	}
	refreshToken, err := r.cipher.seal(user.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token for %s: %w", user.ExternalUserID, err)
	}

	const query = `
		INSERT INTO onshape_users (
			external_user_id, access_token, refresh_token, token_expiry,
			api_domain, document_id, wvm, wvm_id, element_id, element_type
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_user_id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry  = excluded.token_expiry,
			api_domain    = excluded.api_domain,
			document_id   = excluded.document_id,
			wvm           = excluded.wvm,
			wvm_id        = excluded.wvm_id,
			element_id    = excluded.element_id,
			element_type  = excluded.element_type,
			updated_at    = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at
	`

	var createdAt, updatedAt string
	err = r.db.Writer.QueryRowContext(ctx, query,
		user.ExternalUserID,
		nullIfEmpty(accessToken),
		nullIfEmpty(refreshToken),
		formatNullableTime(user.TokenExpiry),
		user.APIDomain,
		user.Context.DocumentID,
		user.Context.WVM,
		user.Context.WVMID,
		user.Context.ElementID,
		string(user.Context.ElementType),
	).Scan(&user.ID, &createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("save user %s: %w", user.ExternalUserID, err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parse created_at for %s: %w", user.ExternalUserID, err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return fmt.Errorf("parse updated_at for %s: %w", user.ExternalUserID, err)
	}

	return nil
}

// Ping checks both connections.
func (r *UserRepo) Ping(ctx context.Context) error {
	if err := r.db.Reader.PingContext(ctx); err != nil {
		return fmt.Errorf("ping reader: %w", err)
	}
	if err := r.db.Writer.PingContext(ctx); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
