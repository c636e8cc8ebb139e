package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// IndexPage is everything the index view needs. Document and Element are nil
// when the corresponding fetch produced no data; the matching Failure field
// says why.
type IndexPage struct {
	User            *model.UserCredential
	Document        *model.DocumentInfo
	DocumentFailure model.FetchFailure
	Element         model.ElementInfo
	ElementFailure  model.FetchFailure
}

// IndexService loads a user and the Onshape data for their current document
// context.
type IndexService struct {
	users  driven.UserStore
	api    driven.OnshapeClient
	logger *slog.Logger
}

// NewIndexService creates a new IndexService with the required dependencies.
func NewIndexService(users driven.UserStore, api driven.OnshapeClient, logger *slog.Logger) *IndexService {
	return &IndexService{
		users:  users,
		api:    api,
		logger: logger,
	}
}

// Show returns the page data for a user, or ErrUserNotFound. Upstream status
// failures and unexpected response shapes are absorbed into absent data with
// a FetchFailure reason. Transport errors are returned.
func (s *IndexService) Show(ctx context.Context, externalUserID string) (*IndexPage, error) {
	user, err := s.users.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return nil, fmt.Errorf("look up user %s: %w", externalUserID, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	page := &IndexPage{User: user}
	if !user.HasTokens() {
		page.DocumentFailure = model.FetchFailureNotSignedIn
		page.ElementFailure = model.FetchFailureNotSignedIn
		return page, nil
	}

	doc, err := s.api.FetchDocumentInfo(ctx, user.APIDomain, user.Context.DocumentID, user.AccessToken)
	if failure, absorbed := classifyFetchError(err); absorbed {
		page.DocumentFailure = failure
		s.logFetchFailure("document", user, failure, err)
	} else if err != nil {
		return nil, err
	} else {
		page.Document = doc
	}

	element, err := s.api.FetchElementInfo(ctx, user.APIDomain, user.Context, user.AccessToken)
	if failure, absorbed := classifyFetchError(err); absorbed {
		page.ElementFailure = failure
		s.logFetchFailure("element", user, failure, err)
	} else if err != nil {
		return nil, err
	} else {
		page.Element = element
	}

	return page, nil
}

func (s *IndexService) logFetchFailure(what string, user *model.UserCredential, failure model.FetchFailure, err error) {
	s.logger.Warn("onshape fetch returned no data",
		"what", what,
		"user_id", user.ExternalUserID,
		"reason", string(failure),
		"error", err,
	)
}

// classifyFetchError maps an API error to a FetchFailure. absorbed is false
// for nil errors and for errors that did not come from an upstream response.
func classifyFetchError(err error) (failure model.FetchFailure, absorbed bool) {
	if err == nil {
		return model.FetchFailureNone, false
	}

	var apiErr *driven.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Failure(), true
	}
	if errors.Is(err, driven.ErrUnexpectedResponse) {
		return model.FetchFailureUnexpectedResponse, true
	}
	return model.FetchFailureNone, false
}
