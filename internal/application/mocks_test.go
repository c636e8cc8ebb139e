package application_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mock implementations ---

// mockUserStore is an in-memory UserStore keyed by external id. It stores
// copies so tests observe only what was saved.
type mockUserStore struct {
	users   map[string]model.UserCredential
	saves   int
	getErr  error
	saveErr error
}

func newMockUserStore(users ...model.UserCredential) *mockUserStore {
	m := &mockUserStore{users: map[string]model.UserCredential{}}
	for _, u := range users {
		m.users[u.ExternalUserID] = u
	}
	return m
}

func (m *mockUserStore) GetByExternalID(_ context.Context, id string) (*model.UserCredential, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockUserStore) Save(_ context.Context, user *model.UserCredential) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.users[user.ExternalUserID] = *user
	return nil
}

func (m *mockUserStore) Ping(_ context.Context) error { return nil }

func (m *mockUserStore) get(id string) (model.UserCredential, bool) {
	u, ok := m.users[id]
	return u, ok
}

type mockOAuthProvider struct {
	authURL       string
	exchangeCodes []string
	exchangeToks  *model.TokenSet
	exchangeErr   error
	refreshTokens []string
	refreshToks   *model.TokenSet
	refreshErr    error
}

func (m *mockOAuthProvider) AuthCodeURL() string { return m.authURL }

func (m *mockOAuthProvider) Exchange(_ context.Context, code string) (*model.TokenSet, error) {
	m.exchangeCodes = append(m.exchangeCodes, code)
	return m.exchangeToks, m.exchangeErr
}

func (m *mockOAuthProvider) Refresh(_ context.Context, refreshToken string) (*model.TokenSet, error) {
	m.refreshTokens = append(m.refreshTokens, refreshToken)
	return m.refreshToks, m.refreshErr
}

type mockOnshapeClient struct {
	doc        *model.DocumentInfo
	docErr     error
	element    model.ElementInfo
	elementErr error
	session    *model.SessionInfo
	sessionErr error

	docCalls     int
	elementCalls int
	lastToken    string
	lastDomain   string
	lastContext  model.DocumentContext
	sessionToken string
}

func (m *mockOnshapeClient) FetchDocumentInfo(_ context.Context, domain, _ string, token string) (*model.DocumentInfo, error) {
	m.docCalls++
	m.lastDomain = domain
	m.lastToken = token
	return m.doc, m.docErr
}

func (m *mockOnshapeClient) FetchElementInfo(_ context.Context, domain string, docCtx model.DocumentContext, token string) (model.ElementInfo, error) {
	m.elementCalls++
	m.lastDomain = domain
	m.lastContext = docCtx
	m.lastToken = token
	return m.element, m.elementErr
}

func (m *mockOnshapeClient) FetchSessionInfo(_ context.Context, token string) (*model.SessionInfo, error) {
	m.sessionToken = token
	return m.session, m.sessionErr
}
