// Package onshape implements the OnshapeClient and OAuthProvider ports against
// the Onshape REST API and its OAuth2 authorization server.
package onshape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
	"github.com/ericfisherdev/onshapeapp/internal/domain/port/driven"
)

// acceptHeader pins the API response version. Onshape matches it exactly.
const acceptHeader = "application/vnd.onshape.v2+json;charset=UTF-8;qs=0.09"

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 4 << 10

// Compile-time interface satisfaction check.
var _ driven.OnshapeClient = (*Client)(nil)

// Client implements the driven.OnshapeClient port with plain authenticated GETs.
type Client struct {
	http           *http.Client
	sessionInfoURL string
	logger         *slog.Logger
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
// Request deadlines come from httpClient's Timeout and the caller's context.
func NewClient(httpClient *http.Client, sessionInfoURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:           httpClient,
		sessionInfoURL: sessionInfoURL,
		logger:         logger,
	}
}

// documentJSON is the subset of GET /api/documents/{did} that is mapped.
type documentJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	CreatedAt   string `json:"createdAt"`
	ModifiedAt  string `json:"modifiedAt"`
	Owner       struct {
		Name string `json:"name"`
	} `json:"owner"`
}

type partJSON struct {
	PartID   string `json:"partId"`
	Name     string `json:"name"`
	BodyType string `json:"bodyType"`
	State    string `json:"state"`
}

type assemblyJSON struct {
	RootAssembly *struct {
		Instances *[]instanceJSON `json:"instances"`
	} `json:"rootAssembly"`
}

type instanceJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	PartID     string `json:"partId"`
	DocumentID string `json:"documentId"`
	ElementID  string `json:"elementId"`
	Suppressed bool   `json:"suppressed"`
}

type sessionInfoJSON struct {
	ID string `json:"id"`
}

// FetchDocumentInfo issues GET {domain}/api/documents/{documentID}.
func (c *Client) FetchDocumentInfo(ctx context.Context, domain, documentID, token string) (*model.DocumentInfo, error) {
	endpoint := strings.TrimRight(domain, "/") + "/api/documents/" + url.PathEscape(documentID)

	body, err := c.get(ctx, "document", endpoint, token, true)
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", documentID, err)
	}

	var doc documentJSON
	if err := json.Unmarshal(body, &doc); err != nil {
		recordDecodeError("document")
		return nil, fmt.Errorf("decoding document %s: %w: %w", documentID, driven.ErrUnexpectedResponse, err)
	}

	return &model.DocumentInfo{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		OwnerName:   doc.Owner.Name,
		Public:      doc.Public,
		CreatedAt:   parseAPITime(doc.CreatedAt),
		ModifiedAt:  parseAPITime(doc.ModifiedAt),
	}, nil
}

// FetchElementInfo issues GET {domain}/api/{elementType}/d/{did}/{wvm}/{wvmid}/e/{eid}.
// Parts responses are returned whole; every other kind is unwrapped to
// rootAssembly.instances, failing with driven.ErrUnexpectedResponse when absent.
func (c *Client) FetchElementInfo(ctx context.Context, domain string, docCtx model.DocumentContext, token string) (model.ElementInfo, error) {
	endpoint := fmt.Sprintf("%s/api/%s/d/%s/%s/%s/e/%s",
		strings.TrimRight(domain, "/"),
		url.PathEscape(string(docCtx.ElementType)),
		url.PathEscape(docCtx.DocumentID),
		url.PathEscape(docCtx.WVM),
		url.PathEscape(docCtx.WVMID),
		url.PathEscape(docCtx.ElementID),
	)

	body, err := c.get(ctx, "element", endpoint, token, true)
	if err != nil {
		return nil, fmt.Errorf("fetching %s element %s: %w", docCtx.ElementType, docCtx.ElementID, err)
	}

	if docCtx.ElementType.IsParts() {
		return decodeParts(body)
	}
	return decodeInstances(body)
}

// FetchSessionInfo resolves the user that owns token.
func (c *Client) FetchSessionInfo(ctx context.Context, token string) (*model.SessionInfo, error) {
	body, err := c.get(ctx, "sessioninfo", c.sessionInfoURL, token, false)
	if err != nil {
		return nil, fmt.Errorf("fetching session info: %w", err)
	}

	var info sessionInfoJSON
	if err := json.Unmarshal(body, &info); err != nil {
		recordDecodeError("sessioninfo")
		return nil, fmt.Errorf("decoding session info: %w: %w", driven.ErrUnexpectedResponse, err)
	}
	if info.ID == "" {
		recordDecodeError("sessioninfo")
		return nil, fmt.Errorf("session info has no id: %w", driven.ErrUnexpectedResponse)
	}

	return &model.SessionInfo{ID: info.ID}, nil
}

// get performs an authenticated GET and returns the body of a 2xx response.
// Non-2xx responses become *driven.APIError. The session-info call sends the
// bearer header only; API calls add the versioned Accept and JSON content type.
func (c *Client) get(ctx context.Context, endpointName, endpoint, token string, versioned bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	(&oauth2.Token{AccessToken: token}).SetAuthHeader(req)
	if versioned {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", acceptHeader)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		recordAPIRequest(endpointName, outcomeTransportError)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		recordAPIRequest(endpointName, outcomeStatus(resp.StatusCode))
		c.logger.Debug("onshape api request failed",
			"endpoint", endpointName,
			"status", resp.StatusCode,
			"duration", time.Since(start).Round(time.Millisecond),
		)
		return nil, &driven.APIError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		recordAPIRequest(endpointName, outcomeTransportError)
		return nil, fmt.Errorf("reading response: %w", err)
	}

	recordAPIRequest(endpointName, outcomeOK)
	c.logger.Debug("onshape api request",
		"endpoint", endpointName,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return body, nil
}

func decodeParts(body []byte) (model.ElementInfo, error) {
	var parts []partJSON
	if err := json.Unmarshal(body, &parts); err != nil {
		recordDecodeError("element")
		return nil, fmt.Errorf("decoding parts: %w: %w", driven.ErrUnexpectedResponse, err)
	}

	result := model.PartsResult{
		Parts: make([]model.Part, 0, len(parts)),
	}
	for _, p := range parts {
		result.Parts = append(result.Parts, model.Part{
			PartID:   p.PartID,
			Name:     p.Name,
			BodyType: p.BodyType,
			State:    p.State,
		})
	}
	return result, nil
}

func decodeInstances(body []byte) (model.ElementInfo, error) {
	var asm assemblyJSON
	if err := json.Unmarshal(body, &asm); err != nil {
		recordDecodeError("element")
		return nil, fmt.Errorf("decoding assembly: %w: %w", driven.ErrUnexpectedResponse, err)
	}
	if asm.RootAssembly == nil || asm.RootAssembly.Instances == nil {
		recordDecodeError("element")
		return nil, fmt.Errorf("assembly has no rootAssembly.instances: %w", driven.ErrUnexpectedResponse)
	}

	instances := *asm.RootAssembly.Instances
	result := model.InstancesResult{
		Instances: make([]model.AssemblyInstance, 0, len(instances)),
	}
	for _, in := range instances {
		result.Instances = append(result.Instances, model.AssemblyInstance{
			ID:         in.ID,
			Name:       in.Name,
			Type:       in.Type,
			PartID:     in.PartID,
			DocumentID: in.DocumentID,
			ElementID:  in.ElementID,
			Suppressed: in.Suppressed,
		})
	}
	return result, nil
}

// parseAPITime parses Onshape timestamps, returning the zero time for
// missing or unrecognized values.
func parseAPITime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05.000+0000"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
