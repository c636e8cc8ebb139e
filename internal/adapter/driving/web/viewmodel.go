package web

import (
	"net/url"
	"strings"
	"time"

	vm "github.com/ericfisherdev/onshapeapp/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/onshapeapp/internal/application"
	"github.com/ericfisherdev/onshapeapp/internal/domain/model"
)

const dateLayout = "Jan 2, 2006 15:04 MST"

var failureNotices = map[model.FetchFailure]string{
	model.FetchFailureNotSignedIn:        "Sign in from Onshape to load this data.",
	model.FetchFailureUnauthorized:       "Onshape rejected the stored access token. Reopen the app from Onshape to sign in again.",
	model.FetchFailureForbidden:          "You do not have access to this document.",
	model.FetchFailureNotFound:           "Onshape could not find this document or element.",
	model.FetchFailureUpstream:           "Onshape returned an error. Try again later.",
	model.FetchFailureUnexpectedResponse: "Onshape returned data in an unexpected format.",
}

// failureNotice returns the user-facing text for a fetch failure.
func failureNotice(f model.FetchFailure) string {
	if notice, ok := failureNotices[f]; ok {
		return notice
	}
	return "No data available."
}

// toIndexViewModel converts the application's IndexPage into the view model.
func toIndexViewModel(page *application.IndexPage) vm.IndexViewModel {
	v := vm.IndexViewModel{
		UserID:     page.User.ExternalUserID,
		OnshapeURL: onshapeElementURL(page.User),
		Revision:   revisionLabel(page.User.Context),
	}

	if page.Document != nil {
		v.Document = toDocumentViewModel(page.Document)
	} else {
		v.DocumentNotice = failureNotice(page.DocumentFailure)
	}

	switch el := page.Element.(type) {
	case model.PartsResult:
		v.Parts = make([]vm.PartViewModel, 0, len(el.Parts))
		for _, p := range el.Parts {
			v.Parts = append(v.Parts, vm.PartViewModel{
				PartID:   p.PartID,
				Name:     p.Name,
				BodyType: p.BodyType,
				State:    p.State,
			})
		}
	case model.InstancesResult:
		v.Instances = make([]vm.InstanceViewModel, 0, len(el.Instances))
		for _, inst := range el.Instances {
			v.Instances = append(v.Instances, vm.InstanceViewModel{
				ID:         inst.ID,
				Name:       inst.Name,
				Type:       inst.Type,
				Suppressed: inst.Suppressed,
			})
		}
	default:
		v.ElementNotice = failureNotice(page.ElementFailure)
	}

	return v
}

func toDocumentViewModel(doc *model.DocumentInfo) *vm.DocumentViewModel {
	visibility := "Private"
	if doc.Public {
		visibility = "Public"
	}
	return &vm.DocumentViewModel{
		ID:              doc.ID,
		Name:            doc.Name,
		Owner:           doc.OwnerName,
		DescriptionHTML: RenderMarkdown(doc.Description),
		Visibility:      visibility,
		CreatedAt:       formatDate(doc.CreatedAt),
		ModifiedAt:      formatDate(doc.ModifiedAt),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// onshapeElementURL builds the Onshape UI link for the stored context, e.g.
// https://cad.onshape.com/documents/{did}/w/{wid}/e/{eid}.
func onshapeElementURL(user *model.UserCredential) string {
	c := user.Context
	if user.APIDomain == "" || c.DocumentID == "" || c.WVM == "" || c.WVMID == "" || c.ElementID == "" {
		return ""
	}
	return strings.TrimSuffix(user.APIDomain, "/") +
		"/documents/" + url.PathEscape(c.DocumentID) +
		"/" + url.PathEscape(c.WVM) +
		"/" + url.PathEscape(c.WVMID) +
		"/e/" + url.PathEscape(c.ElementID)
}

var revisionKinds = map[string]string{
	model.WVMWorkspace:    "Workspace",
	model.WVMVersion:      "Version",
	model.WVMMicroversion: "Microversion",
}

// revisionLabel describes the stored wvm/wvmid pair, or "" when either part
// is missing or the kind is not one Onshape issues.
func revisionLabel(c model.DocumentContext) string {
	kind, ok := revisionKinds[c.WVM]
	if !ok || c.WVMID == "" {
		return ""
	}
	return kind + " " + c.WVMID
}
