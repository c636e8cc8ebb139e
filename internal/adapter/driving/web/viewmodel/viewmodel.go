// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// IndexViewModel holds everything the index page renders for one user.
type IndexViewModel struct {
	UserID string
	// OnshapeURL links back to the element in Onshape. Empty when the stored
	// context is incomplete.
	OnshapeURL string
	// Revision names the workspace, version or microversion the app was
	// opened from, e.g. "Workspace 3f2a...".
	Revision string

	Document       *DocumentViewModel
	DocumentNotice string

	Parts         []PartViewModel
	Instances     []InstanceViewModel
	ElementNotice string
}

// HasElement reports whether element data was loaded.
func (v IndexViewModel) HasElement() bool {
	return v.ElementNotice == ""
}

// DocumentViewModel holds presentation-ready document metadata.
type DocumentViewModel struct {
	ID              string
	Name            string
	Owner           string
	DescriptionHTML string
	Visibility      string
	CreatedAt       string
	ModifiedAt      string
}

// PartViewModel is one row of the parts table.
type PartViewModel struct {
	PartID   string
	Name     string
	BodyType string
	State    string
}

// InstanceViewModel is one row of the assembly instances table.
type InstanceViewModel struct {
	ID         string
	Name       string
	Type       string
	Suppressed bool
}
