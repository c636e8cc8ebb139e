package model

// WVM values address a document revision: workspace, version or microversion.
const (
	WVMWorkspace    = "w"
	WVMVersion      = "v"
	WVMMicroversion = "m"
)

// ElementKind is the API path segment naming an element type, e.g. "parts"
// or "assemblies".
type ElementKind string

const (
	ElementKindParts      ElementKind = "parts"
	ElementKindAssemblies ElementKind = "assemblies"
)

// IsParts reports whether responses for this kind are returned unwrapped.
// Every other kind is treated as assembly-like.
func (k ElementKind) IsParts() bool {
	return k == ElementKindParts
}

// DocumentContext identifies the document element a user was viewing when
// Onshape launched the app. All fields are written together.
type DocumentContext struct {
	DocumentID  string
	WVM         string
	WVMID       string
	ElementID   string
	ElementType ElementKind
}
