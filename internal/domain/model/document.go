package model

import "time"

// DocumentInfo is the document metadata shown on the index page.
type DocumentInfo struct {
	ID          string
	Name        string
	Description string
	OwnerName   string
	Public      bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// ElementInfo is the result of an element fetch. It is either a PartsResult
// or an InstancesResult depending on the requested ElementKind.
type ElementInfo interface {
	elementInfo()
}

// PartsResult holds the parts listed in a part studio element.
type PartsResult struct {
	Parts []Part
}

// InstancesResult holds the root assembly instances of an assembly element.
type InstancesResult struct {
	Instances []AssemblyInstance
}

func (PartsResult) elementInfo()     {}
func (InstancesResult) elementInfo() {}

// Part is a single part in a part studio.
type Part struct {
	PartID   string
	Name     string
	BodyType string
	State    string
}

// AssemblyInstance is a single instance in an assembly's root.
type AssemblyInstance struct {
	ID         string
	Name       string
	Type       string
	PartID     string
	DocumentID string
	ElementID  string
	Suppressed bool
}
