package models

// LookupItem is a department or position offered to the creation form.
type LookupItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LookupKind names a lookup list.
type LookupKind string

const (
	LookupDepartments LookupKind = "department"
	LookupPositions   LookupKind = "position"
)

// Option is a select entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
