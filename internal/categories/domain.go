package categories

import "time"

// Category is a node in the listing taxonomy. Root categories have a nil
// ParentID.
type Category struct {
	ID        int64
	ParentID  *int64
	Name      string
	Slug      string
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttributeKind enumerates the value types an attribute definition accepts.
type AttributeKind string

const (
	AttributeText   AttributeKind = "text"
	AttributeNumber AttributeKind = "number"
	AttributeBool   AttributeKind = "bool"
	AttributeEnum   AttributeKind = "enum"
)

// AttributeDefinition describes one structured field that listings in a
// category may carry, e.g. mileage for vehicles.
type AttributeDefinition struct {
	ID         int64
	CategoryID int64
	Name       string
	Kind       AttributeKind
	Required   bool
	Options    []string
}

// Draft carries caller-supplied category fields.
type Draft struct {
	ParentID  *int64
	Name      string
	SortOrder int
}
