package ads

import "time"

// Status describes the lifecycle position of an advertisement.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusExpired   Status = "expired"
)

// Advertisement is a classified listing owned by a user.
type Advertisement struct {
	ID          int64
	OwnerID     int64
	CategoryID  int64
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	Status      Status
	Attributes  map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
	ExpiresAt   *time.Time
}

// Draft holds the caller-supplied fields of a new or updated advertisement.
type Draft struct {
	CategoryID  int64
	Title       string
	Description string
	PriceCents  int64
	Currency    string
	Attributes  map[string]string
}

// ListFilter narrows published listings. Plain equality filters only; search
// and ranking live elsewhere.
type ListFilter struct {
	CategoryID int64
	OwnerID    int64
	Page       int
	PerPage    int
}
