package users

import "time"

// User represents a user account for management.
type User struct {
	ID          int64
	Email       string
	DisplayName string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile carries the self-editable fields of an account.
type Profile struct {
	DisplayName string
}

// ListFilter narrows an account listing.
type ListFilter struct {
	Query   string
	Page    int
	PerPage int
}
