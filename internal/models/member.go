package models

import "cloud.google.com/go/civil"

// Status is the enrollment status of a member.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Member represents a student record.
type Member struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// Name is the member's full name, 3 to 80 characters.
	Name string `json:"name"`

	// BirthDate is a calendar date without time zone.
	BirthDate civil.Date `json:"birth_date"`

	// Email is optional; nil means no address on file.
	Email *string `json:"email"`

	// Status is either StatusActive or StatusInactive.
	// Only active members occupy a seat in their group.
	Status Status `json:"status"`

	// GroupID references the group the member is enrolled in.
	// nil means the member is unassigned.
	GroupID *int64 `json:"group_id"`
}

// InGroup reports whether the member is assigned to the given group.
func (m *Member) InGroup(groupID int64) bool {
	return m.GroupID != nil && *m.GroupID == groupID
}
