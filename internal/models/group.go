package models

// Group represents a class that members can be enrolled into.
type Group struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// Name is the display name of the group (e.g., "Turma A").
	Name string `json:"name"`

	// Capacity is the maximum number of concurrently active members.
	Capacity int `json:"capacity"`
}
