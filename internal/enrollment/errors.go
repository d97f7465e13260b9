package enrollment

import (
	"fmt"
	"strings"
)

// ValidationError reports a single field that failed a rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failed field of one input.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of the failed fields in report order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fields
}

// Has reports whether field is among the failures.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Resource names used in NotFoundError.
const (
	ResourceGroup  = "group"
	ResourceMember = "member"
)

// NotFoundError reports a referenced group or member that does not exist.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// CapacityExceededError is returned when admitting a member would push a
// group's occupancy past its capacity.
type CapacityExceededError struct {
	GroupID  int64
	Group    string
	Capacity int
	Count    int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("group %s is full: capacity %d, enrolled %d", e.Group, e.Capacity, e.Count)
}
