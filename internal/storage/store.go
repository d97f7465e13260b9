// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/classroll/internal/models"
)

// ErrNotFound is returned by lookups when no row matches the given ID.
var ErrNotFound = errors.New("record not found")

// MemberFilter narrows ListMembers. Zero-valued fields are ignored and
// the remaining ones are combined with AND.
type MemberFilter struct {
	// NameContains matches members whose name contains the substring.
	// Case sensitivity follows the backend's LIKE semantics.
	NameContains string

	GroupID *int64
	Status  *models.Status
}

// Queries is the set of record operations the enrollment core consumes.
// It is implemented both by the store itself and by the handle passed to
// InTx, so the same code runs inside and outside a transaction.
type Queries interface {
	// GetGroup returns ErrNotFound if no group has the given ID.
	GetGroup(ctx context.Context, id int64) (*models.Group, error)

	// ListGroups returns every group ordered by ID.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// InsertGroup persists a new group and returns the assigned ID.
	InsertGroup(ctx context.Context, group *models.Group) (int64, error)

	// DeleteGroup removes a group. Members referencing it become unassigned.
	DeleteGroup(ctx context.Context, id int64) (int64, error)

	// CountMembers counts members whose group_id equals groupID. When status
	// is non-nil only members with that status are counted. A non-zero
	// excludeID leaves that member out of the count.
	CountMembers(ctx context.Context, groupID int64, status *models.Status, excludeID int64) (int, error)

	// GetMember returns ErrNotFound if no member has the given ID.
	GetMember(ctx context.Context, id int64) (*models.Member, error)

	// ListMembers returns the members matching filter ordered by ID.
	ListMembers(ctx context.Context, filter MemberFilter) ([]*models.Member, error)

	// InsertMember persists a new member and returns the assigned ID.
	InsertMember(ctx context.Context, member *models.Member) (int64, error)

	// UpdateMember overwrites every field of the member identified by
	// member.ID and reports the number of rows affected.
	UpdateMember(ctx context.Context, member *models.Member) (int64, error)

	// AssignMember sets the member's group and marks it active.
	AssignMember(ctx context.Context, memberID, groupID int64) (int64, error)

	// DeleteMember removes a member and reports the number of rows affected.
	DeleteMember(ctx context.Context, id int64) (int64, error)
}

// Store defines the interface for enrollment storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	Queries

	// InTx runs fn inside a single transaction. The transaction commits if
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(q Queries) error) error

	// Reset drops and recreates the schema, deleting all data.
	// It is never called implicitly.
	Reset(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
