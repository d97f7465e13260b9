package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
)

// CountMode selects which members occupy a seat when checking capacity.
type CountMode int

const (
	// CountActive counts only members with StatusActive.
	CountActive CountMode = iota

	// CountAll counts every member assigned to the group regardless of
	// status. Older deployments used it for the enrollment endpoint.
	CountAll
)

func (m CountMode) String() string {
	switch m {
	case CountActive:
		return "active"
	case CountAll:
		return "all"
	default:
		return fmt.Sprintf("CountMode(%d)", int(m))
	}
}

// Occupancy returns how many members currently hold a seat in groupID
// under mode, leaving excludeID (if non-zero) out of the count.
func Occupancy(ctx context.Context, q storage.Queries, groupID, excludeID int64, mode CountMode) (int, error) {
	var status *models.Status
	if mode == CountActive {
		active := models.StatusActive
		status = &active
	}
	return q.CountMembers(ctx, groupID, status, excludeID)
}

// CanAdmit decides whether one more member fits in groupID.
//
// It returns the group on success, a *NotFoundError if the group does not
// exist and a *CapacityExceededError if the group is already at or above
// capacity. excludeID lets an update skip the member being edited so it is
// not counted against itself.
func CanAdmit(ctx context.Context, q storage.Queries, groupID, excludeID int64, mode CountMode) (*models.Group, error) {
	group, err := q.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: ResourceGroup, ID: groupID}
	}
	if err != nil {
		return nil, err
	}

	count, err := Occupancy(ctx, q, groupID, excludeID, mode)
	if err != nil {
		return nil, err
	}

	if count >= group.Capacity {
		return nil, &CapacityExceededError{
			GroupID:  group.ID,
			Group:    group.Name,
			Capacity: group.Capacity,
			Count:    count,
		}
	}
	return group, nil
}
