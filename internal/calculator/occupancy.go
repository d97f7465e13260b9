// Package calculator derives seat usage figures from groups and members.
package calculator

import "github.com/mmynk/classroll/internal/models"

// GroupOccupancy summarizes seat usage for one group.
type GroupOccupancy struct {
	GroupID  int64  `json:"group_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`

	// Available is Capacity minus Active, floored at zero.
	Available int `json:"available"`

	// OverCapacity is true when Active exceeds Capacity, which can only
	// happen after the capacity of a group was lowered.
	OverCapacity bool `json:"over_capacity"`
}

// Summary is the occupancy of every group plus the unassigned members.
type Summary struct {
	Groups     []GroupOccupancy `json:"groups"`
	Unassigned int              `json:"unassigned"`
}

// CalculateOccupancy tallies members per group.
// Groups keep their input order. Members referencing a group missing from
// groups are counted as unassigned.
func CalculateOccupancy(groups []*models.Group, members []*models.Member) Summary {
	index := make(map[int64]int, len(groups))
	summary := Summary{Groups: make([]GroupOccupancy, len(groups))}

	for i, g := range groups {
		index[g.ID] = i
		summary.Groups[i] = GroupOccupancy{
			GroupID:  g.ID,
			Name:     g.Name,
			Capacity: g.Capacity,
		}
	}

	for _, m := range members {
		if m.GroupID == nil {
			summary.Unassigned++
			continue
		}
		i, ok := index[*m.GroupID]
		if !ok {
			summary.Unassigned++
			continue
		}
		if m.Status == models.StatusActive {
			summary.Groups[i].Active++
		} else {
			summary.Groups[i].Inactive++
		}
	}

	for i := range summary.Groups {
		g := &summary.Groups[i]
		g.Available = max(g.Capacity-g.Active, 0)
		g.OverCapacity = g.Active > g.Capacity
	}

	return summary
}
