package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
)

// GetGroup retrieves a group by ID.
func (q *queries) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	group := &models.Group{}
	err := q.queryRow(ctx,
		"SELECT id, name, capacity FROM groups WHERE id = ?",
		id,
	).Scan(&group.ID, &group.Name, &group.Capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroups retrieves all groups.
func (q *queries) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := q.query(ctx, "SELECT id, name, capacity FROM groups ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*models.Group{}
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Capacity); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// InsertGroup persists a new group and returns its ID.
func (q *queries) InsertGroup(ctx context.Context, group *models.Group) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		"INSERT INTO groups (name, capacity) VALUES (?, ?) RETURNING id",
		group.Name, group.Capacity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert group: %w", err)
	}
	return id, nil
}

// DeleteGroup removes a group by ID.
func (q *queries) DeleteGroup(ctx context.Context, id int64) (int64, error) {
	res, err := q.exec(ctx, "DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete group: %w", err)
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
