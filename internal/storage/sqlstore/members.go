package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
)

const memberColumns = "id, name, birth_date, email, status, group_id"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	member := &models.Member{}
	var (
		email   sql.NullString
		status  string
		groupID sql.NullInt64
	)
	if err := row.Scan(
		&member.ID,
		&member.Name,
		dateColumn{&member.BirthDate},
		&email,
		&status,
		&groupID,
	); err != nil {
		return nil, err
	}

	member.Status = models.Status(status)
	if email.Valid {
		member.Email = &email.String
	}
	if groupID.Valid {
		member.GroupID = &groupID.Int64
	}
	return member, nil
}

// GetMember retrieves a member by ID.
func (q *queries) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	member, err := scanMember(q.queryRow(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ?",
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers retrieves members matching every set field of filter.
func (q *queries) ListMembers(ctx context.Context, filter storage.MemberFilter) ([]*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members WHERE 1=1"
	var args []any

	if filter.NameContains != "" {
		query += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.NameContains)+"%")
	}
	if filter.GroupID != nil {
		query += " AND group_id = ?"
		args = append(args, *filter.GroupID)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY id"

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []*models.Member{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// CountMembers counts the members of a group.
func (q *queries) CountMembers(ctx context.Context, groupID int64, status *models.Status, excludeID int64) (int, error) {
	query := "SELECT COUNT(*) FROM members WHERE group_id = ?"
	args := []any{groupID}

	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	if excludeID != 0 {
		query += " AND id != ?"
		args = append(args, excludeID)
	}

	var count int
	if err := q.queryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// InsertMember persists a new member and returns its ID.
func (q *queries) InsertMember(ctx context.Context, member *models.Member) (int64, error) {
	var id int64
	err := q.queryRow(ctx,
		`INSERT INTO members (name, birth_date, email, status, group_id)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		member.Name, member.BirthDate.String(), nullString(member.Email),
		string(member.Status), nullInt64(member.GroupID),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert member: %w", err)
	}
	return id, nil
}

// UpdateMember replaces every column of an existing member.
func (q *queries) UpdateMember(ctx context.Context, member *models.Member) (int64, error) {
	res, err := q.exec(ctx,
		`UPDATE members
		 SET name = ?, birth_date = ?, email = ?, status = ?, group_id = ?
		 WHERE id = ?`,
		member.Name, member.BirthDate.String(), nullString(member.Email),
		string(member.Status), nullInt64(member.GroupID), member.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update member: %w", err)
	}
	return rowsAffected(res)
}

// AssignMember moves a member into a group and activates it.
func (q *queries) AssignMember(ctx context.Context, memberID, groupID int64) (int64, error) {
	res, err := q.exec(ctx,
		"UPDATE members SET group_id = ?, status = ? WHERE id = ?",
		groupID, string(models.StatusActive), memberID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to assign member: %w", err)
	}
	return rowsAffected(res)
}

// DeleteMember removes a member by ID.
func (q *queries) DeleteMember(ctx context.Context, id int64) (int64, error) {
	res, err := q.exec(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete member: %w", err)
	}
	return rowsAffected(res)
}

// dateColumn scans DATE and TEXT columns into a civil.Date.
// PostgreSQL drivers return time.Time, SQLite TEXT columns return strings.
type dateColumn struct {
	dst *civil.Date
}

func (c dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c.dst = civil.DateOf(v)
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("unsupported birth_date type %T", src)
	}
}

func (c dateColumn) parse(s string) error {
	// Tolerate timestamps written by other tools; only the date part matters.
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid birth_date %q: %w", s, err)
	}
	*c.dst = d
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt64(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
