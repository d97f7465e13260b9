// Package enrollment holds the rules for putting members into groups:
// field validation, the capacity policy and the operations that combine
// them with store mutations.
package enrollment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/classroll/internal/calculator"
	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
)

// Recorder receives the outcome of every mutating operation.
type Recorder interface {
	RecordOperation(operation, outcome string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used by the age rule.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.validator = NewValidator(now) }
}

// WithAssignCounting sets how AssignMember counts occupancy.
// The default is CountActive, the same as create and update.
func WithAssignCounting(mode CountMode) Option {
	return func(s *Service) { s.assignMode = mode }
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service runs enrollment operations against a store.
type Service struct {
	store      storage.Store
	validator  *Validator
	memberMode CountMode
	assignMode CountMode
	recorder   Recorder
}

// NewService creates a Service with the given storage backend.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		validator:  NewValidator(nil),
		memberMode: CountActive,
		assignMode: CountActive,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMember validates in, checks the target group's capacity and
// persists a new member.
func (s *Service) CreateMember(ctx context.Context, in MemberInput) (member *models.Member, err error) {
	defer func() { s.record("create_member", err) }()

	if err := s.validator.Member(&in); err != nil {
		return nil, err
	}

	member = newMember(0, in)
	err = s.store.InTx(ctx, func(q storage.Queries) error {
		if in.GroupID != nil {
			group, err := CanAdmit(ctx, q, *in.GroupID, 0, s.memberMode)
			if err != nil {
				return err
			}
			slog.Debug("Capacity check passed", "group_id", group.ID, "capacity", group.Capacity)
		}

		id, err := q.InsertMember(ctx, member)
		if err != nil {
			return err
		}
		member.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member created", "member_id", member.ID, "group_id", derefID(member.GroupID))
	return member, nil
}

// UpdateMember replaces every field of member id with in.
// The member is excluded from its own group's count so in-place edits of a
// full group succeed. An inactive member that stays in its group takes no
// seat and skips the capacity check.
func (s *Service) UpdateMember(ctx context.Context, id int64, in MemberInput) (member *models.Member, err error) {
	defer func() { s.record("update_member", err) }()

	if err := s.validator.Member(&in); err != nil {
		return nil, err
	}

	member = newMember(id, in)
	err = s.store.InTx(ctx, func(q storage.Queries) error {
		current, err := q.GetMember(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Resource: ResourceMember, ID: id}
		}
		if err != nil {
			return err
		}

		staysInactive := in.Status == models.StatusInactive && in.GroupID != nil && current.InGroup(*in.GroupID)
		if in.GroupID != nil && !staysInactive {
			if _, err := CanAdmit(ctx, q, *in.GroupID, id, s.memberMode); err != nil {
				return err
			}
		}

		n, err := q.UpdateMember(ctx, member)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Resource: ResourceMember, ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member updated", "member_id", id)
	return member, nil
}

// DeleteMember removes member id. The group it belonged to frees a seat.
func (s *Service) DeleteMember(ctx context.Context, id int64) (err error) {
	defer func() { s.record("delete_member", err) }()

	err = s.store.InTx(ctx, func(q storage.Queries) error {
		n, err := q.DeleteMember(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Resource: ResourceMember, ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Member deleted", "member_id", id)
	return nil
}

// AssignMember enrolls member memberID into group groupID and marks it
// active, whatever its previous status. The member is not excluded from the
// count, so re-assigning an active member to a full group is refused.
func (s *Service) AssignMember(ctx context.Context, memberID, groupID int64) (member *models.Member, err error) {
	defer func() { s.record("assign_member", err) }()

	err = s.store.InTx(ctx, func(q storage.Queries) error {
		if _, err := CanAdmit(ctx, q, groupID, 0, s.assignMode); err != nil {
			return err
		}

		n, err := q.AssignMember(ctx, memberID, groupID)
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{Resource: ResourceMember, ID: memberID}
		}

		member, err = q.GetMember(ctx, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Member assigned", "member_id", memberID, "group_id", groupID, "count_mode", s.assignMode)
	return member, nil
}

// GetMember returns member id.
func (s *Service) GetMember(ctx context.Context, id int64) (*models.Member, error) {
	member, err := s.store.GetMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &NotFoundError{Resource: ResourceMember, ID: id}
	}
	return member, err
}

// ListMembers returns the members matching filter.
func (s *Service) ListMembers(ctx context.Context, filter storage.MemberFilter) ([]*models.Member, error) {
	return s.store.ListMembers(ctx, filter)
}

// CreateGroup validates in and persists a new group.
func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (group *models.Group, err error) {
	defer func() { s.record("create_group", err) }()

	if err := s.validator.Group(&in); err != nil {
		return nil, err
	}

	group = &models.Group{Name: in.Name, Capacity: in.Capacity}
	id, err := s.store.InsertGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	group.ID = id

	slog.Info("Group created", "group_id", group.ID, "capacity", group.Capacity)
	return group, nil
}

// DeleteGroup removes group id. Its members become unassigned.
func (s *Service) DeleteGroup(ctx context.Context, id int64) (err error) {
	defer func() { s.record("delete_group", err) }()

	n, err := s.store.DeleteGroup(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Resource: ResourceGroup, ID: id}
	}

	slog.Info("Group deleted", "group_id", id)
	return nil
}

// ListGroups returns every group.
func (s *Service) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

// OccupancyReport summarizes seat usage for every group. Groups and members
// are read in one transaction so the figures are consistent.
func (s *Service) OccupancyReport(ctx context.Context) (calculator.Summary, error) {
	var (
		groups  []*models.Group
		members []*models.Member
	)
	err := s.store.InTx(ctx, func(q storage.Queries) error {
		var err error
		if groups, err = q.ListGroups(ctx); err != nil {
			return err
		}
		members, err = q.ListMembers(ctx, storage.MemberFilter{})
		return err
	})
	if err != nil {
		return calculator.Summary{}, err
	}
	return calculator.CalculateOccupancy(groups, members), nil
}

func (s *Service) record(operation string, err error) {
	if s.recorder != nil {
		s.recorder.RecordOperation(operation, Outcome(err))
	}
}

// Outcome classifies err into a short label for logs and metrics.
func Outcome(err error) string {
	var (
		validationErrs ValidationErrors
		validationErr  *ValidationError
		notFound       *NotFoundError
		full           *CapacityExceededError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &validationErrs), errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &full):
		return "capacity_exceeded"
	default:
		return "error"
	}
}

func newMember(id int64, in MemberInput) *models.Member {
	return &models.Member{
		ID:        id,
		Name:      in.Name,
		BirthDate: in.BirthDate,
		Email:     in.Email,
		Status:    in.Status,
		GroupID:   in.GroupID,
	}
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
