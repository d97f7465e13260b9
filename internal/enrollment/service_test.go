package enrollment

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
	"github.com/mmynk/classroll/internal/storage/sqlite"
)

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (r *fakeRecorder) RecordOperation(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string][]string{}
	}
	r.outcomes[operation] = append(r.outcomes[operation], outcome)
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(t *testing.T, opts ...Option) (*Service, storage.Store) {
	t.Helper()
	store := newTestStore(t)
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(store, opts...), store
}

func member(name string, status models.Status, groupID *int64) MemberInput {
	return MemberInput{
		Name:      name,
		BirthDate: civil.Date{Year: 2015, Month: 1, Day: 10},
		Status:    status,
		GroupID:   groupID,
	}
}

func createGroup(t *testing.T, svc *Service, name string, capacity int) *models.Group {
	t.Helper()
	group, err := svc.CreateGroup(context.Background(), GroupInput{Name: name, Capacity: capacity})
	require.NoError(t, err)
	return group
}

func TestTurmaAScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	turma := createGroup(t, svc, "Turma A", 1)

	a, err := svc.CreateMember(ctx, member("Aluno A", models.StatusInactive, nil))
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Nil(t, a.GroupID)

	assigned, err := svc.AssignMember(ctx, a.ID, turma.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, assigned.Status)
	assert.True(t, assigned.InGroup(turma.ID))

	_, err = svc.CreateMember(ctx, member("Aluno B", models.StatusActive, &turma.ID))
	var full *CapacityExceededError
	require.ErrorAs(t, err, &full)
	assert.Equal(t, "Turma A", full.Group)
	assert.Equal(t, 1, full.Capacity)
	assert.Equal(t, 1, full.Count)
	assert.Equal(t, turma.ID, full.GroupID)
}

func TestCreateMember(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	t.Run("unknown group", func(t *testing.T) {
		missing := int64(404)
		_, err := svc.CreateMember(ctx, member("Aluno", models.StatusActive, &missing))

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, ResourceGroup, notFound.Resource)
		assert.Equal(t, missing, notFound.ID)
	})

	t.Run("validation runs before storage", func(t *testing.T) {
		_, err := svc.CreateMember(ctx, member("Al", models.StatusActive, nil))

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("name"))

		members, err := store.ListMembers(ctx, storage.MemberFilter{})
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("inactive members do not hold seats", func(t *testing.T) {
		group := createGroup(t, svc, "Turma Inativos", 1)

		_, err := svc.CreateMember(ctx, member("Inativo Um", models.StatusInactive, &group.ID))
		require.NoError(t, err)
		_, err = svc.CreateMember(ctx, member("Ativo Um", models.StatusActive, &group.ID))
		require.NoError(t, err)

		_, err = svc.CreateMember(ctx, member("Inativo Dois", models.StatusInactive, &group.ID))
		var full *CapacityExceededError
		require.ErrorAs(t, err, &full)
	})
}

func TestUpdateMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma Cheia", 1)
	other := createGroup(t, svc, "Turma Livre", 5)

	inside, err := svc.CreateMember(ctx, member("Dentro", models.StatusActive, &group.ID))
	require.NoError(t, err)
	outside, err := svc.CreateMember(ctx, member("Fora", models.StatusActive, &other.ID))
	require.NoError(t, err)

	t.Run("member in a full group can be edited in place", func(t *testing.T) {
		in := member("Dentro Renomeado", models.StatusActive, &group.ID)
		in.Email = strPtr("dentro@example.com")

		updated, err := svc.UpdateMember(ctx, inside.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "Dentro Renomeado", updated.Name)

		got, err := svc.GetMember(ctx, inside.ID)
		require.NoError(t, err)
		assert.Equal(t, "dentro@example.com", *got.Email)
	})

	t.Run("moving into a full group is refused", func(t *testing.T) {
		_, err := svc.UpdateMember(ctx, outside.ID, member("Fora", models.StatusActive, &group.ID))

		var full *CapacityExceededError
		require.ErrorAs(t, err, &full)

		got, err := svc.GetMember(ctx, outside.ID)
		require.NoError(t, err)
		assert.True(t, got.InGroup(other.ID))
	})

	t.Run("unassigning clears the group", func(t *testing.T) {
		updated, err := svc.UpdateMember(ctx, outside.ID, member("Fora", models.StatusInactive, nil))
		require.NoError(t, err)
		assert.Nil(t, updated.GroupID)
	})

	t.Run("missing member", func(t *testing.T) {
		_, err := svc.UpdateMember(ctx, 9999, member("Ninguem", models.StatusActive, nil))

		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, ResourceMember, notFound.Resource)
	})
}

func TestUpdateInactiveMemberOfFullGroup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 1)
	inactive, err := svc.CreateMember(ctx, member("Aluno B", models.StatusInactive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Aluno A", models.StatusActive, &group.ID))
	require.NoError(t, err)

	t.Run("rename keeps the member in place", func(t *testing.T) {
		updated, err := svc.UpdateMember(ctx, inactive.ID, member("Aluno B Renomeado", models.StatusInactive, &group.ID))
		require.NoError(t, err)
		assert.Equal(t, "Aluno B Renomeado", updated.Name)
		assert.True(t, updated.InGroup(group.ID))
	})

	t.Run("activating in a full group is refused", func(t *testing.T) {
		_, err := svc.UpdateMember(ctx, inactive.ID, member("Aluno B", models.StatusActive, &group.ID))

		var full *CapacityExceededError
		require.ErrorAs(t, err, &full)

		got, err := svc.GetMember(ctx, inactive.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInactive, got.Status)
	})

	t.Run("moving an inactive member into a full group is refused", func(t *testing.T) {
		other, err := svc.CreateMember(ctx, member("Aluno C", models.StatusInactive, nil))
		require.NoError(t, err)

		_, err = svc.UpdateMember(ctx, other.ID, member("Aluno C", models.StatusInactive, &group.ID))
		var full *CapacityExceededError
		require.ErrorAs(t, err, &full)
	})
}

func TestAssignMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	full := createGroup(t, svc, "Turma Cheia", 1)
	open := createGroup(t, svc, "Turma Aberta", 3)

	_, err := svc.CreateMember(ctx, member("Ocupante", models.StatusActive, &full.ID))
	require.NoError(t, err)

	t.Run("full group leaves member unchanged", func(t *testing.T) {
		m, err := svc.CreateMember(ctx, member("Esperando", models.StatusInactive, &open.ID))
		require.NoError(t, err)

		_, err = svc.AssignMember(ctx, m.ID, full.ID)
		var capErr *CapacityExceededError
		require.ErrorAs(t, err, &capErr)

		got, err := svc.GetMember(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, got.InGroup(open.ID))
		assert.Equal(t, models.StatusInactive, got.Status)
	})

	t.Run("assignment activates the member", func(t *testing.T) {
		m, err := svc.CreateMember(ctx, member("Inativo", models.StatusInactive, nil))
		require.NoError(t, err)

		got, err := svc.AssignMember(ctx, m.ID, open.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.Status)
		assert.True(t, got.InGroup(open.ID))
	})

	t.Run("missing group", func(t *testing.T) {
		m, err := svc.CreateMember(ctx, member("Sem Turma", models.StatusActive, nil))
		require.NoError(t, err)

		_, err = svc.AssignMember(ctx, m.ID, 9999)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, ResourceGroup, notFound.Resource)
	})

	t.Run("missing member", func(t *testing.T) {
		_, err := svc.AssignMember(ctx, 9999, open.ID)
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, ResourceMember, notFound.Resource)
	})
}

func TestAssignCountingModes(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "active counting ignores inactive members"},
		{
			name:    "legacy counting includes inactive members",
			opts:    []Option{WithAssignCounting(CountAll)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.opts...)
			ctx := context.Background()

			group := createGroup(t, svc, "Turma A", 1)
			_, err := svc.CreateMember(ctx, member("Inativo", models.StatusInactive, &group.ID))
			require.NoError(t, err)
			m, err := svc.CreateMember(ctx, member("Novo", models.StatusActive, nil))
			require.NoError(t, err)

			_, err = svc.AssignMember(ctx, m.ID, group.ID)
			if tt.wantErr {
				var full *CapacityExceededError
				require.ErrorAs(t, err, &full)
				assert.Equal(t, 1, full.Count)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDeleteMemberFreesSeat(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 1)
	first, err := svc.CreateMember(ctx, member("Primeiro", models.StatusActive, &group.ID))
	require.NoError(t, err)
	second, err := svc.CreateMember(ctx, member("Segundo", models.StatusActive, nil))
	require.NoError(t, err)

	_, err = svc.AssignMember(ctx, second.ID, group.ID)
	require.Error(t, err)

	require.NoError(t, svc.DeleteMember(ctx, first.ID))

	_, err = svc.AssignMember(ctx, second.ID, group.ID)
	require.NoError(t, err)

	err = svc.DeleteMember(ctx, first.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	_, err = svc.GetMember(ctx, first.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteGroup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 2)
	m, err := svc.CreateMember(ctx, member("Aluno", models.StatusActive, &group.ID))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGroup(ctx, group.ID))

	got, err := svc.GetMember(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	err = svc.DeleteGroup(ctx, group.ID)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, ResourceGroup, notFound.Resource)
}

func TestListMembersFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 10)
	_, err := svc.CreateMember(ctx, member("Ana Souza", models.StatusActive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Ana Lima", models.StatusInactive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Bruno Souza", models.StatusActive, nil))
	require.NoError(t, err)

	active := models.StatusActive
	members, err := svc.ListMembers(ctx, storage.MemberFilter{
		NameContains: "Souza",
		GroupID:      &group.ID,
		Status:       &active,
	})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana Souza", members[0].Name)

	all, err := svc.ListMembers(ctx, storage.MemberFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOccupancyReport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 2)
	_, err := svc.CreateMember(ctx, member("Ativo", models.StatusActive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Inativo", models.StatusInactive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Solto", models.StatusActive, nil))
	require.NoError(t, err)

	summary, err := svc.OccupancyReport(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Groups, 1)
	assert.Equal(t, 1, summary.Groups[0].Active)
	assert.Equal(t, 1, summary.Groups[0].Inactive)
	assert.Equal(t, 1, summary.Groups[0].Available)
	assert.Equal(t, 1, summary.Unassigned)
}

func TestRecorderReceivesOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	svc, _ := newTestService(t, WithRecorder(rec))
	ctx := context.Background()

	group := createGroup(t, svc, "Turma A", 1)
	_, err := svc.CreateMember(ctx, member("Primeiro", models.StatusActive, &group.ID))
	require.NoError(t, err)
	_, err = svc.CreateMember(ctx, member("Segundo", models.StatusActive, &group.ID))
	require.Error(t, err)
	_, err = svc.CreateMember(ctx, member("X", models.StatusActive, nil))
	require.Error(t, err)
	require.Error(t, svc.DeleteMember(ctx, 9999))

	assert.Equal(t, []string{"ok"}, rec.outcomes["create_group"])
	assert.Equal(t, []string{"ok", "capacity_exceeded", "invalid"}, rec.outcomes["create_member"])
	assert.Equal(t, []string{"not_found"}, rec.outcomes["delete_member"])
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "invalid", Outcome(ValidationErrors{{Field: "name", Message: "bad"}}))
	assert.Equal(t, "invalid", Outcome(&ValidationError{Field: "name"}))
	assert.Equal(t, "not_found", Outcome(fmt.Errorf("wrapped: %w", &NotFoundError{Resource: ResourceGroup, ID: 1})))
	assert.Equal(t, "capacity_exceeded", Outcome(&CapacityExceededError{}))
	assert.Equal(t, "error", Outcome(fmt.Errorf("boom")))
}

// TestCapacityInvariant drives random operation sequences and checks after
// every step that no group holds more active members than its capacity.
func TestCapacityInvariant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		if err := store.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}

		mode := rapid.SampledFrom([]CountMode{CountActive, CountAll}).Draw(t, "assignMode")
		svc := NewService(store, WithClock(fixedClock), WithAssignCounting(mode))

		var groups []*models.Group
		for i := range rapid.IntRange(1, 3).Draw(t, "groups") {
			group, err := svc.CreateGroup(ctx, GroupInput{
				Name:     fmt.Sprintf("Turma %d", i),
				Capacity: rapid.IntRange(1, 3).Draw(t, "capacity"),
			})
			if err != nil {
				t.Fatalf("create group: %v", err)
			}
			groups = append(groups, group)
		}

		var memberIDs []int64
		n := 0

		drawGroup := func(t *rapid.T) *int64 {
			if rapid.Bool().Draw(t, "unassigned") {
				return nil
			}
			id := rapid.SampledFrom(groups).Draw(t, "group").ID
			return &id
		}
		drawStatus := func(t *rapid.T) models.Status {
			return rapid.SampledFrom([]models.Status{models.StatusActive, models.StatusInactive}).Draw(t, "status")
		}
		expectDomainError := func(t *rapid.T, op string, err error) {
			if Outcome(err) == "error" {
				t.Fatalf("%s: unexpected error: %v", op, err)
			}
		}

		t.Repeat(map[string]func(*rapid.T){
			"create": func(t *rapid.T) {
				n++
				m, err := svc.CreateMember(ctx, member(fmt.Sprintf("Aluno %d", n), drawStatus(t), drawGroup(t)))
				if err != nil {
					expectDomainError(t, "create", err)
					return
				}
				memberIDs = append(memberIDs, m.ID)
			},
			"update": func(t *rapid.T) {
				if len(memberIDs) == 0 {
					t.Skip("no members")
				}
				id := rapid.SampledFrom(memberIDs).Draw(t, "member")
				_, err := svc.UpdateMember(ctx, id, member("Aluno Editado", drawStatus(t), drawGroup(t)))
				expectDomainError(t, "update", err)
			},
			"assign": func(t *rapid.T) {
				if len(memberIDs) == 0 {
					t.Skip("no members")
				}
				id := rapid.SampledFrom(memberIDs).Draw(t, "member")
				groupID := rapid.SampledFrom(groups).Draw(t, "group").ID
				_, err := svc.AssignMember(ctx, id, groupID)
				expectDomainError(t, "assign", err)
			},
			"delete": func(t *rapid.T) {
				if len(memberIDs) == 0 {
					t.Skip("no members")
				}
				i := rapid.IntRange(0, len(memberIDs)-1).Draw(t, "index")
				if err := svc.DeleteMember(ctx, memberIDs[i]); err != nil {
					t.Fatalf("delete: %v", err)
				}
				memberIDs = append(memberIDs[:i], memberIDs[i+1:]...)
			},
			"": func(t *rapid.T) {
				for _, g := range groups {
					active, err := Occupancy(ctx, store, g.ID, 0, CountActive)
					if err != nil {
						t.Fatalf("count: %v", err)
					}
					if active > g.Capacity {
						t.Fatalf("group %s holds %d active members, capacity %d", g.Name, active, g.Capacity)
					}
				}
			},
		})
	})
}
