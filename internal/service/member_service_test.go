package service

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/mmynk/classroll/internal/models"
)

func TestMemberService_CreateAndGet(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})

	body := memberBody("Ana Souza", "active", nil)
	body["email"] = "ana@example.com"
	created := createMember(t, server.URL, body)

	if created.ID == 0 {
		t.Error("expected member ID to be assigned")
	}
	if created.BirthDate.String() != "2012-05-20" {
		t.Errorf("expected birth date 2012-05-20, got %s", created.BirthDate)
	}

	var got models.Member
	status := doJSON(t, http.MethodGet, fmt.Sprintf("%s/members/%d", server.URL, created.ID), nil, &got)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got.Name != "Ana Souza" || got.Email == nil || *got.Email != "ana@example.com" {
		t.Errorf("unexpected member: %+v", got)
	}

	if status := doJSON(t, http.MethodGet, server.URL+"/members/9999", nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for missing member, got %d", status)
	}
}

func TestMemberService_CreateValidation(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})
	missingGroup := int64(9999)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantFields []string
	}{
		{
			name:       "short name",
			body:       memberBody("Al", "active", nil),
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"name"},
		},
		{
			name: "too young",
			body: map[string]any{
				"name":       "Bebe Novo",
				"birth_date": "2025-01-01",
				"status":     "active",
			},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"birth_date"},
		},
		{
			name: "bad email and status",
			body: map[string]any{
				"name":       "Carla Dias",
				"birth_date": "2012-05-20",
				"email":      "carla",
				"status":     "enrolled",
			},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"email", "status"},
		},
		{
			name:       "unknown group",
			body:       memberBody("Davi Rocha", "active", &missingGroup),
			wantStatus: http.StatusNotFound,
		},
		{
			name: "malformed date",
			body: map[string]any{
				"name":       "Eva Prado",
				"birth_date": "20/05/2012",
				"status":     "active",
			},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"birth_date"},
		},
		{
			name: "impossible date",
			body: map[string]any{
				"name":       "Eva Prado",
				"birth_date": "2010-02-30",
				"status":     "active",
			},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"birth_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			status := doJSON(t, http.MethodPost, server.URL+"/members", tt.body, &resp)
			if status != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, status, resp.Error)
			}
			if tt.wantFields != nil && fmt.Sprint(resp.Fields) != fmt.Sprint(tt.wantFields) {
				t.Errorf("expected fields %v, got %v", tt.wantFields, resp.Fields)
			}
		})
	}
}

func TestMemberService_CapacityExceeded(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})

	turma := createGroup(t, server.URL, "Turma A", 1)
	createMember(t, server.URL, memberBody("Aluno A", "active", &turma.ID))

	var resp errorResponse
	status := doJSON(t, http.MethodPost, server.URL+"/members", memberBody("Aluno B", "active", &turma.ID), &resp)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if resp.Group != "Turma A" {
		t.Errorf("expected group Turma A in response, got %q", resp.Group)
	}
	if resp.Capacity == nil || *resp.Capacity != 1 || resp.Count == nil || *resp.Count != 1 {
		t.Errorf("expected capacity 1 and count 1, got %v and %v", resp.Capacity, resp.Count)
	}
}

func TestMemberService_Update(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})

	turma := createGroup(t, server.URL, "Turma A", 1)
	member := createMember(t, server.URL, memberBody("Aluno A", "active", &turma.ID))
	url := fmt.Sprintf("%s/members/%d", server.URL, member.ID)

	// Editing a member of a full group keeps its own seat.
	var updated models.Member
	status := doJSON(t, http.MethodPut, url, memberBody("Aluno A Silva", "active", &turma.ID), &updated)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if updated.Name != "Aluno A Silva" || updated.ID != member.ID {
		t.Errorf("unexpected member after update: %+v", updated)
	}

	other := createMember(t, server.URL, memberBody("Aluno B", "active", nil))
	otherURL := fmt.Sprintf("%s/members/%d", server.URL, other.ID)
	if status := doJSON(t, http.MethodPut, otherURL, memberBody("Aluno B", "active", &turma.ID), nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 moving into a full group, got %d", status)
	}

	if status := doJSON(t, http.MethodPut, server.URL+"/members/9999", memberBody("Ninguem", "active", nil), nil); status != http.StatusNotFound {
		t.Errorf("expected 404 updating missing member, got %d", status)
	}
}

func TestMemberService_Delete(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})

	member := createMember(t, server.URL, memberBody("Aluno A", "active", nil))
	url := fmt.Sprintf("%s/members/%d", server.URL, member.ID)

	var resp messageResponse
	if status := doJSON(t, http.MethodDelete, url, nil, &resp); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if resp.Message == "" {
		t.Error("expected confirmation message")
	}

	if status := doJSON(t, http.MethodDelete, url, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", status)
	}
}

func TestMemberService_ListFilters(t *testing.T) {
	server := setupTestServer(t, RouterOptions{})

	turma := createGroup(t, server.URL, "Turma A", 10)
	createMember(t, server.URL, memberBody("Ana Souza", "active", &turma.ID))
	createMember(t, server.URL, memberBody("Ana Lima", "inactive", &turma.ID))
	createMember(t, server.URL, memberBody("Bruno Souza", "active", nil))

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{name: "no filters", want: []string{"Ana Souza", "Ana Lima", "Bruno Souza"}},
		{name: "search", query: url.Values{"search": {"Souza"}}, want: []string{"Ana Souza", "Bruno Souza"}},
		{name: "group", query: url.Values{"group_id": {fmt.Sprint(turma.ID)}}, want: []string{"Ana Souza", "Ana Lima"}},
		{name: "status", query: url.Values{"status": {"inactive"}}, want: []string{"Ana Lima"}},
		{
			name:  "combined",
			query: url.Values{"search": {"Ana"}, "group_id": {fmt.Sprint(turma.ID)}, "status": {"active"}},
			want:  []string{"Ana Souza"},
		},
		{name: "no match", query: url.Values{"search": {"Zé"}}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var members []models.Member
			status := doJSON(t, http.MethodGet, server.URL+"/members?"+tt.query.Encode(), nil, &members)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			names := make([]string, len(members))
			for i, m := range members {
				names[i] = m.Name
			}
			if fmt.Sprint(names) != fmt.Sprint(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, names)
			}
		})
	}

	if status := doJSON(t, http.MethodGet, server.URL+"/members?group_id=abc", nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad group_id, got %d", status)
	}
	if status := doJSON(t, http.MethodGet, server.URL+"/members?status=pending", nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", status)
	}
}
