package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/classroll/internal/enrollment"
	"github.com/mmynk/classroll/internal/models"
	"github.com/mmynk/classroll/internal/storage"
)

// MemberService serves the /members resource.
type MemberService struct {
	enroll *enrollment.Service
}

// NewMemberService creates a MemberService backed by the enrollment service.
func NewMemberService(enroll *enrollment.Service) *MemberService {
	return &MemberService{enroll: enroll}
}

// Routes returns a subrouter that serves the member endpoints.
func (s *MemberService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.ListMembers)
	r.Post("/", s.CreateMember)
	r.Get("/{id}", s.GetMember)
	r.Put("/{id}", s.UpdateMember)
	r.Delete("/{id}", s.DeleteMember)
	return r
}

// ListMembers handles GET /members?search=&group_id=&status=.
func (s *MemberService) ListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := queryID(r, "group_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := storage.MemberFilter{
		NameContains: r.URL.Query().Get("search"),
		GroupID:      groupID,
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			writeError(w, r, badRequest("invalid status %q", raw))
			return
		}
		filter.Status = &status
	}

	members, err := s.enroll.ListMembers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Debug("ListMembers successful", "count", len(members))
	writeJSON(w, http.StatusOK, members)
}

// GetMember handles GET /members/{id}.
func (s *MemberService) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	member, err := s.enroll.GetMember(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// CreateMember handles POST /members.
func (s *MemberService) CreateMember(w http.ResponseWriter, r *http.Request) {
	var in enrollment.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("CreateMember request received", "name", in.Name, "group_id", optionalID(in.GroupID))

	member, err := s.enroll.CreateMember(r.Context(), in)
	if err != nil {
		slog.Warn("CreateMember failed", "outcome", enrollment.Outcome(err), "error", err)
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

// UpdateMember handles PUT /members/{id}. The body replaces the member.
func (s *MemberService) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in enrollment.MemberInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("UpdateMember request received", "member_id", id, "group_id", optionalID(in.GroupID))

	member, err := s.enroll.UpdateMember(r.Context(), id, in)
	if err != nil {
		slog.Warn("UpdateMember failed", "member_id", id, "outcome", enrollment.Outcome(err), "error", err)
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// DeleteMember handles DELETE /members/{id}.
func (s *MemberService) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.enroll.DeleteMember(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "member deleted"})
}
