package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/classroll/internal/enrollment"
)

// GroupService serves the /groups resource.
type GroupService struct {
	enroll *enrollment.Service
}

// NewGroupService creates a GroupService backed by the enrollment service.
func NewGroupService(enroll *enrollment.Service) *GroupService {
	return &GroupService{enroll: enroll}
}

// Routes returns a subrouter that serves the group endpoints.
func (s *GroupService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", s.ListGroups)
	r.Post("/", s.CreateGroup)
	r.Get("/occupancy", s.Occupancy)
	r.Delete("/{id}", s.DeleteGroup)
	return r
}

// CreateGroup handles POST /groups.
func (s *GroupService) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var in enrollment.GroupInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("CreateGroup request received", "name", in.Name, "capacity", in.Capacity)

	group, err := s.enroll.CreateGroup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// ListGroups handles GET /groups.
func (s *GroupService) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.enroll.ListGroups(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Debug("ListGroups successful", "count", len(groups))
	writeJSON(w, http.StatusOK, groups)
}

// DeleteGroup handles DELETE /groups/{id}.
func (s *GroupService) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.enroll.DeleteGroup(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "group deleted"})
}

// Occupancy handles GET /groups/occupancy.
func (s *GroupService) Occupancy(w http.ResponseWriter, r *http.Request) {
	summary, err := s.enroll.OccupancyReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
