package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/classroll/internal/enrollment"
)

// EnrollmentService serves the dedicated enrollment action.
type EnrollmentService struct {
	enroll *enrollment.Service
}

// NewEnrollmentService creates an EnrollmentService backed by the enrollment service.
func NewEnrollmentService(enroll *enrollment.Service) *EnrollmentService {
	return &EnrollmentService{enroll: enroll}
}

// Routes returns a subrouter that serves the enrollment endpoints.
func (s *EnrollmentService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", s.Enroll)
	return r
}

type enrollRequest struct {
	MemberID int64 `json:"member_id"`
	GroupID  int64 `json:"group_id"`
}

// Enroll handles POST /enrollments. The member and group IDs come from a
// JSON body or, when the body is empty, from the member_id and group_id
// query parameters.
func (s *EnrollmentService) Enroll(w http.ResponseWriter, r *http.Request) {
	req, err := parseEnrollRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("Enroll request received", "member_id", req.MemberID, "group_id", req.GroupID)

	member, err := s.enroll.AssignMember(r.Context(), req.MemberID, req.GroupID)
	if err != nil {
		slog.Warn("Enroll failed",
			"member_id", req.MemberID,
			"group_id", req.GroupID,
			"outcome", enrollment.Outcome(err),
			"error", err,
		)
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func parseEnrollRequest(r *http.Request) (enrollRequest, error) {
	var req enrollRequest

	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			return req, err
		}
	} else {
		memberID, err := queryID(r, "member_id")
		if err != nil {
			return req, err
		}
		groupID, err := queryID(r, "group_id")
		if err != nil {
			return req, err
		}
		if memberID != nil {
			req.MemberID = *memberID
		}
		if groupID != nil {
			req.GroupID = *groupID
		}
	}

	if req.MemberID <= 0 || req.GroupID <= 0 {
		return req, badRequest("member_id and group_id are required")
	}
	return req, nil
}
