// Package api exposes HTTP handlers for the roster service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"example.com/roster/internal/domain"
	"example.com/roster/internal/observability"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/activities", h.activities)
	mux.HandleFunc("/activities/", h.activityAction)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}
	h.listActivities(w, r)
}

// activityAction dispatches /activities/{name}/signup and
// /activities/{name}/unregister. The mux hands over the path already
// URL-decoded, so names with spaces arrive intact.
func (h *Handler) activityAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/activities/")
	idx := strings.LastIndex(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}

	name := rest[:idx]
	action := rest[idx+1:]

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	switch {
	case action == "signup" && r.Method == http.MethodPost:
		h.signup(w, r, name, email)
	case action == "unregister" && r.Method == http.MethodDelete:
		h.unregister(w, r, name, email)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	rosters, err := h.service.ListActivities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make(map[string]ActivityView, len(rosters))
	for _, roster := range rosters {
		resp[roster.Activity.Name] = ActivityView{
			Description:     roster.Activity.Description,
			Schedule:        roster.Activity.Schedule,
			MaxParticipants: roster.Activity.MaxParticipants,
			Participants:    roster.Participants,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request, name, email string) {
	message, err := h.service.Signup(r.Context(), name, email)
	if err != nil {
		observability.RecordOutcome("signup", outcomeLabel(err))
		writeServiceError(w, err)
		return
	}
	observability.RecordOutcome("signup", "success")
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request, name, email string) {
	message, err := h.service.Unregister(r.Context(), name, email)
	if err != nil {
		observability.RecordOutcome("unregister", outcomeLabel(err))
		writeServiceError(w, err)
		return
	}
	observability.RecordOutcome("unregister", "success")
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// writeServiceError maps domain errors onto the fixed status/detail pairs of
// the external contract.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "Activity not found")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, "Student is already signed up")
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, "Activity is full")
	case errors.Is(err, domain.ErrNotRegistered):
		writeError(w, http.StatusBadRequest, "Student is not signed up for this activity")
	case errors.Is(err, domain.ErrSignupConflict):
		writeError(w, http.StatusConflict, "Signup conflict, please retry")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrActivityNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, domain.ErrSignupConflict):
		return "conflict"
	default:
		return "error"
	}
}

// ActivityView exposes one activity in the listing.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants *int32   `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// MessageResponse is the confirmation body for signup and unregister.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body for every failure outcome.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
