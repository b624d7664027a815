package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scopewatch/api/internal/app"
	"github.com/scopewatch/api/internal/infra/jobs"
	"github.com/scopewatch/api/pkg/apierror"
	"github.com/scopewatch/api/pkg/domain/program"
	"github.com/scopewatch/api/pkg/domain/scope"
	"github.com/scopewatch/api/pkg/domain/shared"
	"github.com/scopewatch/api/pkg/logger"
)

// JobEnqueuer is the slice of the job client the HTTP layer needs.
type JobEnqueuer interface {
	EnqueueScopeCheck(ctx context.Context, programID string) error
	EnqueueProbeIngest(ctx context.Context, payload jobs.ProbeIngestPayload) error
}

// ProgramHandler handles program management and scope HTTP requests.
type ProgramHandler struct {
	programs *app.ProgramService
	monitor  *app.MonitorService
	jobs     JobEnqueuer
	logger   *logger.Logger
}

// NewProgramHandler creates a new program handler.
func NewProgramHandler(programs *app.ProgramService, monitor *app.MonitorService, jobs JobEnqueuer, log *logger.Logger) *ProgramHandler {
	return &ProgramHandler{
		programs: programs,
		monitor:  monitor,
		jobs:     jobs,
		logger:   log,
	}
}

// ProgramResponse represents a program in API responses.
type ProgramResponse struct {
	ID             string     `json:"id"`
	Platform       string     `json:"platform"`
	Handle         string     `json:"handle"`
	Name           string     `json:"name"`
	URL            string     `json:"url,omitempty"`
	InScope        []string   `json:"in_scope"`
	OutOfScope     []string   `json:"out_of_scope"`
	IsActive       bool       `json:"is_active"`
	LastScopeCheck *time.Time `json:"last_scope_check,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toProgramResponse(p *program.Program) ProgramResponse {
	return ProgramResponse{
		ID:             p.ID().String(),
		Platform:       p.Platform().String(),
		Handle:         p.Handle(),
		Name:           p.Name(),
		URL:            p.URL(),
		InScope:        p.InScope(),
		OutOfScope:     p.OutOfScope(),
		IsActive:       p.IsActive(),
		LastScopeCheck: p.LastScopeCheck(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

// ScopeHistoryResponse represents one scope check in API responses.
type ScopeHistoryResponse struct {
	ID         string         `json:"id"`
	InScope    []string       `json:"in_scope"`
	OutOfScope []string       `json:"out_of_scope"`
	Changes    []scope.Change `json:"changes,omitempty"`
	Checksum   string         `json:"checksum"`
	Source     string         `json:"source"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// Create handles POST /api/v1/programs.
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input app.CreateProgramInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, err)
		return
	}

	p, err := h.programs.Create(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProgramResponse(p))
}

// List handles GET /api/v1/programs.
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.programs.List(r.Context(), parsePagination(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newListResponse(res, toProgramResponse))
}

// Get handles GET /api/v1/programs/{id}.
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	p, err := h.programs.Get(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProgramResponse(p))
}

// SetActive handles PATCH /api/v1/programs/{id}/active.
func (h *ProgramHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	p, err := h.programs.SetActive(r.Context(), id, body.Active)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toProgramResponse(p))
}

// Delete handles DELETE /api/v1/programs/{id}.
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.programs.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TriggerCheck handles POST /api/v1/programs/{id}/scope/check. The
// check itself runs in the background; 202 means queued, not done.
func (h *ProgramHandler) TriggerCheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	// reject unknown programs before queueing
	if _, err := h.programs.Get(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	if err := h.jobs.EnqueueScopeCheck(r.Context(), id.String()); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":     "queued",
		"program_id": id.String(),
	})
}

// ValidateValue handles GET /api/v1/programs/{id}/scope/validate.
func (h *ProgramHandler) ValidateValue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	value := r.URL.Query().Get("value")
	if value == "" {
		respondError(w, apierror.BadRequest("query parameter 'value' is required"))
		return
	}

	result, err := h.monitor.ValidateValue(r.Context(), id, value)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// History handles GET /api/v1/programs/{id}/scope/history.
func (h *ProgramHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	limit := parseQueryInt(r.URL.Query().Get("limit"), 20)
	rows, err := h.monitor.History(r.Context(), id, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]ScopeHistoryResponse, 0, len(rows))
	for _, hst := range rows {
		out = append(out, ScopeHistoryResponse{
			ID:         hst.ID().String(),
			InScope:    hst.InScope(),
			OutOfScope: hst.OutOfScope(),
			Changes:    hst.Changes(),
			Checksum:   hst.Checksum(),
			Source:     hst.Source(),
			CheckedAt:  hst.CheckedAt(),
		})
	}

	respondJSON(w, http.StatusOK, out)
}

func pathID(r *http.Request, param string) (shared.ID, error) {
	id, err := shared.IDFromString(chi.URLParam(r, param))
	if err != nil {
		return shared.ID{}, apierror.BadRequest("invalid id")
	}
	return id, nil
}
