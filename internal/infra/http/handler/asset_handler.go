package handler

import (
	"net/http"
	"time"

	"github.com/scopewatch/api/internal/app"
	"github.com/scopewatch/api/internal/infra/jobs"
	"github.com/scopewatch/api/pkg/apierror"
	"github.com/scopewatch/api/pkg/domain/asset"
	"github.com/scopewatch/api/pkg/logger"
)

// AssetHandler handles asset and change log HTTP requests.
type AssetHandler struct {
	diff   *app.DiffService
	jobs   JobEnqueuer
	logger *logger.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(diff *app.DiffService, jobs JobEnqueuer, log *logger.Logger) *AssetHandler {
	return &AssetHandler{
		diff:   diff,
		jobs:   jobs,
		logger: log,
	}
}

// AssetResponse represents an asset in API responses.
type AssetResponse struct {
	ID            string    `json:"id"`
	ProgramID     string    `json:"program_id"`
	Type          string    `json:"type"`
	Value         string    `json:"value"`
	IsAlive       bool      `json:"is_alive"`
	InScope       bool      `json:"in_scope"`
	HTTPStatus    *int      `json:"http_status,omitempty"`
	ContentLength *int64    `json:"content_length,omitempty"`
	PageTitle     *string   `json:"page_title,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
	ResponseHash  *string   `json:"response_hash,omitempty"`
	ResolvedIPs   []string  `json:"resolved_ips,omitempty"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAssetResponse(a *asset.Asset) AssetResponse {
	return AssetResponse{
		ID:            a.ID().String(),
		ProgramID:     a.ProgramID().String(),
		Type:          a.Type().String(),
		Value:         a.Value(),
		IsAlive:       a.IsAlive(),
		InScope:       a.InScope(),
		HTTPStatus:    a.HTTPStatus(),
		ContentLength: a.ContentLength(),
		PageTitle:     a.PageTitle(),
		Technologies:  a.Technologies(),
		ResponseHash:  a.ResponseHash(),
		ResolvedIPs:   a.ResolvedIPs(),
		FirstSeen:     a.FirstSeen(),
		LastSeen:      a.LastSeen(),
		UpdatedAt:     a.UpdatedAt(),
	}
}

// ChangeResponse represents one change log entry in API responses.
type ChangeResponse struct {
	ID         string    `json:"id"`
	AssetID    string    `json:"asset_id"`
	Type       string    `json:"type"`
	FieldName  string    `json:"field_name"`
	OldValue   *string   `json:"old_value,omitempty"`
	NewValue   *string   `json:"new_value,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Alerted    bool      `json:"alerted"`
	Reviewed   bool      `json:"reviewed"`
}

func toChangeResponse(c *asset.Change) ChangeResponse {
	return ChangeResponse{
		ID:         c.ID().String(),
		AssetID:    c.AssetID().String(),
		Type:       c.Type().String(),
		FieldName:  c.FieldName(),
		OldValue:   c.OldValue(),
		NewValue:   c.NewValue(),
		DetectedAt: c.DetectedAt(),
		Alerted:    c.Alerted(),
		Reviewed:   c.Reviewed(),
	}
}

// List handles GET /api/v1/programs/{id}/assets.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	filter := asset.ListFilter{
		ProgramID: programID,
		IsAlive:   parseQueryBool(r.URL.Query().Get("alive")),
		InScope:   parseQueryBool(r.URL.Query().Get("in_scope")),
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := asset.ParseType(raw)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.Type = &t
	}

	res, err := h.diff.ListAssets(r.Context(), filter, parsePagination(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newListResponse(res, toAssetResponse))
}

// Get handles GET /api/v1/assets/{id}.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	a, err := h.diff.GetAsset(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAssetResponse(a))
}

// Changes handles GET /api/v1/assets/{id}/changes.
func (h *AssetHandler) Changes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	limit := parseQueryInt(r.URL.Query().Get("limit"), 50)
	changes, err := h.diff.AssetChanges(r.Context(), id, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]ChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, toChangeResponse(c))
	}

	respondJSON(w, http.StatusOK, out)
}

// RecentChanges handles GET /api/v1/changes.
func (h *AssetHandler) RecentChanges(w http.ResponseWriter, r *http.Request) {
	res, err := h.diff.RecentChanges(r.Context(), parsePagination(r))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newListResponse(res, toChangeResponse))
}

// IngestProbeRequest represents one probe submission.
type IngestProbeRequest struct {
	ProgramID string            `json:"program_id"`
	AssetType string            `json:"asset_type"`
	Value     string            `json:"value"`
	Probe     asset.ProbeRecord `json:"probe"`
}

// IngestProbe handles POST /api/v1/probes. The probe is queued; the
// diff runs in the worker.
func (h *AssetHandler) IngestProbe(w http.ResponseWriter, r *http.Request) {
	var req IngestProbeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.ProgramID == "" || req.Value == "" {
		respondError(w, apierror.BadRequest("program_id and value are required"))
		return
	}

	err := h.jobs.EnqueueProbeIngest(r.Context(), jobs.ProbeIngestPayload{
		ProgramID: req.ProgramID,
		AssetType: req.AssetType,
		Value:     req.Value,
		Probe:     req.Probe,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// ScanDecision handles GET /api/v1/assets/{id}/scan-decision.
func (h *AssetHandler) ScanDecision(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	force := r.URL.Query().Get("force") == "true"
	d, err := h.diff.DecideScan(r.Context(), id, force)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

// ScanQueue handles GET /api/v1/programs/{id}/scan-queue.
func (h *AssetHandler) ScanQueue(w http.ResponseWriter, r *http.Request) {
	programID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	force := r.URL.Query().Get("force") == "true"
	due, err := h.diff.BuildScanQueue(r.Context(), programID, force)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]AssetResponse, 0, len(due))
	for _, a := range due {
		out = append(out, toAssetResponse(a))
	}

	respondJSON(w, http.StatusOK, out)
}
