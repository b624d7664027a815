// Package jobs wires background processing through Asynq: scheduled
// scope checks and probe ingestion run as queued tasks so HTTP requests
// and cron ticks only enqueue work.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/scopewatch/api/pkg/domain/asset"
)

const (
	// TypeScopeCheckProgram is the task type for checking one program's scope.
	TypeScopeCheckProgram = "scope:check_program"

	// TypeScopeCheckAll is the task type for a full monitoring cycle.
	TypeScopeCheckAll = "scope:check_all"

	// TypeProbeIngest is the task type for applying a probe record to an asset.
	TypeProbeIngest = "probe:ingest"
)

// ScopeCheckProgramPayload identifies the program to check.
type ScopeCheckProgramPayload struct {
	ProgramID string `json:"program_id"`
}

// ProbeIngestPayload carries one probe result for one asset value.
type ProbeIngestPayload struct {
	ProgramID string            `json:"program_id"`
	AssetType string            `json:"asset_type"`
	Value     string            `json:"value"`
	Probe     asset.ProbeRecord `json:"probe"`
}

// NewScopeCheckProgramTask creates a task for checking one program.
func NewScopeCheckProgramTask(programID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ScopeCheckProgramPayload{ProgramID: programID})
	if err != nil {
		return nil, fmt.Errorf("marshal scope check payload: %w", err)
	}

	return asynq.NewTask(
		TypeScopeCheckProgram,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("scope"),
	), nil
}

// NewScopeCheckAllTask creates a task for a full monitoring cycle. The
// cycle already tolerates per-program failures, so the task itself is
// not retried.
func NewScopeCheckAllTask() (*asynq.Task, error) {
	return asynq.NewTask(
		TypeScopeCheckAll,
		nil,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("scope"),
	), nil
}

// NewProbeIngestTask creates a task for applying one probe record.
func NewProbeIngestTask(payload ProbeIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal probe ingest payload: %w", err)
	}

	return asynq.NewTask(
		TypeProbeIngest,
		data,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue("probes"),
	), nil
}
