// Package jobs runs world generation requests on a pool of background
// workers and tracks their progress.
package jobs

import (
	"errors"
	"time"

	"github.com/yksanjo/roblox-world-generator/internal/index"
	"github.com/yksanjo/roblox-world-generator/pkg/noise"
	"github.com/yksanjo/roblox-world-generator/pkg/prompt"
	"github.com/yksanjo/roblox-world-generator/pkg/spec"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrNotCompleted = errors.New("job not completed")
	ErrQueueFull    = errors.New("job queue is full")
	ErrClosed       = errors.New("job manager is closed")
	ErrEmptyRequest = errors.New("request needs a prompt or a spec")
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress checkpoints of the pipeline.
const (
	ProgressQueued     = 0
	ProgressProcessing = 10
	ProgressTranslated = 20
	ProgressComposing  = 40
	ProgressComposed   = 60
	ProgressProjected  = 80
	ProgressSaved      = 90
	ProgressDone       = 100
)

// Request describes one generation. Spec, when set, skips prompt
// translation.
type Request struct {
	Prompt     string            `json:"prompt"`
	Spec       *spec.Spec        `json:"spec,omitempty"`
	WorldSize  int               `json:"world_size"`
	Complexity prompt.Complexity `json:"complexity"`
	Style      string            `json:"style,omitempty"`

	IncludeTerrain    bool `json:"include_terrain"`
	IncludeStructures bool `json:"include_structures"`
	IncludeObjects    bool `json:"include_objects"`

	Seed  *int64     `json:"seed,omitempty"`
	Noise noise.Mode `json:"noise,omitempty"`
}

// Job is a point-in-time snapshot of a generation job.
type Job struct {
	ID          string     `json:"job_id"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	Prompt      string     `json:"prompt"`
	WorldSize   int        `json:"world_size"`
	Seed        *int64     `json:"seed,omitempty"`
	Objects     int        `json:"objects"`
	Warnings    []string   `json:"warnings,omitempty"`
	FilePath    string     `json:"-"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	FailedAt    *time.Time `json:"failed_at"`
}

func (j Job) finishedAt() *time.Time {
	if j.CompletedAt != nil {
		return j.CompletedAt
	}
	return j.FailedAt
}

func (j Job) record() index.Record {
	r := index.Record{
		ID:        j.ID,
		Status:    string(j.Status),
		Progress:  j.Progress,
		Prompt:    j.Prompt,
		WorldSize: j.WorldSize,
		FilePath:  j.FilePath,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if j.Seed != nil {
		r.Seed = *j.Seed
	}
	if j.CompletedAt != nil {
		r.CompletedAt = *j.CompletedAt
	}
	if j.FailedAt != nil {
		r.FailedAt = *j.FailedAt
	}
	return r
}

func fromRecord(r index.Record) Job {
	j := Job{
		ID:        r.ID,
		Status:    Status(r.Status),
		Progress:  r.Progress,
		Prompt:    r.Prompt,
		WorldSize: r.WorldSize,
		FilePath:  r.FilePath,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
	if j.Status.Terminal() && j.Error == "" {
		seed := r.Seed
		j.Seed = &seed
	}
	if !r.CompletedAt.IsZero() {
		t := r.CompletedAt
		j.CompletedAt = &t
	}
	if !r.FailedAt.IsZero() {
		t := r.FailedAt
		j.FailedAt = &t
	}
	return j
}
