package domain

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is an asynchronous processing request persisted for the worker.
type Job struct {
	ID        string            `json:"id"`
	Request   ProcessingRequest `json:"request"`
	Status    JobStatus         `json:"status"`
	Output    *JobOutput        `json:"output,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// JobOutput is the rendered outcome stored once a job completes. View and Chart
// hold the encoded render.View and chart.Config.
type JobOutput struct {
	Result        ResultPayload         `json:"result"`
	Visualization *VisualizationPayload `json:"visualization,omitempty"`
	View          json.RawMessage       `json:"view"`
	Chart         json.RawMessage       `json:"chart,omitempty"`
}

// JobEvent announces a queued job to workers.
type JobEvent struct {
	JobID      string    `json:"job_id"`
	Task       Task      `json:"task"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
