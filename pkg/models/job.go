package models

import (
	"time"
)

// JobStatus represents the status reported by the job execution service
type JobStatus string

const (
	JobStatusAccepted JobStatus = "accepted"
	JobStatusRejected JobStatus = "rejected"
)

// JobDescription is the unit handed to the job execution service: the remote
// bootstrap to start and the local artifacts to ship for it. The last artifact
// path is always the serialized continuation.
type JobDescription struct {
	EntryPoint    string   `json:"entry_point" yaml:"entry_point"`
	ArtifactPaths []string `json:"artifact_paths" yaml:"artifact_paths"`
}

// ContinuationPath returns the path the remote entry point loads, or "" for an
// empty description.
func (d *JobDescription) ContinuationPath() string {
	if d == nil || len(d.ArtifactPaths) == 0 {
		return ""
	}
	return d.ArtifactPaths[len(d.ArtifactPaths)-1]
}

// Paths returns a copy of the artifact paths
func (d *JobDescription) Paths() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.ArtifactPaths))
	copy(out, d.ArtifactPaths)
	return out
}

// JobReceipt is returned by the job execution service once it accepts a job
type JobReceipt struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	EntryPoint string    `json:"entry_point"`
	Artifacts  int       `json:"artifacts"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubmittedJob is a job description as recorded by the job service
type SubmittedJob struct {
	ID          string         `json:"id"`
	Description JobDescription `json:"description"`
	Status      JobStatus      `json:"status"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
