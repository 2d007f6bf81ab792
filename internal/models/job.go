package models

import "time"

// JobStatus represents the status of a style transfer job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusEncoding   JobStatus = "encoding"
	JobStatusComplete   JobStatus = "complete"
	JobStatusError      JobStatus = "error"
)

// Job represents one style transfer run over an uploaded file.
type Job struct {
	ID          string     `json:"id" msgpack:"id"`
	FileID      string     `json:"fileId" msgpack:"fileId"`
	FileName    string     `json:"fileName" msgpack:"fileName"`
	Style       string     `json:"style" msgpack:"style"`
	Kind        MediaKind  `json:"kind" msgpack:"kind"`
	Status      JobStatus  `json:"status" msgpack:"status"`
	Stage       string     `json:"stage" msgpack:"stage"`
	Progress    float64    `json:"progress" msgpack:"progress"` // 0-100
	InputSize   int64      `json:"inputSize" msgpack:"inputSize"`
	OutputSize  int64      `json:"outputSize,omitempty" msgpack:"outputSize,omitempty"`
	ResultName  string     `json:"resultName,omitempty" msgpack:"resultName,omitempty"`
	Error       string     `json:"error,omitempty" msgpack:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" msgpack:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty" msgpack:"completedAt,omitempty"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == JobStatusComplete || j.Status == JobStatusError
}

// Duration returns the processing time of a finished job.
func (j *Job) Duration() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.CreatedAt)
}
