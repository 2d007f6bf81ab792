package models

import "time"

// HistoryRecord is a finished job as persisted in the history database.
type HistoryRecord struct {
	JobID      string    `json:"jobId"`
	Style      string    `json:"style"`
	Kind       MediaKind `json:"kind"`
	InputSize  int64     `json:"inputSize"`
	OutputSize int64     `json:"outputSize"`
	DurationMs int64     `json:"durationMs"`
	Status     JobStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StyleStats aggregates history rows per style.
type StyleStats struct {
	Style         string  `json:"style"`
	Total         int64   `json:"total"`
	Failed        int64   `json:"failed"`
	Videos        int64   `json:"videos"`
	AvgDurationMs float64 `json:"avgDurationMs"`
	BytesIn       int64   `json:"bytesIn"`
	BytesOut      int64   `json:"bytesOut"`
}

// NewHistoryRecord converts a finished job into a history row.
func NewHistoryRecord(job *Job) HistoryRecord {
	return HistoryRecord{
		JobID:      job.ID,
		Style:      job.Style,
		Kind:       job.Kind,
		InputSize:  job.InputSize,
		OutputSize: job.OutputSize,
		DurationMs: job.Duration().Milliseconds(),
		Status:     job.Status,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
	}
}
