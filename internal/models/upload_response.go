package models

// UploadResponse is the JSON body returned by POST /upload.
type UploadResponse struct {
	Success     bool      `json:"success"`
	ResultURL   string    `json:"result_url,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	JobID       string    `json:"job_id,omitempty"`
	MediaType   MediaKind `json:"media_type,omitempty"`
	Error       string    `json:"error,omitempty"`
}
