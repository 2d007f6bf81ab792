package models

import "time"

// MediaKind is the broad type of an uploaded file.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaFile represents metadata about an uploaded file.
type MediaFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`       // original client-side file name
	StoredName  string    `json:"storedName"` // <id>.<ext> inside the uploads directory
	Ext         string    `json:"ext"`        // lowercased, without the dot
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Kind        MediaKind `json:"kind"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
