package client

import (
	"fmt"
	"strings"
)

// Progress labels.
const (
	LabelProcessing = "Processing your file..."
	LabelAnalyzing  = "Analyzing file..."
	LabelApplying   = "Applying artistic style..."
	LabelFinalizing = "Finalizing result..."
	LabelComplete   = "Complete!"
)

// Progress is what the progress panel shows.
type Progress struct {
	Percent float64
	Label   string
}

// Result is a successful upload answer.
type Result struct {
	ResultURL   string
	DownloadURL string
	JobID       string
	MediaType   string
}

// PreviewKind selects the element used to preview a result.
type PreviewKind string

const (
	PreviewImage PreviewKind = "image"
	PreviewVideo PreviewKind = "video"
)

// Preview is the content of the result panel.
type Preview struct {
	Kind        PreviewKind
	SourceURL   string
	DownloadURL string
}

// LabelFor returns the stage label for a simulated percentage.
func LabelFor(percent float64) string {
	switch {
	case percent < 30:
		return LabelAnalyzing
	case percent < 60:
		return LabelApplying
	default:
		return LabelFinalizing
	}
}

// FileInfoText is the metadata line shown under the file input.
func FileInfoText(f *File) string {
	return fmt.Sprintf("Selected: %s (%.2f MB)", f.Name, float64(f.Size)/1024/1024)
}

// PreviewFor builds the result panel from the server answer and the MIME
// type of the file that was submitted.
func PreviewFor(res *Result, fileType string) Preview {
	p := Preview{Kind: PreviewImage}
	if res != nil {
		p.SourceURL = res.ResultURL
		p.DownloadURL = res.DownloadURL
	}
	if strings.HasPrefix(fileType, "video/") {
		p.Kind = PreviewVideo
	}
	return p
}
