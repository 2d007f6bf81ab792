// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/models"
	"github.com/style-studio/backend/internal/upload"
)

// UploadHandler handles the style transfer upload
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// ResultHandler serves and maintains styled results
type ResultHandler interface {
	HandleResult(c echo.Context) error
	HandleDownload(c echo.Context) error
	HandleCleanup(c echo.Context) error
}

// JobHandler exposes job status and history
type JobHandler interface {
	HandleGetJob(c echo.Context) error
	HandleGetJobMsgpack(c echo.Context) error
	HandleStats(c echo.Context) error
}

// StyleHandler lists the style catalogue
type StyleHandler interface {
	HandleStyles(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// JobStreamHandler streams job progress over a websocket
type JobStreamHandler interface {
	HandleJobStream(c echo.Context) error
}

// JobRunner runs style transfer jobs. Implemented by *upload.Manager.
type JobRunner interface {
	Run(ctx context.Context, file *models.MediaFile, style string) (*models.Job, error)
	GetJob(id string) (models.Job, bool)
	Subscribe(l upload.Listener) func()
}

// HistoryReader reads aggregated job history. Implemented by *history.Store.
type HistoryReader interface {
	Stats(ctx context.Context) ([]models.StyleStats, error)
	Recent(ctx context.Context, n int) ([]models.HistoryRecord, error)
}

// MetricsRecorder receives API level counters. Implemented by *metrics.Metrics.
type MetricsRecorder interface {
	RejectUpload(reason string)
	CleanupRemoved(n int)
}

// FFmpegProber reports whether video processing is possible. Implemented by *video.Processor.
type FFmpegProber interface {
	Available(ctx context.Context) (string, error)
}

type noopMetrics struct{}

func (noopMetrics) RejectUpload(string) {}
func (noopMetrics) CleanupRemoved(int)  {}
