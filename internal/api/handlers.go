package api

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/storage"
)

// Manual cleanup is more aggressive than the background pass.
const (
	manualUploadMaxAge = time.Hour
	manualResultMaxAge = 24 * time.Hour
)

// ResultHandlerImpl implements the ResultHandler interface
type ResultHandlerImpl struct {
	store        storage.Store
	allowCleanup bool
	metrics      MetricsRecorder
}

// NewResultHandler creates a result handler
func NewResultHandler(store storage.Store, allowCleanup bool, metrics MetricsRecorder) ResultHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ResultHandlerImpl{
		store:        store,
		allowCleanup: allowCleanup,
		metrics:      metrics,
	}
}

// HandleResult serves a styled result inline for previews
func (h *ResultHandlerImpl) HandleResult(c echo.Context) error {
	path, err := h.resolve(c.Param("filename"))
	if err != nil {
		return err
	}
	return c.File(path)
}

// HandleDownload serves a styled result as an attachment
func (h *ResultHandlerImpl) HandleDownload(c echo.Context) error {
	name := c.Param("filename")
	path, err := h.resolve(name)
	if err != nil {
		return err
	}
	return c.Attachment(path, name)
}

// HandleCleanup removes old uploads and results on demand
func (h *ResultHandlerImpl) HandleCleanup(c echo.Context) error {
	if !h.allowCleanup {
		return NewForbiddenError("Manual cleanup is disabled")
	}

	removed, err := h.store.Cleanup(manualUploadMaxAge, manualResultMaxAge)
	if err != nil {
		logging.DefaultLogger.Warn("cleanup finished with errors", "removed", removed, "err", err)
	}
	h.metrics.CleanupRemoved(removed)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Cleanup completed",
		"removed": removed,
	})
}

func (h *ResultHandlerImpl) resolve(name string) (string, error) {
	path, err := h.store.ResultPath(name)
	if err != nil {
		return "", NewNotFoundError("File not found")
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", NewNotFoundError("File not found")
	}
	return path, nil
}
