// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	ffmpeg  FFmpegProber
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, ffmpeg FFmpegProber) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		ffmpeg:  ffmpeg,
	}
}

// HandleHealth returns server health status. Missing ffmpeg only disables video.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"video":   false,
	}
	if h.ffmpeg != nil {
		if v, err := h.ffmpeg.Available(c.Request().Context()); err == nil {
			resp["video"] = true
			resp["ffmpeg"] = v
		}
	}
	return c.JSON(http.StatusOK, resp)
}
