// handlers_jobs.go - Job status, history and style catalogue handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/style-studio/backend/internal/style"
)

const recentJobs = 10

// JobHandlerImpl implements the JobHandler interface
type JobHandlerImpl struct {
	jobs    JobRunner
	history HistoryReader
}

// NewJobHandler creates a job handler. history may be nil when the database is disabled.
func NewJobHandler(jobs JobRunner, history HistoryReader) JobHandler {
	return &JobHandlerImpl{jobs: jobs, history: history}
}

// HandleGetJob returns the current state of a job
func (h *JobHandlerImpl) HandleGetJob(c echo.Context) error {
	id := c.Param("id")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job not found: " + id)
	}
	return c.JSON(http.StatusOK, job)
}

// HandleGetJobMsgpack returns the job state in MessagePack format.
func (h *JobHandlerImpl) HandleGetJobMsgpack(c echo.Context) error {
	id := c.Param("id")
	job, ok := h.jobs.GetJob(id)
	if !ok {
		return NewNotFoundError("job not found: " + id)
	}

	data, err := msgpack.Marshal(&job)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleStats returns per-style aggregates and the most recent jobs
func (h *JobHandlerImpl) HandleStats(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("job history is disabled")
	}

	ctx := c.Request().Context()
	stats, err := h.history.Stats(ctx)
	if err != nil {
		return NewInternalError("failed to load stats", err)
	}
	recent, err := h.history.Recent(ctx, recentJobs)
	if err != nil {
		return NewInternalError("failed to load recent jobs", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"styles": stats,
		"recent": recent,
	})
}

// StyleHandlerImpl implements the StyleHandler interface
type StyleHandlerImpl struct {
	catalog      *style.Catalog
	defaultStyle string
}

// NewStyleHandler creates a style catalogue handler
func NewStyleHandler(catalog *style.Catalog, defaultStyle string) StyleHandler {
	return &StyleHandlerImpl{catalog: catalog, defaultStyle: defaultStyle}
}

// HandleStyles lists the selectable styles in display order
func (h *StyleHandlerImpl) HandleStyles(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"styles":  h.catalog.List(),
		"default": h.defaultStyle,
	})
}
