// handlers_upload.go - Upload and style transfer handler
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/models"
	"github.com/style-studio/backend/internal/storage"
	"github.com/style-studio/backend/internal/style"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store        storage.Store
	jobs         JobRunner
	catalog      *style.Catalog
	allowed      map[string]bool
	defaultStyle string
	metrics      MetricsRecorder
}

// NewUploadHandler creates a new upload handler instance. allowedTypes is a
// comma separated extension list.
func NewUploadHandler(store storage.Store, jobs JobRunner, catalog *style.Catalog, allowedTypes, defaultStyle string, metrics MetricsRecorder) UploadHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &UploadHandlerImpl{
		store:        store,
		jobs:         jobs,
		catalog:      catalog,
		allowed:      parseAllowedTypes(allowedTypes),
		defaultStyle: defaultStyle,
		metrics:      metrics,
	}
}

// HandleUpload accepts a multipart file plus style, styles it and returns the result URLs
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(c) {
			return h.reject(CodeNoFileSelected, "No file selected")
		}
		return h.reject(CodeNoFile, "No file uploaded")
	}
	if fh.Filename == "" {
		return h.reject(CodeNoFileSelected, "No file selected")
	}

	if !h.allowed[storage.Extension(fh.Filename)] {
		return h.reject(CodeInvalidFileType, "Invalid file type")
	}

	styleKey := c.FormValue("style")
	if styleKey == "" {
		styleKey = h.defaultStyle
	}
	if !h.catalog.Has(styleKey) {
		return h.reject(CodeInvalidStyle, "Invalid style selected")
	}

	src, err := fh.Open()
	if err != nil {
		return NewProcessingError(err)
	}
	defer src.Close()

	file, err := h.store.SaveUpload(fh.Filename, src)
	if err != nil {
		return NewProcessingError(err)
	}

	job, err := h.jobs.Run(c.Request().Context(), file, styleKey)
	if err != nil {
		logging.DefaultLogger.Error("Error processing upload", "file", fh.Filename, "err", err)
		return NewProcessingError(err)
	}

	return c.JSON(http.StatusOK, models.UploadResponse{
		Success:     true,
		ResultURL:   "/static/results/" + job.ResultName,
		DownloadURL: "/download/" + job.ResultName,
		JobID:       job.ID,
		MediaType:   file.Kind,
	})
}

func (h *UploadHandlerImpl) reject(code, message string) error {
	h.metrics.RejectUpload(code)
	return NewBadRequestError(code, message)
}

// hasEmptyFilePart reports whether the form carried a "file" part without a filename.
// mime/multipart files such parts under plain values.
func hasEmptyFilePart(c echo.Context) bool {
	form := c.Request().MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func parseAllowedTypes(list string) map[string]bool {
	allowed := make(map[string]bool)
	for _, ext := range strings.Split(list, ",") {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = true
		}
	}
	return allowed
}
