package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterStaticRoutes(t *testing.T) {
	require.True(t, HasEmbeddedFiles())

	e := echo.New()
	e.GET("/api/styles", func(c echo.Context) error { return c.String(http.StatusOK, "styles") })
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, `id="uploadForm"`},
		{"/app.js", http.StatusOK, "Please select a file"},
		{"/style.css", http.StatusOK, ".progress-bar"},
		{"/api/styles", http.StatusOK, "styles"},
		{"/missing.js", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestIndexHasControllerHooks(t *testing.T) {
	staticFS, err := GetFileSystem()
	require.NoError(t, err)
	data, err := fs.ReadFile(staticFS, "index.html")
	require.NoError(t, err)
	page := string(data)
	for _, id := range []string{"uploadForm", "fileInput", "styleSelect", "processBtn", "loadingSpinner",
		"btnText", "progressContainer", "progressText", "resultContainer", "resultPreview",
		"downloadLink", "errorContainer", "errorMessage"} {
		assert.Contains(t, page, `id="`+id+`"`)
	}
	assert.Contains(t, page, `class="progress-bar"`)
}
