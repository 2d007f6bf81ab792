package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/style-studio/backend/internal/models"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestObserveJob(t *testing.T) {
	m := New()
	done := time.Now()
	job := models.Job{
		Style:       "sketch",
		Kind:        models.MediaImage,
		Status:      models.JobStatusComplete,
		InputSize:   100,
		OutputSize:  40,
		CreatedAt:   done.Add(-time.Second),
		CompletedAt: &done,
	}
	m.ObserveJob(job)
	job.Status = models.JobStatusError
	m.ObserveJob(job)

	assert.Equal(t, 1.0, counterValue(t, m.jobsTotal.WithLabelValues("sketch", "image", "complete")))
	assert.Equal(t, 1.0, counterValue(t, m.jobsTotal.WithLabelValues("sketch", "image", "error")))
	assert.Equal(t, 200.0, counterValue(t, m.bytesIn))
	assert.Equal(t, 40.0, counterValue(t, m.bytesOut), "failed jobs produce no output bytes")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RejectUpload("INVALID_FILE_TYPE")
	m.CleanupRemoved(3)
	m.TrackRunning(func() int { return 2 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `style_studio_upload_rejections_total{reason="INVALID_FILE_TYPE"} 1`)
	assert.Contains(t, text, "style_studio_cleanup_removed_files_total 3")
	assert.Contains(t, text, "style_studio_jobs_running 2")
	assert.Contains(t, text, "go_goroutines")
}
