package upload

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/style-studio/backend/internal/logging"
	"github.com/style-studio/backend/internal/models"
	"github.com/style-studio/backend/internal/storage"
	"github.com/style-studio/backend/internal/style"
	"github.com/style-studio/backend/internal/video"
)

// ImageStyler styles a single image file.
type ImageStyler interface {
	Apply(src, dst, style string) error
}

// VideoProcessor styles a video file frame by frame.
type VideoProcessor interface {
	Process(ctx context.Context, input, output, style string, progress video.ProgressFunc) error
}

// Listener receives a snapshot of a job every time it changes.
type Listener func(job models.Job)

// Options tunes the manager.
type Options struct {
	MaxConcurrent int
	Retention     time.Duration
}

// Manager runs style transfer jobs over uploaded files.
type Manager struct {
	store  storage.Store
	images ImageStyler
	videos VideoProcessor
	jobs   *ttlworker.Cache[string, *models.Job]
	sem    chan struct{}
	log    *log.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	finishers []Listener
	nextID    int
	running   int
}

// NewManager creates a new job manager.
func NewManager(store storage.Store, images ImageStyler, videos VideoProcessor, opts Options) *Manager {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}
	return &Manager{
		store:     store,
		images:    images,
		videos:    videos,
		jobs:      ttlworker.NewCache[string, *models.Job](opts.Retention),
		sem:       make(chan struct{}, opts.MaxConcurrent),
		log:       logging.WithPrefix("jobs"),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l for every job update. The returned func removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// OnFinish registers l for jobs reaching complete or error.
func (m *Manager) OnFinish(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishers = append(m.finishers, l)
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (models.Job, bool) {
	job := m.jobs.Get(id)
	if job == nil {
		return models.Job{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *job, true
}

// Running returns the number of jobs currently holding a processing slot.
func (m *Manager) Running() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Run styles file with the given style and blocks until the job finishes.
// The upload is removed afterwards. On failure the returned job carries the error too.
func (m *Manager) Run(ctx context.Context, file *models.MediaFile, style string) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.New().String(),
		FileID:    file.ID,
		FileName:  file.Name,
		Style:     style,
		Kind:      file.Kind,
		Status:    models.JobStatusQueued,
		Stage:     "waiting for a free worker",
		InputSize: file.Size,
		CreatedAt: time.Now(),
	}
	m.jobs.Set(job.ID, job)
	m.notify(job)

	defer func() {
		if err := m.store.RemoveUpload(file.ID); err != nil {
			m.log.Warn("could not remove upload", "file", file.ID, "err", err)
		}
	}()

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		m.fail(job, ctx.Err())
		return m.snapshot(job), ctx.Err()
	}
	m.mu.Lock()
	m.running++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running--
		m.mu.Unlock()
		<-m.sem
	}()

	m.log.Info("starting job", "job", shortID(job.ID), "file", file.Name, "style", style, "kind", file.Kind)

	resultName, err := m.process(ctx, job, file)
	if err != nil {
		m.fail(job, err)
		return m.snapshot(job), err
	}

	path, _ := m.store.ResultPath(resultName)
	var outSize int64
	if info, err := os.Stat(path); err == nil {
		outSize = info.Size()
	}

	m.mu.Lock()
	job.Status = models.JobStatusComplete
	job.Stage = "complete"
	job.Progress = 100
	job.ResultName = resultName
	job.OutputSize = outSize
	now := time.Now()
	job.CompletedAt = &now
	m.mu.Unlock()

	m.log.Info("job complete", "job", shortID(job.ID), "result", resultName, "took", job.Duration().Round(time.Millisecond))
	m.finish(job)
	return m.snapshot(job), nil
}

func (m *Manager) process(ctx context.Context, job *models.Job, file *models.MediaFile) (string, error) {
	input, err := m.store.UploadPath(file.ID)
	if err != nil {
		return "", err
	}

	ext := style.OutputExt(file.Ext)
	if file.Kind == models.MediaVideo {
		ext = "mp4"
	}
	resultName := m.store.ResultName(file.ID, ext)
	output, err := m.store.ResultPath(resultName)
	if err != nil {
		return "", err
	}

	if file.Kind == models.MediaVideo {
		m.update(job, models.JobStatusProcessing, "extracting frames", 5)
		err = m.videos.Process(ctx, input, output, job.Style, func(done, total int) {
			if done >= total {
				m.update(job, models.JobStatusEncoding, "encoding video", 90)
				return
			}
			m.update(job, models.JobStatusProcessing, fmt.Sprintf("styling frames %d/%d", done, total),
				10+80*float64(done)/float64(total))
		})
		if err != nil {
			return "", fmt.Errorf("processing video: %w", err)
		}
		return resultName, nil
	}

	m.update(job, models.JobStatusProcessing, "applying style", 10)
	if err := m.images.Apply(input, output, job.Style); err != nil {
		return "", fmt.Errorf("processing image: %w", err)
	}
	return resultName, nil
}

func (m *Manager) update(job *models.Job, status models.JobStatus, stage string, progress float64) {
	m.mu.Lock()
	job.Status = status
	job.Stage = stage
	job.Progress = progress
	m.mu.Unlock()
	m.jobs.Set(job.ID, job)
	m.notify(job)
}

func (m *Manager) fail(job *models.Job, err error) {
	m.mu.Lock()
	job.Status = models.JobStatusError
	job.Stage = "failed"
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	m.mu.Unlock()

	m.log.Error("job failed", "job", shortID(job.ID), "err", err)
	m.finish(job)
}

func (m *Manager) finish(job *models.Job) {
	m.jobs.Set(job.ID, job)
	m.notify(job)

	snap := m.snapshot(job)
	m.mu.RLock()
	finishers := append([]Listener(nil), m.finishers...)
	m.mu.RUnlock()
	for _, l := range finishers {
		l(*snap)
	}
}

func (m *Manager) notify(job *models.Job) {
	snap := m.snapshot(job)
	m.mu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()
	for _, l := range listeners {
		l(*snap)
	}
}

func (m *Manager) snapshot(job *models.Job) *models.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := *job
	return &cp
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
