package client

import (
	"context"
	"sync"
	"time"
)

// DefaultResultDelay is how long "Complete!" stays up before the result panel.
const DefaultResultDelay = 1000 * time.Millisecond

// View renders controller decisions. Calls are serialised by the controller.
type View interface {
	SetBusy(busy bool)
	ShowProgress(p Progress)
	SetProgress(p Progress)
	ShowResult(p Preview)
	ShowError(msg string)
	HideAll()
	ShowFileInfo(text string)
	ClearFileInfo()
	ClearSelection()
	SetHighlight(on bool)
}

// State is the controller lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// DragEvent is a drag-and-drop notification from the drop zone.
type DragEvent int

const (
	DragEnter DragEvent = iota
	DragOver
	DragLeave
	Drop
)

// Options tunes controller timing. Zero values use the defaults.
type Options struct {
	TickInterval time.Duration
	ResultDelay  time.Duration
	Random       func() float64
}

// Controller owns one upload form: its view, transport and timers.
type Controller struct {
	uploader Uploader
	opts     Options

	mu       sync.Mutex
	view     View
	state    State
	selected *File
	sim      *Simulator
	timer    *time.Timer
}

// NewController creates a detached controller.
func NewController(uploader Uploader, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.ResultDelay <= 0 {
		opts.ResultDelay = DefaultResultDelay
	}
	return &Controller{uploader: uploader, opts: opts}
}

// Attach binds the controller to a view.
func (c *Controller) Attach(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// Detach unbinds the view and cancels pending timers. An in-flight
// submission still completes but renders nothing.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.view = nil
	c.stopTimerLocked()
	sim := c.sim
	c.sim = nil
	c.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Selected returns the accepted selection, or nil.
func (c *Controller) Selected() *File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Select handles a change of the file input. Only the first file counts;
// an empty list is ignored.
func (c *Controller) Select(files ...*File) error {
	if len(files) == 0 || files[0] == nil {
		return nil
	}
	file := files[0]

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return ErrDetached
	}

	c.view.HideAll()
	if err := ValidateFile(file); err != nil {
		c.selected = nil
		c.view.ClearSelection()
		c.view.ClearFileInfo()
		c.view.ShowError(ErrorText(err))
		return err
	}

	c.selected = file
	c.view.ShowFileInfo(FileInfoText(file))
	if c.state != StateSubmitting {
		c.state = StateIdle
	}
	return nil
}

// HandleDrag updates the drop zone highlight; a drop with files behaves
// like a manual selection.
func (c *Controller) HandleDrag(ev DragEvent, files ...*File) error {
	c.mu.Lock()
	if c.view == nil {
		c.mu.Unlock()
		return ErrDetached
	}
	c.view.SetHighlight(ev == DragEnter || ev == DragOver)
	c.mu.Unlock()

	if ev == Drop && len(files) > 0 {
		return c.Select(files...)
	}
	return nil
}

// SubmitSelected submits the current selection.
func (c *Controller) SubmitSelected(ctx context.Context, style string) (*Result, error) {
	return c.Submit(ctx, c.Selected(), style)
}

// Submit uploads file with the chosen style. It blocks until the server
// answers; the result panel follows after the result delay.
func (c *Controller) Submit(ctx context.Context, file *File, style string) (*Result, error) {
	c.mu.Lock()
	if c.view == nil {
		c.mu.Unlock()
		return nil, ErrDetached
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if file == nil {
		c.view.HideAll()
		c.view.ShowError(ErrorText(ErrNoFile))
		c.state = StateError
		c.mu.Unlock()
		return nil, ErrNoFile
	}

	c.stopTimerLocked()
	c.state = StateSubmitting
	c.view.SetBusy(true)
	c.view.HideAll()
	c.view.ShowProgress(Progress{Label: LabelProcessing})
	sim := NewSimulator(c.opts.TickInterval, c.opts.Random)
	c.sim = sim
	c.mu.Unlock()

	defer c.settle()

	sim.Start(func(p Progress) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.sim == sim && c.view != nil {
			c.view.SetProgress(p)
		}
	})

	res, err := c.uploader.Upload(ctx, file, style)
	sim.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sim == sim {
		c.sim = nil
	}

	if err != nil {
		c.state = StateError
		if c.view != nil {
			c.view.HideAll()
			c.view.ShowError(ErrorText(err))
		}
		return nil, err
	}

	c.state = StateSuccess
	if c.view != nil {
		c.view.SetProgress(Progress{Percent: 100, Label: LabelComplete})
		c.scheduleResultLocked(PreviewFor(res, file.Type))
	}
	return res, nil
}

// Reset clears the selection and hides every panel.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopTimerLocked()
	sim := c.sim
	c.sim = nil
	c.selected = nil
	if c.view != nil {
		c.view.ClearSelection()
		c.view.HideAll()
		c.view.ClearFileInfo()
	}
	if c.state != StateSubmitting {
		c.state = StateIdle
	}
	c.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
}

// settle re-enables the trigger once per submission.
func (c *Controller) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != nil {
		c.view.SetBusy(false)
	}
}

func (c *Controller) scheduleResultLocked(p Preview) {
	var t *time.Timer
	t = time.AfterFunc(c.opts.ResultDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.timer != t || c.view == nil {
			return
		}
		c.timer = nil
		c.view.ShowResult(p)
	})
	c.timer = t
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
