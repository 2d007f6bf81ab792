package client

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// DefaultTickInterval is how often the simulated progress advances.
	DefaultTickInterval = 500 * time.Millisecond
	// MaxStep bounds a single simulated increment, exclusive.
	MaxStep = 15.0
	// SimulatedCap is the highest percentage the simulator reaches.
	SimulatedCap = 90.0
)

// Advance applies one tick: r is a uniform sample in [0,1).
func Advance(percent, r float64) float64 {
	percent += r * MaxStep
	if percent > SimulatedCap {
		percent = SimulatedCap
	}
	return percent
}

// Simulator fabricates progress while a request is in flight. It does not
// reflect server work. A Simulator runs at most once.
type Simulator struct {
	interval time.Duration
	random   func() float64

	mu      sync.Mutex
	percent float64
	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSimulator creates a stopped simulator. Zero interval and nil random use
// DefaultTickInterval and math/rand.
func NewSimulator(interval time.Duration, random func() float64) *Simulator {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if random == nil {
		random = rand.Float64
	}
	return &Simulator{
		interval: interval,
		random:   random,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking; onTick runs on the simulator goroutine.
func (s *Simulator) Start(onTick func(Progress)) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.loop(onTick)
}

func (s *Simulator) loop(onTick func(Progress)) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.percent = Advance(s.percent, s.random())
			p := Progress{Percent: s.percent, Label: LabelFor(s.percent)}
			s.mu.Unlock()

			// Stop may have raced the tick.
			select {
			case <-s.stop:
				return
			default:
			}
			if onTick != nil {
				onTick(p)
			}
		}
	}
}

// Stop halts the simulator and waits for an in-progress tick to finish.
// It is safe to call more than once and before Start. The caller must not
// hold a lock that onTick takes.
func (s *Simulator) Stop() {
	s.once.Do(func() { close(s.stop) })

	s.mu.Lock()
	started := s.started
	s.started = true
	s.mu.Unlock()

	if started {
		<-s.done
	}
}
