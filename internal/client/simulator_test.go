package client

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	assert.Equal(t, 0.0, Advance(0, 0))
	assert.Equal(t, 7.5, Advance(0, 0.5))
	assert.InDelta(t, 14.985, Advance(0, 0.999), 1e-9)
	assert.Equal(t, SimulatedCap, Advance(85, 0.9))
	assert.Equal(t, SimulatedCap, Advance(SimulatedCap, 0.999))
}

func TestSimulatorTicksToCap(t *testing.T) {
	sim := NewSimulator(time.Millisecond, func() float64 { return 0.99 })

	var mu sync.Mutex
	var ticks []Progress
	sim.Start(func(p Progress) {
		mu.Lock()
		ticks = append(ticks, p)
		mu.Unlock()
	})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) > 0 && ticks[len(ticks)-1].Percent == SimulatedCap
	}, time.Second, time.Millisecond)
	sim.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, ticks)
	prev := 0.0
	for _, p := range ticks {
		assert.GreaterOrEqual(t, p.Percent, prev)
		assert.LessOrEqual(t, p.Percent, SimulatedCap)
		assert.Equal(t, LabelFor(p.Percent), p.Label)
		prev = p.Percent
	}
}

func TestSimulatorStop(t *testing.T) {
	sim := NewSimulator(time.Millisecond, nil)

	var mu sync.Mutex
	count := 0
	sim.Start(func(Progress) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	time.Sleep(10 * time.Millisecond)
	sim.Stop()
	sim.Stop()

	mu.Lock()
	after := count
	mu.Unlock()
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, count)
}

func TestSimulatorStopBeforeStart(t *testing.T) {
	sim := NewSimulator(0, nil)
	sim.Stop()

	called := false
	sim.Start(func(Progress) { called = true })
	time.Sleep(DefaultTickInterval + 50*time.Millisecond)
	assert.False(t, called)
}
