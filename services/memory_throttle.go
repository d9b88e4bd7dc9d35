package services

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultHighWaterBytes = 500 << 20
	defaultLowWaterBytes  = 250 << 20
	throttleSampleEvery   = 2 * time.Second
	throttleStep          = 50 * time.Millisecond
	throttleMax           = time.Second
)

// MemoryThrottle watches process heap usage and maintains a delay that the
// chunk stream inserts between chunk handoffs. Above the high-water mark the
// delay grows; below the low-water mark it decays back toward zero.
// Consecutive chunk failures also push the delay up.
type MemoryThrottle struct {
	highWater uint64
	lowWater  uint64
	logger    *zap.Logger

	mu         sync.Mutex
	delay      time.Duration
	failStreak int

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryThrottle builds a throttle with the given water marks in bytes.
// Zero values fall back to the defaults (500MB high, 250MB low).
func NewMemoryThrottle(highWater, lowWater uint64, logger *zap.Logger) *MemoryThrottle {
	if highWater == 0 {
		highWater = defaultHighWaterBytes
	}
	if lowWater == 0 || lowWater >= highWater {
		lowWater = highWater / 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryThrottle{
		highWater: highWater,
		lowWater:  lowWater,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start launches the sampling loop. It returns immediately; the loop ends
// when ctx is cancelled or Stop is called.
func (m *MemoryThrottle) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(throttleSampleEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.sample()
			}
		}
	}()
}

// Stop ends the sampling loop. Safe to call more than once.
func (m *MemoryThrottle) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Delay returns the pause to insert before the next chunk handoff.
func (m *MemoryThrottle) Delay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.delay
}

// NoteFailure records a failed chunk and raises the delay proportionally to
// the failure streak.
func (m *MemoryThrottle) NoteFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStreak++
	m.delay += throttleStep * time.Duration(m.failStreak)
	if m.delay > throttleMax {
		m.delay = throttleMax
	}
	m.logger.Warn("chunk failure raised throttle",
		zap.Int("streak", m.failStreak),
		zap.Duration("delay", m.delay))
}

// NoteSuccess resets the failure streak. The delay itself only decays via
// the memory sampler.
func (m *MemoryThrottle) NoteSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStreak = 0
}

func (m *MemoryThrottle) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.apply(stats.HeapAlloc)
}

// apply adjusts the delay for one heap observation.
func (m *MemoryThrottle) apply(heapAlloc uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case heapAlloc > m.highWater:
		prev := m.delay
		m.delay += throttleStep
		if m.delay > throttleMax {
			m.delay = throttleMax
		}
		if m.delay != prev {
			m.logger.Warn("heap above high-water mark, throttling",
				zap.Uint64("heap_bytes", heapAlloc),
				zap.Duration("delay", m.delay))
		}
	case heapAlloc < m.lowWater && m.delay > 0:
		m.delay /= 2
		if m.delay < time.Millisecond {
			m.delay = 0
		}
	}
}
