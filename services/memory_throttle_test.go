package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryThrottle_HighWaterRaisesDelay(t *testing.T) {
	m := NewMemoryThrottle(100<<20, 50<<20, nil)

	m.apply(150 << 20)
	assert.Equal(t, throttleStep, m.Delay())

	m.apply(150 << 20)
	assert.Equal(t, 2*throttleStep, m.Delay())
}

func TestMemoryThrottle_DelayIsCapped(t *testing.T) {
	m := NewMemoryThrottle(100<<20, 50<<20, nil)
	for i := 0; i < 100; i++ {
		m.apply(150 << 20)
	}
	assert.Equal(t, throttleMax, m.Delay())
}

func TestMemoryThrottle_LowWaterDecays(t *testing.T) {
	m := NewMemoryThrottle(100<<20, 50<<20, nil)
	m.apply(150 << 20)
	m.apply(150 << 20)
	raised := m.Delay()

	m.apply(10 << 20)
	assert.Equal(t, raised/2, m.Delay())

	// Decay bottoms out at zero rather than shrinking forever.
	for i := 0; i < 10; i++ {
		m.apply(10 << 20)
	}
	assert.Equal(t, time.Duration(0), m.Delay())
}

func TestMemoryThrottle_MidBandHoldsSteady(t *testing.T) {
	m := NewMemoryThrottle(100<<20, 50<<20, nil)
	m.apply(150 << 20)
	before := m.Delay()

	m.apply(75 << 20)
	assert.Equal(t, before, m.Delay())
}

func TestMemoryThrottle_FailureStreak(t *testing.T) {
	m := NewMemoryThrottle(0, 0, nil)

	m.NoteFailure()
	assert.Equal(t, throttleStep, m.Delay())
	m.NoteFailure()
	assert.Equal(t, 3*throttleStep, m.Delay())

	m.NoteSuccess()
	m.NoteFailure()
	assert.Equal(t, 4*throttleStep, m.Delay())
}
