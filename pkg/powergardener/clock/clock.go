package clock

import "time"

// Clock is an interface that wraps time functions to make them testable.
// Sleep is part of the interface because both measurement windows and
// post-policy settling delays are full blocking waits.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Sleep(d time.Duration)
}

// RealClock implements Clock interface with actual time
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MockClock implements Clock interface for testing. Sleep advances the
// mock time instead of blocking, so timed waits run instantly in tests.
type MockClock struct {
	now   time.Time
	slept []time.Duration
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	return m.now
}

func (m *MockClock) Since(t time.Time) time.Duration {
	return m.now.Sub(t)
}

func (m *MockClock) Sleep(d time.Duration) {
	m.slept = append(m.slept, d)
	m.now = m.now.Add(d)
}

func (m *MockClock) Set(t time.Time) {
	m.now = t
}

// Advance moves the mock time forward without recording a sleep.
func (m *MockClock) Advance(d time.Duration) {
	m.now = m.now.Add(d)
}

// Slept returns the durations passed to Sleep, in call order.
func (m *MockClock) Slept() []time.Duration {
	return m.slept
}
