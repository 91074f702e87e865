// File: internal/session/session.go
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Manager tracks wallet activity against an inactivity timeout.
// last-activity timestamps come from time.Now(), whose monotonic
// reading makes the elapsed check immune to wall-clock jumps.
type Manager struct {
	mu           sync.Mutex
	sessionID    string
	lastActivity time.Time
	timeout      time.Duration
	active       bool

	checkInterval time.Duration
	running       atomic.Bool
	cancel        context.CancelFunc
}

// NewManager creates an active session with the given inactivity
// timeout and monitor tick interval.
func NewManager(timeout, checkInterval time.Duration) *Manager {
	return &Manager{
		sessionID:     uuid.NewString(),
		lastActivity:  time.Now(),
		timeout:       timeout,
		active:        true,
		checkInterval: checkInterval,
	}
}

// SessionID returns the identifier of the current session.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// RecordActivity resets the inactivity timer. Ignored while inactive.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		m.lastActivity = time.Now()
	}
}

// IsTimedOut reports whether the timeout has elapsed with no activity.
// Pure check; it does not change state.
func (m *Manager) IsTimedOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active && time.Since(m.lastActivity) >= m.timeout
}

// IsActive reports whether the session is live.
func (m *Manager) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Deactivate marks the session inactive (explicit lock or timeout).
func (m *Manager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
}

// Reactivate starts a fresh session after an unlock.
func (m *Manager) Reactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = uuid.NewString()
	m.lastActivity = time.Now()
	m.active = true
}

// StartMonitor launches the auto-lock monitor. Every check interval it
// tests for a timeout and, on the first crossing, marks the session
// inactive and invokes onTimeout exactly once. Cancellation is
// cooperative through the context; a second start while running is a
// no-op. Worst-case shutdown latency is one check interval.
func (m *Manager) StartMonitor(ctx context.Context, onTimeout func()) {
	if !m.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go func() {
		defer m.running.Store(false)
		ticker := time.NewTicker(m.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if m.timedOutOnce() {
					onTimeout()
				}
			}
		}
	}()
}

// timedOutOnce atomically checks for a timeout and deactivates, so the
// callback fires at most once per crossing.
func (m *Manager) timedOutOnce() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active && time.Since(m.lastActivity) >= m.timeout {
		m.active = false
		return true
	}
	return false
}

// StopMonitor requests a cooperative shutdown of the monitor.
func (m *Manager) StopMonitor() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// MonitorRunning reports whether the monitor goroutine is live.
func (m *Manager) MonitorRunning() bool {
	return m.running.Load()
}
