// File: internal/session/session_test.go
package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRecordActivityResetsTimer(t *testing.T) {
	m := NewManager(60*time.Millisecond, 10*time.Millisecond)

	if m.IsTimedOut() {
		t.Fatal("fresh session must not be timed out")
	}

	time.Sleep(40 * time.Millisecond)
	m.RecordActivity()
	time.Sleep(40 * time.Millisecond)

	// 80ms total, but only 40ms since the last activity.
	if m.IsTimedOut() {
		t.Error("activity should have reset the inactivity timer")
	}

	time.Sleep(40 * time.Millisecond)
	if !m.IsTimedOut() {
		t.Error("session should time out after the configured idle period")
	}
}

func TestDeactivateReactivate(t *testing.T) {
	m := NewManager(time.Hour, time.Minute)
	firstID := m.SessionID()

	m.Deactivate()
	if m.IsActive() {
		t.Error("session should be inactive after Deactivate")
	}
	if m.IsTimedOut() {
		t.Error("an inactive session never reports a timeout")
	}

	m.Reactivate()
	if !m.IsActive() {
		t.Error("session should be active after Reactivate")
	}
	if m.SessionID() == firstID {
		t.Error("reactivation must mint a new session id")
	}
}

func TestMonitorFiresOncePerTimeout(t *testing.T) {
	m := NewManager(30*time.Millisecond, 10*time.Millisecond)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartMonitor(ctx, func() { fired.Add(1) })

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("callback must fire exactly once per timeout crossing, fired %d times", got)
	}
	if m.IsActive() {
		t.Error("session must be inactive after the monitor fired")
	}

	// A new session crosses the timeout again.
	m.Reactivate()
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 2 {
		t.Errorf("expected a second firing after reactivation, got %d", got)
	}
}

func TestMonitorDoubleStartIsNoop(t *testing.T) {
	m := NewManager(time.Hour, 10*time.Millisecond)
	ctx := context.Background()

	m.StartMonitor(ctx, func() {})
	m.StartMonitor(ctx, func() {})

	if !m.MonitorRunning() {
		t.Fatal("monitor should be running")
	}

	m.StopMonitor()
	// Cooperative stop: worst case one check interval.
	deadline := time.Now().Add(200 * time.Millisecond)
	for m.MonitorRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.MonitorRunning() {
		t.Error("monitor should stop after cancellation")
	}
}

func TestMonitorStopsWithContext(t *testing.T) {
	m := NewManager(time.Hour, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	m.StartMonitor(ctx, func() {})
	cancel()

	deadline := time.Now().Add(200 * time.Millisecond)
	for m.MonitorRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if m.MonitorRunning() {
		t.Error("monitor should stop when the parent context is cancelled")
	}
}
