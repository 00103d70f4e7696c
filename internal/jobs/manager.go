package jobs

import (
	"errors"
	"fmt"
	"sync"

	"docling-batch/internal/domain"
)

// ErrRunAlreadyActive is returned when starting a second concurrent run.
var ErrRunAlreadyActive = errors.New("conversion run already active")

// ErrNoActiveRun is returned when cancel is requested for idle state.
var ErrNoActiveRun = errors.New("no active conversion run")

// Manager tracks the single allowed active run and its transitions.
type Manager struct {
	mu      sync.RWMutex
	current domain.Run
}

// NewManager creates a manager in idle state.
func NewManager() *Manager {
	return &Manager{
		current: domain.Run{
			Status: domain.RunStatusIdle,
		},
	}
}

// Start creates a new run and moves it to discovering state.
func (m *Manager) Start(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if isActive(m.current.Status) {
		return ErrRunAlreadyActive
	}

	m.current = domain.Run{
		ID:     runID,
		Status: domain.RunStatusDiscovering,
	}
	return nil
}

// Transition validates and applies state transitions for the current run.
func (m *Manager) Transition(status domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.ID == "" && status != domain.RunStatusIdle {
		return fmt.Errorf("cannot transition without an active run")
	}
	if status == m.current.Status {
		return nil
	}
	if !isValidTransition(m.current.Status, status) {
		return fmt.Errorf("invalid transition: %s -> %s", m.current.Status, status)
	}

	m.current.Status = status
	return nil
}

// Progress records the per-file counters while the run is active.
func (m *Manager) Progress(processed, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isActive(m.current.Status) {
		return
	}
	m.current.Processed = processed
	m.current.Total = total
}

// Current returns a snapshot of the current run.
func (m *Manager) Current() domain.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Reset clears run metadata and returns manager to idle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Run{Status: domain.RunStatusIdle}
}

// IsActive reports whether the current state is an active stage.
func (m *Manager) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return isActive(m.current.Status)
}

// Cancel moves an active run to cancelled state.
func (m *Manager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isActive(m.current.Status) {
		return ErrNoActiveRun
	}
	m.current.Status = domain.RunStatusCancelled
	return nil
}

// isActive checks if a status represents an in-flight run.
func isActive(status domain.RunStatus) bool {
	switch status {
	case domain.RunStatusDiscovering, domain.RunStatusConverting, domain.RunStatusCleaning:
		return true
	default:
		return false
	}
}

// isValidTransition enforces the allowed run state machine edges.
func isValidTransition(from, to domain.RunStatus) bool {
	switch from {
	case domain.RunStatusIdle:
		return to == domain.RunStatusDiscovering
	case domain.RunStatusDiscovering:
		return to == domain.RunStatusConverting || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusConverting:
		return to == domain.RunStatusCleaning || to == domain.RunStatusDone || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusCleaning:
		return to == domain.RunStatusDone || to == domain.RunStatusFailed || to == domain.RunStatusCancelled
	case domain.RunStatusDone, domain.RunStatusFailed, domain.RunStatusCancelled:
		return to == domain.RunStatusDiscovering || to == domain.RunStatusIdle
	default:
		return false
	}
}
