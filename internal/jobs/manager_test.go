package jobs

import (
	"testing"

	"docling-batch/internal/domain"
)

// TestManagerLifecycle verifies normal progression to done state.
func TestManagerLifecycle(t *testing.T) {
	m := NewManager()
	if m.IsActive() {
		t.Fatal("new manager should be idle")
	}

	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected active after start")
	}

	for _, status := range []domain.RunStatus{
		domain.RunStatusConverting,
		domain.RunStatusCleaning,
		domain.RunStatusDone,
	} {
		if err := m.Transition(status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}

	current := m.Current()
	if current.Status != domain.RunStatusDone {
		t.Fatalf("current status = %s, want done", current.Status)
	}
}

// TestManagerDoneWithoutCleaning verifies delete-disabled runs skip cleaning.
func TestManagerDoneWithoutCleaning(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.RunStatusConverting); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := m.Transition(domain.RunStatusDone); err != nil {
		t.Fatalf("converting -> done: %v", err)
	}
}

// TestManagerRejectsSecondStart checks single-run enforcement.
func TestManagerRejectsSecondStart(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Start("run-2"); err != ErrRunAlreadyActive {
		t.Fatalf("second start error = %v, want %v", err, ErrRunAlreadyActive)
	}
}

// TestManagerRejectsInvalidTransition checks state machine constraints.
func TestManagerRejectsInvalidTransition(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Transition(domain.RunStatusCleaning); err == nil {
		t.Fatal("expected invalid transition error")
	}
}

// TestManagerProgress verifies per-file counters on the active run.
func TestManagerProgress(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Transition(domain.RunStatusConverting); err != nil {
		t.Fatalf("transition: %v", err)
	}

	m.Progress(2, 5)
	current := m.Current()
	if current.Processed != 2 || current.Total != 5 {
		t.Fatalf("progress = %d/%d, want 2/5", current.Processed, current.Total)
	}

	// Progress after a terminal state is ignored.
	if err := m.Transition(domain.RunStatusDone); err != nil {
		t.Fatalf("transition to done: %v", err)
	}
	m.Progress(9, 9)
	if got := m.Current(); got.Processed != 2 {
		t.Fatalf("processed = %d, want 2 after terminal state", got.Processed)
	}
}

// TestManagerCancel verifies cancel behavior and repeated cancel handling.
func TestManagerCancel(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if m.Current().Status != domain.RunStatusCancelled {
		t.Fatalf("status = %s, want cancelled", m.Current().Status)
	}

	if err := m.Cancel(); err != ErrNoActiveRun {
		t.Fatalf("second cancel error = %v, want %v", err, ErrNoActiveRun)
	}
}

// TestManagerReset verifies terminal states reset to idle.
func TestManagerReset(t *testing.T) {
	m := NewManager()
	if err := m.Start("run-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	m.Reset()
	current := m.Current()
	if current.Status != domain.RunStatusIdle || current.ID != "" {
		t.Fatalf("after reset: %+v, want idle with no ID", current)
	}
}
