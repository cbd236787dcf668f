package backend

import (
	"testing"
	"time"

	"hotkeyd/pkg/logx"
)

func TestExecKillEscalatesThroughTrackedHandle(t *testing.T) {
	t.Parallel()
	b := newExec(Config{Driver: "exec", KillTimeout: 50 * time.Millisecond}, logx.Nop())

	pid, err := b.StartProcess("sleep", []string{"60"})
	if err != nil {
		t.Skipf("cannot spawn sleep: %v", err)
	}
	if !b.tracked(pid) {
		t.Fatal("spawned process not tracked")
	}

	if err := b.KillProcess(pid, ""); err != nil {
		t.Fatalf("kill: %v", err)
	}

	// SIGTERM ends sleep; the reap goroutine must drop the tracking entry so
	// the delayed escalation signals a dead handle, not a recycled pid.
	deadline := time.Now().Add(2 * time.Second)
	for b.tracked(pid) {
		if time.Now().After(deadline) {
			t.Fatal("process still tracked after kill")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExecKillUnknownPidDoesNotEscalate(t *testing.T) {
	t.Parallel()
	b := newExec(Config{Driver: "exec"}, logx.Nop())

	// A pid this backend never spawned must not be remembered for a delayed
	// SIGKILL. Signalling may fail (no such process); tracking must stay empty.
	_ = b.KillProcess(1<<22 + 7, "")
	if b.tracked(1<<22 + 7) {
		t.Fatal("foreign pid entered the tracking table")
	}
}

func TestExecStartRejectsEmptyCommand(t *testing.T) {
	t.Parallel()
	b := newExec(Config{Driver: "exec"}, logx.Nop())
	if _, err := b.StartProcess("   ", nil); err == nil {
		t.Fatal("empty command accepted")
	}
}
