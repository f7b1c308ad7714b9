package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trinity-go/hooks"
	"trinity-go/shm"
)

func TestNew_RejectsZeroChildren(t *testing.T) {
	_, err := New(Options{Children: 0, NumEntries: 4})
	if err == nil {
		t.Fatal("expected error for zero children")
	}
}

func TestNew_DefaultsPollAndHangTimeout(t *testing.T) {
	s, err := New(Options{
		Children:   1,
		NumEntries: 4,
		Self:       "/bin/sh",
		ChildArgs:  func(int) []string { return []string{"-c", "sleep 0.01"} },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.region.Close()

	if s.opts.PollInterval <= 0 {
		t.Error("expected a default PollInterval")
	}
	if s.opts.HangTimeout <= 0 {
		t.Error("expected a default HangTimeout")
	}
}

func TestSupervisor_SpawnsOneWorkerPerSlot(t *testing.T) {
	s, err := New(Options{
		Children:     3,
		NumEntries:   4,
		Self:         "/bin/sh",
		ChildArgs:    func(int) []string { return []string{"-c", "sleep 0.2"} },
		ReadyTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.region.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(s.workers) != 3 {
		t.Fatalf("workers len = %d, want 3", len(s.workers))
	}
	for i, w := range s.workers {
		if w == nil || w.cmd.Process == nil {
			t.Errorf("slot %d: expected a started process", i)
		}
	}
}

func TestSupervisor_KillAndRespawnFiresHooks(t *testing.T) {
	dir := t.TempDir()
	killedMark := filepath.Join(dir, "killed")
	respawnedMark := filepath.Join(dir, "respawned")
	set := hooks.Set{
		hooks.ChildKilled:    {{Path: "/bin/sh", Args: []string{"-c", ": > " + killedMark}}},
		hooks.ChildRespawned: {{Path: "/bin/sh", Args: []string{"-c", ": > " + respawnedMark}}},
	}

	s, err := New(Options{
		Children:     1,
		NumEntries:   4,
		Self:         "/bin/sh",
		ChildArgs:    func(int) []string { return []string{"-c", "sleep 5"} },
		HangTimeout:  10 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		ReadyTimeout: 10 * time.Millisecond,
		Hooks:        set,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.region.Close()

	if err := s.spawn(0); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	rec, err := s.region.Slot(0)
	if err != nil {
		t.Fatalf("Slot: %v", err)
	}
	rec.Lock()
	rec.SetState(shm.StateBefore)
	rec.SetTimestamp(time.Now().Add(-time.Hour).Unix(), 0)
	rec.Unlock()

	s.pollOnce()

	if len(s.workers) != 1 || s.workers[0] == nil {
		t.Fatal("expected a respawned worker in slot 0")
	}
	for _, mark := range []string{killedMark, respawnedMark} {
		if _, err := os.Stat(mark); err != nil {
			t.Errorf("hook did not run: %v", err)
		}
	}
}

func TestSupervisor_SpawnCompletesQuicklyWhenChildSignalsReady(t *testing.T) {
	// fd 4 is the sync pipe's write end; a real trinity worker signals it
	// right after setup. This script stands in for that and should let
	// spawn return well before ReadyTimeout elapses.
	s, err := New(Options{
		Children:     1,
		NumEntries:   4,
		Self:         "/bin/sh",
		ChildArgs:    func(int) []string { return []string{"-c", "echo -n x >&4; sleep 0.2"} },
		ReadyTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.region.Close()

	start := time.Now()
	if err := s.spawn(0); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("spawn took %v, expected to return quickly once the child signals ready", elapsed)
	}
}

func TestSupervisor_Counters(t *testing.T) {
	s, err := New(Options{Children: 1, NumEntries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.region.Close()

	s.region.IncTotalDone()
	s.region.IncSuccesses()

	c := s.Counters()
	if c.TotalDone != 1 || c.Successes != 1 || c.Failures != 0 {
		t.Errorf("Counters() = %+v, want TotalDone=1 Successes=1 Failures=0", c)
	}
}

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", -3: "-3", 42: "42"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}
