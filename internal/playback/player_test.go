package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

func sequence(n int) *trace.Sequence {
	steps := make([]trace.Step, n)
	for i := range steps {
		steps[i] = trace.Step{Narrative: "step"}
	}
	return trace.NewSequence(trace.KindArray, steps)
}

func TestLoadResetsCursorAndState(t *testing.T) {
	p := New(nil)
	defer p.Close()

	if snap := p.Snapshot(); snap.State != StateIdle {
		t.Fatalf("fresh player in state %q, want idle", snap.State)
	}

	p.Load(sequence(4))
	p.Seek(3)

	p.Load(sequence(2))
	snap := p.Snapshot()
	if snap.State != StateLoaded || snap.Index != 0 || snap.Length != 2 {
		t.Fatalf("reload should reset cursor and state, got %+v", snap)
	}
}

func TestNextPrevClampAtBounds(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(3))

	if got := p.Prev(); got != 0 {
		t.Fatalf("prev at start returned %d, want 0", got)
	}
	if got := p.Next(); got != 1 {
		t.Fatalf("next returned %d, want 1", got)
	}
	p.Next()
	if got := p.Next(); got != 2 {
		t.Fatalf("next at end returned %d, want clamp at 2", got)
	}
}

func TestSeekClamps(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(5))

	if got := p.Seek(99); got != 4 {
		t.Fatalf("seek past end landed at %d, want 4", got)
	}
	if got := p.Seek(-3); got != 0 {
		t.Fatalf("seek before start landed at %d, want 0", got)
	}
	if got := p.Seek(2); got != 2 {
		t.Fatalf("seek landed at %d, want 2", got)
	}
}

func TestEmptySequenceNavigationIsNoop(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(0))

	if got := p.Next(); got != 0 {
		t.Fatalf("next on empty sequence returned %d", got)
	}
	if got := p.Seek(5); got != 0 {
		t.Fatalf("seek on empty sequence returned %d", got)
	}
	p.Play()
	if snap := p.Snapshot(); snap.State != StateLoaded {
		t.Fatalf("play on empty sequence should be a no-op, got %q", snap.State)
	}
	if _, ok := p.Current(); ok {
		t.Fatal("empty sequence has no current step")
	}
}

func TestPlayAdvancesAndDisengagesAtEnd(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(3))
	p.SetInterval(MinInterval)

	done := make(chan Snapshot, 16)
	p.OnChange(func(s Snapshot) {
		if s.State == StatePaused && s.Index == 2 {
			select {
			case done <- s:
			default:
			}
		}
	})

	p.Play()
	if snap := p.Snapshot(); snap.State != StatePlaying {
		t.Fatalf("state %q after play, want playing", snap.State)
	}

	select {
	case snap := <-done:
		if snap.Index != 2 || snap.State != StatePaused {
			t.Fatalf("unexpected terminal snapshot: %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("auto-play never reached the end of the sequence")
	}

	// Terminal state is paused, silently; play restarts from where it stands.
	if snap := p.Snapshot(); snap.State != StatePaused {
		t.Fatalf("state %q at end, want paused", snap.State)
	}
}

func TestManualNextAtEndDisengagesAutoPlay(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(2))
	p.SetInterval(time.Minute) // park the clock far away
	p.Play()

	p.Next()
	snap := p.Snapshot()
	if snap.Index != 1 || snap.State != StatePaused {
		t.Fatalf("reaching the end manually should pause, got %+v", snap)
	}
}

func TestPauseStopsTheClock(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(10))
	p.SetInterval(MinInterval)
	p.Play()
	p.Pause()

	idx := p.Snapshot().Index
	time.Sleep(4 * MinInterval)
	if got := p.Snapshot().Index; got != idx {
		t.Fatalf("cursor moved from %d to %d while paused", idx, got)
	}
	if snap := p.Snapshot(); snap.State != StatePaused {
		t.Fatalf("state %q after pause, want paused", snap.State)
	}
}

func TestSetIntervalClampsToMinimum(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.SetInterval(time.Nanosecond)
	if got := p.Snapshot().Interval; got != MinInterval {
		t.Fatalf("interval %v, want the %v floor", got, MinInterval)
	}
}

func TestLoadWhilePlayingStopsAutoPlay(t *testing.T) {
	p := New(nil)
	defer p.Close()
	p.Load(sequence(10))
	p.SetInterval(MinInterval)
	p.Play()

	p.Load(sequence(10))
	if snap := p.Snapshot(); snap.State != StateLoaded || snap.Index != 0 {
		t.Fatalf("load during playback should stop the clock, got %+v", snap)
	}
	time.Sleep(4 * MinInterval)
	if got := p.Snapshot().Index; got != 0 {
		t.Fatalf("stale tick advanced the cursor to %d", got)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	p := New(nil)
	p.Load(sequence(10))
	p.SetInterval(MinInterval)
	p.Play()
	p.Close()

	idx := p.Snapshot().Index
	time.Sleep(4 * MinInterval)
	if got := p.Snapshot().Index; got != idx {
		t.Fatalf("cursor moved from %d to %d after close", idx, got)
	}

	p.Play()
	if snap := p.Snapshot(); snap.State == StatePlaying {
		t.Fatal("closed player accepted play")
	}
}

func TestOnChangeFiresOutsideTheLock(t *testing.T) {
	p := New(nil)
	defer p.Close()

	var mu sync.Mutex
	var seen []Snapshot
	p.OnChange(func(s Snapshot) {
		// Re-entering the player from the callback must not deadlock.
		_ = p.Snapshot()
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	p.Load(sequence(3))
	p.Next()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[1].Index != 1 {
		t.Fatalf("unexpected final snapshot: %+v", seen[1])
	}
}
