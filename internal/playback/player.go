// Package playback owns the step cursor and the auto-advance clock of a
// visualization session.
package playback

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// State is the playback machine state. Finished is not a distinct state:
// reaching the last index while playing lands in StatePaused.
type State string

const (
	StateIdle    State = "idle"
	StateLoaded  State = "loaded"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// DefaultInterval is the auto-advance period used until SetInterval is called.
const DefaultInterval = time.Second

// MinInterval guards against a runaway tick loop from a bad speed request.
const MinInterval = 50 * time.Millisecond

// Snapshot is the externally visible playback state at one moment.
type Snapshot struct {
	State    State         `json:"state"`
	Index    int           `json:"index"`
	Length   int           `json:"length"`
	Interval time.Duration `json:"interval"`
}

// Player is a bounds-checked cursor over an immutable step sequence plus a
// timer-driven auto-advance clock. The timer handle is owned by the Player
// and dies with Close; nothing about the clock is ambient.
type Player struct {
	mu     sync.Mutex
	log    *zap.Logger
	notify func(Snapshot)

	seq      *trace.Sequence
	idx      int
	state    State
	interval time.Duration

	timer  *time.Timer
	gen    uint64
	closed bool
}

// New creates an idle player.
func New(log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{log: log, state: StateIdle, interval: DefaultInterval}
}

// OnChange registers a callback invoked after every state or cursor change.
// The callback runs outside the player's lock.
func (p *Player) OnChange(fn func(Snapshot)) {
	p.mu.Lock()
	p.notify = fn
	p.mu.Unlock()
}

// Load replaces the active sequence, resets the cursor to 0 and stops any
// running auto-play, regardless of prior state. An empty sequence is a valid
// degenerate case in which all navigation is a no-op.
func (p *Player) Load(seq *trace.Sequence) {
	p.mu.Lock()
	p.cancelClockLocked()
	p.seq = seq
	p.idx = 0
	p.state = StateLoaded
	p.log.Debug("sequence loaded", zap.Int("steps", seq.Len()))
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
}

// Play starts auto-advance from Loaded or Paused.
func (p *Player) Play() {
	p.mu.Lock()
	if p.closed || p.seq.Len() == 0 || (p.state != StateLoaded && p.state != StatePaused) {
		p.mu.Unlock()
		return
	}
	p.state = StatePlaying
	p.armLocked()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
}

// Pause stops auto-advance. No-op unless playing.
func (p *Player) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.cancelClockLocked()
	p.state = StatePaused
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
}

// Next advances the cursor by one, clamped at the last index. Reaching the
// last index while playing silently disengages auto-play.
func (p *Player) Next() int { return p.move(1) }

// Prev retreats the cursor by one, clamped at 0.
func (p *Player) Prev() int { return p.move(-1) }

// Seek moves the cursor to i, clamped to the valid range. Allowed in any
// play state; auto-play keeps running unless the seek lands on the end.
func (p *Player) Seek(i int) int {
	p.mu.Lock()
	if p.seq.Len() == 0 {
		idx := p.idx
		p.mu.Unlock()
		return idx
	}
	p.idx = clamp(i, 0, p.seq.Len()-1)
	p.finishIfDoneLocked()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
	return snap.Index
}

// SetInterval changes the auto-advance period without resetting the progress
// of the tick already in flight; the new period applies from the next tick.
func (p *Player) SetInterval(d time.Duration) {
	p.mu.Lock()
	if d < MinInterval {
		d = MinInterval
	}
	p.interval = d
	p.mu.Unlock()
}

// Snapshot returns the current playback state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Current returns the step under the cursor, or false for an empty sequence.
func (p *Player) Current() (trace.Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq.At(p.idx)
}

// Sequence returns the loaded sequence. It is read-only by contract.
func (p *Player) Sequence() *trace.Sequence {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Close stops the clock permanently. The player accepts no further Play.
func (p *Player) Close() {
	p.mu.Lock()
	p.cancelClockLocked()
	if p.state == StatePlaying {
		p.state = StatePaused
	}
	p.closed = true
	p.mu.Unlock()
}

func (p *Player) move(delta int) int {
	p.mu.Lock()
	if p.seq.Len() == 0 {
		idx := p.idx
		p.mu.Unlock()
		return idx
	}
	next := clamp(p.idx+delta, 0, p.seq.Len()-1)
	if next == p.idx {
		p.finishIfDoneLocked()
		idx := p.idx
		p.mu.Unlock()
		return idx
	}
	p.idx = next
	p.finishIfDoneLocked()
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
	return snap.Index
}

// armLocked schedules the next tick with the interval current at arm time,
// so interval changes take effect on the following tick.
func (p *Player) armLocked() {
	gen := p.gen
	p.timer = time.AfterFunc(p.interval, func() { p.tick(gen) })
}

func (p *Player) tick(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen || p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	if p.idx < p.seq.Len()-1 {
		p.idx++
	}
	p.finishIfDoneLocked()
	if p.state == StatePlaying {
		p.armLocked()
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
}

// finishIfDoneLocked disengages auto-play once the cursor sits on the last
// index. Terminal state is reached silently: no event, no error, just Paused.
func (p *Player) finishIfDoneLocked() {
	if p.state == StatePlaying && p.idx >= p.seq.Len()-1 {
		p.cancelClockLocked()
		p.state = StatePaused
		p.log.Debug("auto-play reached end of sequence", zap.Int("index", p.idx))
	}
}

// cancelClockLocked stops the pending timer and invalidates any tick already
// dispatched, by bumping the generation it compares against.
func (p *Player) cancelClockLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) snapshotLocked() Snapshot {
	return Snapshot{State: p.state, Index: p.idx, Length: p.seq.Len(), Interval: p.interval}
}

func (p *Player) emit(snap Snapshot) {
	p.mu.Lock()
	fn := p.notify
	p.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
