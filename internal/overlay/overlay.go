// Package overlay lets a user reposition rendered elements by pinch gesture
// or drag. It is presentation-only state: swaps and drags never touch the
// underlying trace, so a learner can experiment spatially without corrupting
// the authoritative sequence.
package overlay

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/layout"
)

// Config holds the gesture thresholds.
type Config struct {
	// EngagePinch is the normalized pinch distance below which a grab
	// starts. ReleasePinch is the larger distance that must be crossed to
	// release; the spread between the two suppresses jitter flicker.
	EngagePinch  float64
	ReleasePinch float64
	// Smoothing is the exponential-moving-average factor applied to the
	// pointer while dragging: smoothed += (raw - smoothed) * Smoothing.
	Smoothing float64
	// HoverRadius is the pointer-to-center distance treated as hovering.
	HoverRadius float64
	// SwapRadius is the release proximity within which the grabbed element
	// swaps slots with its nearest neighbor; nominally 1.2x the pitch.
	SwapRadius float64
}

// DefaultConfig derives thresholds from the projector's element pitch.
func DefaultConfig(pitch float64) Config {
	return Config{
		EngagePinch:  0.05,
		ReleasePinch: 0.09,
		Smoothing:    0.35,
		HoverRadius:  pitch * 0.55,
		SwapRadius:   pitch * 1.2,
	}
}

// Frame is one tick of tracking input. Present is false when no hand or
// pointer was detected.
type Frame struct {
	Present bool
	Pointer layout.Point
	Pinch   float64
}

// FrameFromLandmarks derives a frame from named hand landmarks. The pinch
// metric is the thumb-tip to index-tip distance; the pointer follows the
// index tip. A missing landmark means no usable signal.
func FrameFromLandmarks(landmarks map[string]layout.Point) Frame {
	thumb, okThumb := landmarks["thumb_tip"]
	index, okIndex := landmarks["index_tip"]
	if !okThumb || !okIndex {
		return Frame{}
	}
	return Frame{
		Present: true,
		Pointer: index,
		Pinch:   distance(thumb, index),
	}
}

// Source delivers tracking frames to a subscriber. Implementations must stop
// calling fn once the returned stop function runs.
type Source interface {
	Subscribe(fn func(Frame)) (stop func())
}

// Overlay holds per-element display offsets and transient gesture state.
// Offsets are keyed by the stable element ID, not by position, so they
// survive reordering during a swap.
type Overlay struct {
	mu  sync.Mutex
	cfg Config
	log *zap.Logger

	offsets map[string]layout.Point

	pinching    bool
	grabbedID   string
	hoverID     string
	preGrab     layout.Point
	smoothed    layout.Point
	hasSmoothed bool
	lastPointer layout.Point
}

// New creates an overlay with the given thresholds.
func New(cfg Config, log *zap.Logger) *Overlay {
	if log == nil {
		log = zap.NewNop()
	}
	return &Overlay{cfg: cfg, log: log, offsets: map[string]layout.Point{}}
}

// GestureState is a read-only snapshot of the transient gesture fields.
type GestureState struct {
	Pinching    bool         `json:"pinching"`
	GrabbedID   string       `json:"grabbed_id,omitempty"`
	HoverID     string       `json:"hover_id,omitempty"`
	LastPointer layout.Point `json:"last_pointer"`
}

// State returns the current gesture snapshot.
func (o *Overlay) State() GestureState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return GestureState{
		Pinching:    o.pinching,
		GrabbedID:   o.grabbedID,
		HoverID:     o.hoverID,
		LastPointer: o.lastPointer,
	}
}

// Offsets returns a copy of the stored per-element offsets.
func (o *Overlay) Offsets() map[string]layout.Point {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]layout.Point, len(o.offsets))
	for id, off := range o.offsets {
		out[id] = off
	}
	return out
}

// SetOffset stores an offset directly. Used by the mouse-drag path, which
// reports absolute offsets instead of pinch frames.
func (o *Overlay) SetOffset(id string, off layout.Point) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offsets[id] = off
}

// Reset drops all offsets and gesture state. Called whenever the sequence is
// replaced, since stored element IDs no longer mean anything.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offsets = map[string]layout.Point{}
	o.clearGestureLocked()
}

// Apply returns a copy of the base layout with stored offsets added to the
// matching elements.
func (o *Overlay) Apply(base layout.Layout) layout.Layout {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := base
	out.Elements = make([]layout.Element, len(base.Elements))
	copy(out.Elements, base.Elements)
	for i := range out.Elements {
		if off, ok := o.offsets[out.Elements[i].ID]; ok {
			out.Elements[i].Pos.X += off.X
			out.Elements[i].Pos.Y += off.Y
		}
	}
	return out
}

// Observe processes one tracking frame against the current base layout.
// Writes happen once per tick, never per sub-pixel movement; the render pass
// reads the result through Apply/Offsets.
func (o *Overlay) Observe(frame Frame, base layout.Layout) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !frame.Present {
		// Lost tracking is an implicit release with no target: the grab
		// reverts and no dangling reference survives the gap.
		if o.grabbedID != "" {
			o.offsets[o.grabbedID] = o.preGrab
			o.log.Debug("tracking lost, reverting grab", zap.String("element", o.grabbedID))
		}
		o.clearGestureLocked()
		return
	}

	o.lastPointer = frame.Pointer

	engaged := false
	released := false
	if !o.pinching && frame.Pinch <= o.cfg.EngagePinch {
		o.pinching = true
		engaged = true
	} else if o.pinching && frame.Pinch >= o.cfg.ReleasePinch {
		o.pinching = false
		released = true
	}

	displayed := o.displayedLocked(base)
	o.hoverID = nearestWithin(displayed, frame.Pointer, o.cfg.HoverRadius, "")

	switch {
	case engaged && o.grabbedID == "" && o.hoverID != "":
		o.grabbedID = o.hoverID
		o.preGrab = o.offsets[o.grabbedID]
		o.smoothed = frame.Pointer
		o.hasSmoothed = true
		o.log.Debug("grab engaged", zap.String("element", o.grabbedID))

	case released && o.grabbedID != "":
		o.releaseLocked(base, displayed)
		return
	}

	if o.pinching && o.grabbedID != "" {
		if !o.hasSmoothed {
			o.smoothed = frame.Pointer
			o.hasSmoothed = true
		} else {
			o.smoothed.X += (frame.Pointer.X - o.smoothed.X) * o.cfg.Smoothing
			o.smoothed.Y += (frame.Pointer.Y - o.smoothed.Y) * o.cfg.Smoothing
		}
		if basePos, ok := base.Position(o.grabbedID); ok {
			o.offsets[o.grabbedID] = layout.Point{
				X: o.smoothed.X - basePos.X,
				Y: o.smoothed.Y - basePos.Y,
			}
		}
	}
}

// releaseLocked resolves an ended grab: swap stored offsets with the nearest
// sufficiently close neighbor, or snap back to the pre-grab offset.
func (o *Overlay) releaseLocked(base layout.Layout, displayed []layout.Element) {
	grabbed := o.grabbedID
	var grabbedPos layout.Point
	for _, el := range displayed {
		if el.ID == grabbed {
			grabbedPos = el.Pos
			break
		}
	}

	target := nearestWithin(displayed, grabbedPos, o.cfg.SwapRadius, grabbed)
	if target != "" {
		o.offsets[grabbed], o.offsets[target] = o.offsets[target], o.preGrab
		o.log.Debug("swap committed",
			zap.String("grabbed", grabbed),
			zap.String("target", target),
		)
	} else {
		o.offsets[grabbed] = o.preGrab
		o.log.Debug("no swap target, reverting", zap.String("element", grabbed))
	}
	o.clearGrabLocked()
}

func (o *Overlay) clearGrabLocked() {
	o.grabbedID = ""
	o.hasSmoothed = false
}

func (o *Overlay) clearGestureLocked() {
	o.pinching = false
	o.hoverID = ""
	o.clearGrabLocked()
}

// displayedLocked returns interactive elements at their displayed positions
// (base plus offset). Synthetic markers are not interactive.
func (o *Overlay) displayedLocked(base layout.Layout) []layout.Element {
	out := make([]layout.Element, 0, len(base.Elements))
	for _, el := range base.Elements {
		if el.Marker {
			continue
		}
		if off, ok := o.offsets[el.ID]; ok {
			el.Pos.X += off.X
			el.Pos.Y += off.Y
		}
		out = append(out, el)
	}
	return out
}

// Attach subscribes the overlay to a frame source, reading the base layout
// lazily per frame. The returned stop function halts the subscription and is
// safe to call more than once.
func (o *Overlay) Attach(src Source, base func() layout.Layout) (stop func()) {
	return src.Subscribe(func(f Frame) {
		o.Observe(f, base())
	})
}

func nearestWithin(elements []layout.Element, from layout.Point, radius float64, exclude string) string {
	best := ""
	bestDist := radius
	for _, el := range elements {
		if el.ID == exclude {
			continue
		}
		if d := distance(from, el.Pos); d <= bestDist {
			best = el.ID
			bestDist = d
		}
	}
	return best
}

func distance(a, b layout.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
