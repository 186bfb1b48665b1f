// Package session ties one visualization together: the analyzed sequence,
// its playback player, the projector and the gesture overlay. Everything is
// in-memory and dies with the session; nothing persists across a restart.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/layout"
	"github.com/jayeshwarhadi/HireLens/internal/overlay"
	"github.com/jayeshwarhadi/HireLens/internal/playback"
	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

// ErrSuperseded is returned when an analysis result arrives after a newer
// request was issued; the late result is discarded, never applied.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

// Frame is the complete displayable state of a session at one moment.
type Frame struct {
	SessionID     string               `json:"session_id"`
	Playback      playback.Snapshot    `json:"playback"`
	Step          *trace.Step          `json:"step,omitempty"`
	Layout        layout.Layout        `json:"layout"`
	Gesture       overlay.GestureState `json:"gesture"`
	AnalysisError string               `json:"analysis_error,omitempty"`
}

// Session owns one visualization.
type Session struct {
	ID string

	log       *zap.Logger
	analyzer  ai.Analyzer
	projector *layout.Projector
	player    *playback.Player
	overlay   *overlay.Overlay

	// ticket numbers analysis requests monotonically so a stale response
	// can never overwrite the state produced by a newer one.
	ticket atomic.Uint64

	mu          sync.Mutex
	prior       map[string]layout.Point
	analysisErr error
}

func newSession(id string, analyzer ai.Analyzer, projector *layout.Projector, log *zap.Logger) *Session {
	ovCfg := overlay.DefaultConfig(projector.Config().Pitch())
	return &Session{
		ID:        id,
		log:       log,
		analyzer:  analyzer,
		projector: projector,
		player:    playback.New(log),
		overlay:   overlay.New(ovCfg, log),
	}
}

// Player exposes the playback controls.
func (s *Session) Player() *playback.Player { return s.player }

// Overlay exposes the gesture overlay.
func (s *Session) Overlay() *overlay.Overlay { return s.overlay }

// Analyze runs one analysis call and, when it is still the latest issued,
// loads the resulting sequence. On failure the previous sequence stays
// loaded so the user can retry without losing their visualization.
func (s *Session) Analyze(ctx context.Context, req *ai.Request) error {
	ticket := s.ticket.Add(1)

	seq, err := s.analyzer.Analyze(ctx, req)

	if ticket != s.ticket.Load() {
		s.log.Debug("discarding superseded analysis",
			zap.String("session", s.ID),
			zap.Uint64("ticket", ticket),
		)
		return ErrSuperseded
	}

	if err != nil {
		s.mu.Lock()
		s.analysisErr = err
		s.mu.Unlock()
		s.log.Warn("analysis failed",
			zap.String("session", s.ID),
			zap.Error(err),
		)
		return err
	}

	s.mu.Lock()
	s.analysisErr = nil
	s.prior = nil
	s.mu.Unlock()

	// Loading resets the cursor and stops auto-play; overlay offsets refer
	// to the previous sequence's element IDs and are dropped with it.
	s.overlay.Reset()
	s.player.Load(seq)

	s.log.Info("analysis loaded",
		zap.String("session", s.ID),
		zap.String("kind", string(seq.Kind)),
		zap.Int("steps", seq.Len()),
	)
	return nil
}

// Frame projects the step under the cursor and applies overlay offsets.
func (s *Session) Frame() Frame {
	snap := s.player.Snapshot()
	frame := Frame{
		SessionID: s.ID,
		Playback:  snap,
		Gesture:   s.overlay.State(),
	}

	step, ok := s.player.Current()
	if ok {
		frame.Step = &step
	}

	base := s.projectCurrent(frame.Step)
	frame.Layout = s.overlay.Apply(base)

	s.mu.Lock()
	if s.analysisErr != nil {
		frame.AnalysisError = s.analysisErr.Error()
	}
	s.mu.Unlock()

	return frame
}

// Gesture feeds one tracking frame into the overlay against the current
// projection.
func (s *Session) Gesture(f overlay.Frame) {
	var step *trace.Step
	if cur, ok := s.player.Current(); ok {
		step = &cur
	}
	s.overlay.Observe(f, s.projectCurrent(step))
}

// Close releases the playback clock.
func (s *Session) Close() {
	s.player.Close()
}

func (s *Session) projectCurrent(step *trace.Step) layout.Layout {
	var st *trace.State
	if step != nil {
		st = step.State
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.projector.Project(st, s.prior)
	if !base.Empty {
		positions := make(map[string]layout.Point, len(base.Elements))
		for _, el := range base.Elements {
			positions[el.ID] = el.Pos
		}
		s.prior = positions
	}
	return base
}
