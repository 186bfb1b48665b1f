package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/ai"
	"github.com/jayeshwarhadi/HireLens/internal/layout"
	"github.com/jayeshwarhadi/HireLens/internal/overlay"
	"github.com/jayeshwarhadi/HireLens/internal/session"
	"github.com/jayeshwarhadi/HireLens/internal/trace"
)

func (s *Server) createSession(c *gin.Context) {
	sess := s.sessions.Create()
	s.metrics.sessionsCreated.Inc()
	s.metrics.activeSessions.Set(float64(s.sessions.Len()))

	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

func (s *Server) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if !s.sessions.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	s.metrics.activeSessions.Set(float64(s.sessions.Len()))
	s.closeSessionConns(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) getFrame(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess.Frame())
}

// AnalyzeRequest is the payload of POST /api/sessions/:id/analyze.
type AnalyzeRequest struct {
	SourceCode string `json:"source_code" binding:"required"`
	Kind       string `json:"kind"`
	Input      string `json:"input"`
}

func (s *Server) analyze(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := sess.Analyze(c.Request.Context(), &ai.Request{
		SourceCode: req.SourceCode,
		KindHint:   trace.ParseKind(req.Kind),
		Input:      req.Input,
	})
	switch {
	case errors.Is(err, session.ErrSuperseded):
		s.metrics.analyses.WithLabelValues("superseded").Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		s.metrics.analyses.WithLabelValues("error").Inc()
		s.log.Warn("analysis request failed",
			zap.String("session", sess.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.metrics.analyses.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, sess.Frame())
}

// PlaybackRequest is the payload of POST /api/sessions/:id/playback.
type PlaybackRequest struct {
	Action     string `json:"action" binding:"required"`
	Index      *int   `json:"index"`
	IntervalMS int    `json:"interval_ms"`
}

func (s *Server) playbackControl(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req PlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player := sess.Player()
	switch req.Action {
	case "play":
		player.Play()
	case "pause":
		player.Pause()
	case "next":
		player.Next()
	case "prev":
		player.Prev()
	case "seek":
		if req.Index == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seek requires an index"})
			return
		}
		player.Seek(*req.Index)
	case "speed":
		if req.IntervalMS <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "speed requires interval_ms > 0"})
			return
		}
		player.SetInterval(time.Duration(req.IntervalMS) * time.Millisecond)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + req.Action})
		return
	}

	c.JSON(http.StatusOK, sess.Frame())
}

// GestureRequest is one tracking frame from the frontend. Either raw hand
// landmarks or an already-derived pointer/pinch pair may be sent; absent
// both, the frame counts as lost tracking.
type GestureRequest struct {
	Present   bool                    `json:"present"`
	Pointer   *layout.Point           `json:"pointer"`
	Pinch     float64                 `json:"pinch"`
	Landmarks map[string]layout.Point `json:"landmarks"`
}

func (s *Server) gesture(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req GestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var frame overlay.Frame
	switch {
	case len(req.Landmarks) > 0:
		frame = overlay.FrameFromLandmarks(req.Landmarks)
	case req.Present && req.Pointer != nil:
		frame = overlay.Frame{Present: true, Pointer: *req.Pointer, Pinch: req.Pinch}
	}

	sess.Gesture(frame)
	c.JSON(http.StatusOK, gin.H{"gesture": sess.Overlay().State()})
}
