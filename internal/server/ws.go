package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/playback"
	"github.com/jayeshwarhadi/HireLens/internal/session"
)

// frameBuffer bounds the per-client send queue. A client that cannot keep up
// skips intermediate frames instead of stalling the playback clock.
const frameBuffer = 16

// wsClient owns one websocket connection. Every outgoing frame goes through
// the frames channel and a single writer goroutine; nothing else writes the
// conn.
type wsClient struct {
	conn   *websocket.Conn
	frames chan session.Frame
}

// enqueue hands a frame to the client's writer, dropping it when the buffer
// is full. Callers must hold wsMu, which also guarantees the channel cannot
// be closed mid-send.
func (c *wsClient) enqueue(frame session.Frame) {
	select {
	case c.frames <- frame:
	default:
	}
}

// attachFrameStream wires a session's playback changes to its websocket
// subscribers. Frames are pushed per state change, not per sub-tick update.
// Idempotent: re-attaching installs an equivalent callback.
func (s *Server) attachFrameStream(sess *session.Session) {
	sess.Player().OnChange(func(playback.Snapshot) {
		s.broadcastFrame(sess)
	})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	// Sessions reach the server through more than one path (REST create,
	// watch mode); the first subscriber makes sure the stream is wired.
	s.attachFrameStream(sess)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{conn: conn, frames: make(chan session.Frame, frameBuffer)}

	s.wsMu.Lock()
	if s.wsConns[sess.ID] == nil {
		s.wsConns[sess.ID] = make(map[*wsClient]bool)
	}
	s.wsConns[sess.ID][client] = true
	// The initial frame takes the same serialized path as every later one,
	// so the client does not have to wait for the next tick and never races
	// a concurrent broadcast.
	client.enqueue(sess.Frame())
	s.wsMu.Unlock()

	s.log.Debug("websocket client connected", zap.String("session", sess.ID))

	go s.writeLoop(sess.ID, client)

	// The read loop exists to detect disconnects; clients do not send data
	// over the socket, control goes through the REST endpoints.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.unregister(sess.ID, client)
				return
			}
		}
	}()
}

// broadcastFrame snapshots the session and enqueues the frame for every
// subscriber. Snapshot and enqueue happen under wsMu, so overlapping
// notifications cannot interleave and clients observe monotonic playback
// indices.
func (s *Server) broadcastFrame(sess *session.Session) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	clients := s.wsConns[sess.ID]
	if len(clients) == 0 {
		return
	}

	frame := sess.Frame()
	for client := range clients {
		client.enqueue(frame)
	}
}

// writeLoop is the single writer of the client's conn. It exits when the
// frames channel closes or a write fails, and always releases the conn.
func (s *Server) writeLoop(sessionID string, client *wsClient) {
	defer client.conn.Close()
	for frame := range client.frames {
		if err := client.conn.WriteJSON(frame); err != nil {
			s.unregister(sessionID, client)
			return
		}
	}
}

// unregister removes the client and closes its frame channel, which stops
// the writer. Safe to call from both the read and write loops; only the
// first call for a client takes effect.
func (s *Server) unregister(sessionID string, client *wsClient) {
	s.wsMu.Lock()
	if set, ok := s.wsConns[sessionID]; ok && set[client] {
		delete(set, client)
		if len(set) == 0 {
			delete(s.wsConns, sessionID)
		}
		close(client.frames)
	}
	s.wsMu.Unlock()
}

func (s *Server) closeSessionConns(sessionID string) {
	s.wsMu.Lock()
	set := s.wsConns[sessionID]
	delete(s.wsConns, sessionID)
	for client := range set {
		close(client.frames)
	}
	s.wsMu.Unlock()
}
