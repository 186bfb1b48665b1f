// Package server exposes the visualization sessions to the browser frontend
// over a JSON API and a per-session WebSocket frame stream.
package server

import (
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jayeshwarhadi/HireLens/internal/session"
)

// Config configures the HTTP server.
type Config struct {
	Addr       string
	EnableCORS bool
	Debug      bool
}

// Server routes frontend requests to sessions.
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	log      *zap.Logger
	metrics  *metrics

	upgrader websocket.Upgrader

	wsMu    sync.Mutex
	wsConns map[string]map[*wsClient]bool

	addr string
}

// New builds the server and its routes.
func New(cfg Config, sessions *session.Manager, log *zap.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.EnableCORS {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	s := &Server{
		router:   router,
		sessions: sessions,
		log:      log,
		metrics:  newMetrics(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The browser frontend runs on its own origin in development.
				return true
			},
		},
		wsConns: make(map[string]map[*wsClient]bool),
		addr:    cfg.Addr,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/health", s.health)

		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getFrame)
		api.DELETE("/sessions/:id", s.deleteSession)

		api.POST("/sessions/:id/analyze", s.analyze)
		api.POST("/sessions/:id/playback", s.playbackControl)
		api.POST("/sessions/:id/gesture", s.gesture)

		api.GET("/sessions/:id/ws", s.handleWebSocket)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
}

// Start runs the server until the listener fails.
func (s *Server) Start() error {
	s.log.Info("api server listening", zap.String("addr", s.addr))
	return s.router.Run(s.addr)
}

// Handler returns the underlying HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}
