package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/koupai/koupai/internal/store"
)

// reapInterval is how often idle empty rooms are checked for removal.
const reapInterval = 5 * time.Minute

// Server accepts WebSocket clients and routes them into rooms.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	rooms       *RoomManager
	maxIdle     time.Duration
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServer creates a server from its configuration.
func NewServer(config *ServerConfig, st store.Store, clock quartz.Clock, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr: config.GetServerAddress(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Development default; restrict origins in production.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		maxIdle:     time.Duration(config.Match.MaxIdleMinutes) * time.Minute,
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.rooms = NewRoomManager(config, st, clock, logger)
	return s
}

// Rooms exposes the room manager, mainly for tests.
func (s *Server) Rooms() *RoomManager {
	return s.rooms
}

// Start runs the server until the listener fails.
func (s *Server) Start() error {
	go s.run()
	go s.reapLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop shuts down all connections.
func (s *Server) Stop() error {
	s.cancel()
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()
	return nil
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.connections[conn]; ok {
				delete(s.connections, conn)
				// Keep the seat; the player can reattach with their ID.
				if room, found := s.rooms.Get(conn.GetRoom()); found {
					room.Detach(conn.GetPlayer())
				}
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// reapLoop removes abandoned rooms.
func (s *Server) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.rooms.Reap(s.maxIdle); n > 0 {
				s.logger.Info("reaped idle rooms", "count", n)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket upgrades an HTTP request into a client connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	client := NewConnection(conn, s.logger, s)
	s.register <- client
	client.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
