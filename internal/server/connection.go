package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/koupai/koupai/internal/deck"
	"github.com/koupai/koupai/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client connection.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	playerID  string
	roomCode  string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	server    *Server
}

// NewConnection creates a connection wrapper.
func NewConnection(conn *websocket.Conn, logger *log.Logger, server *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		server: server,
	}
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message to the client.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetPlayer associates this connection with a player.
func (c *Connection) SetPlayer(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
}

// GetPlayer returns the associated player ID.
func (c *Connection) GetPlayer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// SetRoom associates this connection with a room.
func (c *Connection) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom returns the associated room code.
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() {
		c.server.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches one incoming client message.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "player", c.GetPlayer())

	switch msg.Type {
	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse create room data")
			return
		}
		c.handleCreateRoom(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		c.handleLeaveRoom()

	case MessageTypeReady:
		var data ReadyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse ready data")
			return
		}
		c.withRoom(func(room *Room) error {
			return room.SetReady(c.GetPlayer(), data.Ready)
		})

	case MessageTypeStartGame:
		c.withRoom(func(room *Room) error {
			return room.Start(c.GetPlayer())
		})

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse action data")
			return
		}
		c.withRoom(func(room *Room) error {
			return room.HandleAction(c.GetPlayer(), data)
		})

	case MessageTypeRespond:
		var data RespondData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse respond data")
			return
		}
		c.withRoom(func(room *Room) error {
			return room.HandleRespond(c.GetPlayer(), data)
		})

	case MessageTypeNextRound:
		c.withRoom(func(room *Room) error {
			return room.NextRound(c.GetPlayer())
		})

	case MessageTypeResync:
		c.withRoom(func(room *Room) error {
			return room.Resync(c.GetPlayer())
		})

	default:
		c.sendError("unknown_message", "unknown message type: "+string(msg.Type))
	}
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	if data.Nickname == "" {
		c.sendError("invalid_message", "nickname is required")
		return
	}
	room, p, err := c.server.rooms.Create(data, c)
	if err != nil {
		c.sendGameError(err)
		return
	}
	response, err := NewMessage(MessageTypeRoomCreated, RoomCreatedData{
		RoomCode: room.Code,
		PlayerID: p.ID,
	})
	if err == nil {
		_ = c.SendMessage(response)
	}
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	room, ok := c.server.rooms.Get(data.RoomCode)
	if !ok {
		c.sendError("room_not_found", "no room with that code")
		return
	}

	var p *game.Player
	var err error
	if data.PlayerID != "" {
		p, err = room.Attach(data.PlayerID, c)
	} else if data.Nickname == "" {
		c.sendError("invalid_message", "nickname is required")
		return
	} else {
		p, err = room.Join(data.Nickname, c)
	}
	if err != nil {
		c.sendGameError(err)
		return
	}
	response, err := NewMessage(MessageTypeRoomJoined, RoomJoinedData{
		RoomCode: room.Code,
		PlayerID: p.ID,
		Position: p.Position,
	})
	if err == nil {
		_ = c.SendMessage(response)
	}
}

func (c *Connection) handleLeaveRoom() {
	if room, ok := c.server.rooms.Get(c.GetRoom()); ok {
		room.Detach(c.GetPlayer())
	}
	c.SetRoom("")
	c.SetPlayer("")
}

// withRoom resolves the connection's room and reports command errors back
// to the client.
func (c *Connection) withRoom(fn func(room *Room) error) {
	room, ok := c.server.rooms.Get(c.GetRoom())
	if !ok {
		c.sendError("room_not_found", "not in a room")
		return
	}
	if err := fn(room); err != nil {
		c.sendGameError(err)
	}
}

// sendGameError maps engine errors onto wire error codes. Validation errors
// keep their code; structural errors and everything else become internal.
func (c *Connection) sendGameError(err error) {
	var ve *game.ValidationError
	switch {
	case errors.As(err, &ve):
		c.sendError(ve.Code, ve.Reason)
	case errors.Is(err, game.ErrMatchComplete):
		c.sendError("match_complete", err.Error())
	case errors.Is(err, deck.ErrInsufficientCards):
		c.sendError("insufficient_cards", err.Error())
	case game.IsStructural(err):
		c.logger.Error("structural inconsistency", "error", err)
		c.sendError("internal_error", "game state inconsistency, resync required")
	default:
		c.sendError("internal_error", err.Error())
	}
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = c.SendMessage(msg)
}
