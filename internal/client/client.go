// Package client implements the terminal client: a WebSocket connection to
// the room server plus version reconciliation of the snapshot stream.
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/koupai/koupai/internal/server"
	"github.com/koupai/koupai/internal/store"
)

// drawAckTimeout bounds how long a submitted draw may go unechoed before
// the client gives up on the update stream and forces a resync.
const drawAckTimeout = 2500 * time.Millisecond

// EventHandler handles one incoming message.
type EventHandler func(*server.Message)

// Client is a WebSocket client for one player. Incoming game states pass
// through a Reconciler so that stale snapshots are dropped and version gaps
// trigger a resync round-trip; round starts install fresh state
// unconditionally since the round version restarts at 1.
type Client struct {
	serverURL string
	conn      *websocket.Conn
	logger    *log.Logger
	mu        sync.RWMutex
	handlers  map[server.MessageType][]EventHandler
	connected bool
	stopChan  chan struct{}

	reconciler     *store.Reconciler
	awaitingResync bool
	playerID       string
	roomCode       string
	render         func(server.RoomStateData)
}

// New creates a client. render is invoked for every accepted state view.
func New(serverURL string, logger *log.Logger, render func(server.RoomStateData), opts ...store.ReconcilerOption) *Client {
	c := &Client{
		serverURL: serverURL,
		logger:    logger.WithPrefix("client"),
		handlers:  make(map[server.MessageType][]EventHandler),
		stopChan:  make(chan struct{}),
		render:    render,
	}
	c.reconciler = store.NewReconciler(logger, c.applySnapshot, c.requestResync, opts...)

	c.AddEventHandler(server.MessageTypeRoomCreated, c.onRoomCreated)
	c.AddEventHandler(server.MessageTypeRoomJoined, c.onRoomJoined)
	c.AddEventHandler(server.MessageTypeGameState, c.onGameState)
	return c
}

// PlayerID returns this client's server-assigned player ID.
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// RoomCode returns the joined room's code.
func (c *Client) RoomCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}

// Connect dials the server and starts the reader.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	c.logger.Info("connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readMessages()
	return nil
}

// Disconnect closes the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	c.connected = false
	close(c.stopChan)
	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return c.conn.Close()
	}
	return nil
}

// AddEventHandler registers a handler for a message type.
func (c *Client) AddEventHandler(msgType server.MessageType, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = append(c.handlers[msgType], handler)
}

// Send serializes and sends one message.
func (c *Client) Send(msgType server.MessageType, data interface{}) error {
	msg, err := server.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.conn == nil {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

// CreateRoom asks the server for a new room.
func (c *Client) CreateRoom(nickname string, targetScore, totalRounds int) error {
	return c.Send(server.MessageTypeCreateRoom, server.CreateRoomData{
		Nickname:    nickname,
		TargetScore: targetScore,
		TotalRounds: totalRounds,
	})
}

// JoinRoom joins an existing room by code.
func (c *Client) JoinRoom(roomCode, nickname string) error {
	return c.Send(server.MessageTypeJoinRoom, server.JoinRoomData{
		RoomCode: roomCode,
		Nickname: nickname,
	})
}

// Reattach rejoins a room on an existing seat after a disconnect.
func (c *Client) Reattach(roomCode, playerID string) error {
	return c.Send(server.MessageTypeJoinRoom, server.JoinRoomData{
		RoomCode: roomCode,
		PlayerID: playerID,
	})
}

// Ready flips the lobby ready flag.
func (c *Client) Ready(ready bool) error {
	return c.Send(server.MessageTypeReady, server.ReadyData{Ready: ready})
}

// StartGame asks the server to deal the first round. Host only.
func (c *Client) StartGame() error {
	return c.Send(server.MessageTypeStartGame, struct{}{})
}

// Play plays one card from hand.
func (c *Client) Play(cardID string) error {
	return c.Send(server.MessageTypeAction, server.ActionData{Action: "play", CardIDs: []string{cardID}})
}

// Draw takes the top card of the draw pile. The drawn card must come back
// as a state update within the recognition window or a resync is forced.
func (c *Client) Draw() error {
	if err := c.Send(server.MessageTypeAction, server.ActionData{Action: "draw"}); err != nil {
		return err
	}
	c.reconciler.ExpectUpdate(drawAckTimeout)
	return nil
}

// ForceSwap trades hand cards for the whole public zone.
func (c *Client) ForceSwap(cardIDs []string) error {
	return c.Send(server.MessageTypeAction, server.ActionData{Action: "force_swap", CardIDs: cardIDs})
}

// SelectiveSwap trades chosen hand cards for chosen public cards.
func (c *Client) SelectiveSwap(cardIDs, publicCardIDs []string) error {
	return c.Send(server.MessageTypeAction, server.ActionData{
		Action:        "selective_swap",
		CardIDs:       cardIDs,
		PublicCardIDs: publicCardIDs,
	})
}

// Clear discards the full public zone.
func (c *Client) Clear() error {
	return c.Send(server.MessageTypeAction, server.ActionData{Action: "clear"})
}

// Knock declares a qualifying hand.
func (c *Client) Knock() error {
	return c.Send(server.MessageTypeAction, server.ActionData{Action: "knock"})
}

// Respond folds or calls in the showdown.
func (c *Client) Respond(response string) error {
	return c.Send(server.MessageTypeRespond, server.RespondData{Response: response})
}

// NextRound asks the server to deal the next round. Host only.
func (c *Client) NextRound() error {
	return c.Send(server.MessageTypeNextRound, struct{}{})
}

func (c *Client) readMessages() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.stopChan:
			default:
				c.logger.Error("read failed", "error", err)
			}
			return
		}
		c.dispatch(&msg)
	}
}

func (c *Client) dispatch(msg *server.Message) {
	c.mu.RLock()
	handlers := append([]EventHandler(nil), c.handlers[msg.Type]...)
	c.mu.RUnlock()
	for _, handler := range handlers {
		handler(msg)
	}
}

func (c *Client) onRoomCreated(msg *server.Message) {
	var data server.RoomCreatedData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.logger.Error("bad room_created payload", "error", err)
		return
	}
	c.mu.Lock()
	c.playerID = data.PlayerID
	c.roomCode = data.RoomCode
	c.mu.Unlock()
	c.logger.Info("room created", "room", data.RoomCode)
}

func (c *Client) onRoomJoined(msg *server.Message) {
	var data server.RoomJoinedData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.logger.Error("bad room_joined payload", "error", err)
		return
	}
	c.mu.Lock()
	c.playerID = data.PlayerID
	c.roomCode = data.RoomCode
	c.mu.Unlock()
	c.logger.Info("joined room", "room", data.RoomCode, "position", data.Position)
}

// onGameState routes a state view through the reconciler. Lobby views have
// no version yet and render directly.
func (c *Client) onGameState(msg *server.Message) {
	var data server.RoomStateData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.logger.Error("bad game_state payload", "error", err)
		return
	}
	if data.State == nil {
		c.renderView(data)
		return
	}

	snap := store.Snapshot{
		RoomCode:  data.RoomCode,
		Version:   data.State.Version,
		Action:    data.Action,
		UpdatedAt: msg.Timestamp,
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.Error("failed to re-marshal state", "error", err)
		return
	}
	snap.State = raw

	c.mu.Lock()
	resync := c.awaitingResync
	c.awaitingResync = false
	c.mu.Unlock()

	// Round starts restart the version sequence; resync responses replace
	// whatever we had. Both install unconditionally.
	if resync || data.Action == "start_round" || data.Action == "next_round" {
		c.reconciler.Reset(snap)
		return
	}
	c.reconciler.Offer(snap)
}

func (c *Client) applySnapshot(snap store.Snapshot) {
	var data server.RoomStateData
	if err := json.Unmarshal(snap.State, &data); err != nil {
		c.logger.Error("failed to decode snapshot", "error", err)
		return
	}
	c.renderView(data)
}

func (c *Client) renderView(data server.RoomStateData) {
	if c.render != nil {
		c.render(data)
	}
}

func (c *Client) requestResync() {
	c.mu.Lock()
	c.awaitingResync = true
	c.mu.Unlock()
	if err := c.Send(server.MessageTypeResync, struct{}{}); err != nil {
		c.logger.Error("failed to request resync", "error", err)
	}
}
