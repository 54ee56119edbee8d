package server

import (
	"encoding/json"
	"time"

	"github.com/koupai/koupai/internal/deck"
	"github.com/koupai/koupai/internal/game"
)

// MessageType identifies a WebSocket message.
type MessageType string

// Client → Server
const (
	MessageTypeCreateRoom MessageType = "create_room"
	MessageTypeJoinRoom   MessageType = "join_room"
	MessageTypeLeaveRoom  MessageType = "leave_room"
	MessageTypeReady      MessageType = "ready"
	MessageTypeStartGame  MessageType = "start_game"
	MessageTypeAction     MessageType = "action"
	MessageTypeRespond    MessageType = "respond"
	MessageTypeNextRound  MessageType = "next_round"
	MessageTypeResync     MessageType = "resync"
)

// Server → Client
const (
	MessageTypeRoomCreated MessageType = "room_created"
	MessageTypeRoomJoined  MessageType = "room_joined"
	MessageTypeRoomState   MessageType = "room_state"
	MessageTypeGameState   MessageType = "game_state"
	MessageTypeRoundResult MessageType = "round_result"
	MessageTypeMatchResult MessageType = "match_result"
	MessageTypeError       MessageType = "error"
)

// Message is the wire envelope for every WebSocket frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type CreateRoomData struct {
	Nickname    string `json:"nickname"`
	TargetScore int    `json:"target_score,omitempty"`
	TotalRounds int    `json:"total_rounds,omitempty"`
}

type JoinRoomData struct {
	RoomCode string `json:"room_code"`
	Nickname string `json:"nickname"`
	// PlayerID reattaches an existing seat after a disconnect.
	PlayerID string `json:"player_id,omitempty"`
}

type ReadyData struct {
	Ready bool `json:"ready"`
}

// ActionData carries one turn action. Action is one of play, draw,
// force_swap, selective_swap, clear, knock; the card slices are used by the
// actions that need them.
type ActionData struct {
	Action        string   `json:"action"`
	CardIDs       []string `json:"card_ids,omitempty"`
	PublicCardIDs []string `json:"public_card_ids,omitempty"`
}

type RespondData struct {
	Response string `json:"response"` // fold or call
}

// Server → Client payloads

type RoomCreatedData struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
}

type RoomJoinedData struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
	Position int    `json:"position"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerView is one seat as visible to a particular recipient. Hand is
// populated only for the recipient's own seat; every other seat exposes
// only the card count.
type PlayerView struct {
	ID          string      `json:"id"`
	Nickname    string      `json:"nickname"`
	Position    int         `json:"position"`
	TotalScore  int         `json:"total_score"`
	RoundScores []int       `json:"round_scores"`
	IsHost      bool        `json:"is_host"`
	IsReady     bool        `json:"is_ready"`
	HandCount   int         `json:"hand_count"`
	Hand        []deck.Card `json:"hand,omitempty"`
}

// GameStateView is the redacted per-recipient copy of the shared state.
// The draw pile is reduced to a count; showdown hands become visible to
// everyone only from the revealing phase on.
type GameStateView struct {
	Phase             game.Phase                       `json:"phase"`
	CurrentTurn       int                              `json:"current_turn"`
	RoundNumber       int                              `json:"round_number"`
	DeckCount         int                              `json:"deck_count"`
	PublicZone        []deck.Card                      `json:"public_zone"`
	DiscardCount      int                              `json:"discard_count"`
	TargetScore       int                              `json:"target_score"`
	KnockerID         string                           `json:"knocker_id,omitempty"`
	ResponseOrder     []int                            `json:"response_order,omitempty"`
	CurrentResponder  int                              `json:"current_responder"`
	ShowdownResponses map[string]game.ShowdownResponse `json:"showdown_responses,omitempty"`
	AllResponded      bool                             `json:"all_responded"`
	Version           int64                            `json:"version"`
}

// RoomStateData is the lobby view plus, once a round is running, the
// redacted game state.
type RoomStateData struct {
	RoomCode     string         `json:"room_code"`
	CurrentRound int            `json:"current_round"`
	TotalRounds  int            `json:"total_rounds"`
	Players      []PlayerView   `json:"players"`
	State        *GameStateView `json:"state,omitempty"`
	Action       string         `json:"action,omitempty"`
}

type RoundResultData struct {
	Record game.RoundRecord `json:"record"`
}

type MatchResultData struct {
	Standings []StandingEntry    `json:"standings"`
	History   []game.RoundRecord `json:"history"`
}

type StandingEntry struct {
	PlayerID   string `json:"player_id"`
	Nickname   string `json:"nickname"`
	TotalScore int    `json:"total_score"`
	Rank       int    `json:"rank"`
}
