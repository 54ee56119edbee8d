package game

import (
	"time"

	"github.com/koupai/koupai/internal/deck"
)

// Match configuration defaults, matching the standard client settings.
const (
	MinPlayers         = 2
	MaxPlayers         = 4
	DefaultHandSize    = 5
	DefaultDeckCount   = 1
	DefaultTargetScore = 40
	DefaultTotalRounds = 4
)

// MatchConfig fixes the parameters of a whole match. The public zone
// capacity always equals the hand size.
type MatchConfig struct {
	HandSize    int
	DeckCount   int
	TargetScore int
	TotalRounds int
}

// DefaultMatchConfig returns the standard 5-card, single-deck, 40-point,
// 4-round configuration.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		HandSize:    DefaultHandSize,
		DeckCount:   DefaultDeckCount,
		TargetScore: DefaultTargetScore,
		TotalRounds: DefaultTotalRounds,
	}
}

// Player persists for the whole match. Hands are display-sorted before
// every commit.
type Player struct {
	ID          string      `json:"id"`
	Name        string      `json:"nickname"`
	Position    int         `json:"position"`
	Hand        []deck.Card `json:"hand"`
	TotalScore  int         `json:"total_score"`
	RoundScores []int       `json:"round_scores"`
	IsHost      bool        `json:"is_host"`
	IsReady     bool        `json:"is_ready"`
}

// ResponseAction is a showdown response kind.
type ResponseAction string

const (
	// ActionKnock is recorded for the knocker the moment they knock.
	ActionKnock ResponseAction = "knock"
	// ActionFold declines to compete; always legal.
	ActionFold ResponseAction = "fold"
	// ActionCall enters the competing pool; legal only for non-mazi hands.
	ActionCall ResponseAction = "call"
)

// Evaluation is the scored view of a hand at a point in time.
type Evaluation struct {
	HandScore int       `json:"hand_score"`
	IsFlush   bool      `json:"is_flush"`
	Suit      deck.Suit `json:"suit"`
	IsMazi    bool      `json:"is_mazi"`
}

// ShowdownResponse is one seat's committed response, with the hand frozen
// at response time.
type ShowdownResponse struct {
	Action     ResponseAction `json:"action"`
	IsMazi     bool           `json:"is_mazi"`
	Hand       []deck.Card    `json:"hand"`
	Evaluation Evaluation     `json:"evaluation"`
}

// GameState is the shared game record for one round. It is reset at round
// start and mutated only through versioned commits; Version strictly
// increases with every committed mutation and is the sole basis for
// conflict detection.
type GameState struct {
	Phase       Phase       `json:"phase"`
	CurrentTurn int         `json:"current_turn"`
	RoundNumber int         `json:"round_number"`
	Deck        []deck.Card `json:"deck"`
	PublicZone  []deck.Card `json:"public_zone"`
	DiscardPile []deck.Card `json:"discard_pile"`
	TargetScore int         `json:"target_score"`

	KnockerID         string                      `json:"knocker_id,omitempty"`
	ResponseOrder     []int                       `json:"response_order,omitempty"`
	CurrentResponder  int                         `json:"current_responder"`
	ShowdownResponses map[string]ShowdownResponse `json:"showdown_responses,omitempty"`
	AllResponded      bool                        `json:"all_responded"`

	Version   int64     `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// RoundRecord is appended, never mutated, once a round settles.
type RoundRecord struct {
	RoundIndex int            `json:"round_index"`
	WinnerID   string         `json:"winner_id"`
	Scores     map[string]int `json:"scores"`
	SettledAt  time.Time      `json:"settled_at"`
}

// KnockerInfo describes the active knock for display.
type KnockerInfo struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"nickname"`
	Position  int    `json:"position"`
	HandScore int    `json:"hand_score"`
}

// ResponseStatus reports where a seat stands in the response sequence.
type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"   // it is this seat's turn to respond
	ResponseResponded ResponseStatus = "responded" // response already recorded
	ResponseNotYet    ResponseStatus = "not_yet"   // later in the order
)
