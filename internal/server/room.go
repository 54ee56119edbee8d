package server

import (
	"context"
	"encoding/json"
	rand "math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/koupai/koupai/internal/game"
	"github.com/koupai/koupai/internal/randutil"
	"github.com/koupai/koupai/internal/roomcode"
	"github.com/koupai/koupai/internal/store"
)

// Room binds one table to its connections and its persisted state. The room
// is the sole writer of its table: every command takes the room lock,
// mutates through the table, persists a snapshot and broadcasts redacted
// views. Clients never write shared state.
type Room struct {
	Code string

	mu          sync.Mutex
	table       *game.Table
	conns       map[string]*Connection
	lastVersion int64
	settleTimer *quartz.Timer
	lastActive  time.Time

	store       store.Store
	archive     *store.MatchArchive
	clock       quartz.Clock
	logger      *log.Logger
	revealDelay time.Duration
}

func newRoom(code string, config game.MatchConfig, st store.Store, archive *store.MatchArchive, clock quartz.Clock, logger *log.Logger, rng *rand.Rand, revealDelay time.Duration) *Room {
	r := &Room{
		Code:        code,
		table:       game.NewTable(config, rng, logger),
		conns:       make(map[string]*Connection),
		store:       st,
		archive:     archive,
		clock:       clock,
		logger:      logger.WithPrefix("room").With("room", code),
		revealDelay: revealDelay,
		lastActive:  time.Now(),
	}
	r.table.EventBus().Subscribe(r)
	return r
}

// OnEvent receives table events. It runs synchronously inside a table
// command while the room lock is held, so it must not take the lock.
func (r *Room) OnEvent(event game.Event) {
	switch e := event.(type) {
	case game.PlayerActedEvent:
		if _, err := r.store.AppendAction(context.Background(), store.ActionEntry{
			RoomCode: r.Code,
			PlayerID: e.PlayerID,
			Action:   e.Action,
			Detail:   e.Detail,
			Version:  e.Version,
			At:       e.Timestamp(),
		}); err != nil {
			r.logger.Error("failed to append action log", "error", err)
		}

	case game.SettlementDueEvent:
		// Hold the revealed hands on screen before settling.
		r.settleTimer = r.clock.AfterFunc(r.revealDelay, r.settle)
	}
}

// Join seats a new player and attaches their connection.
func (r *Room) Join(nickname string, conn *Connection) (*game.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.table.AddPlayer(nickname)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		r.conns[p.ID] = conn
		conn.SetPlayer(p.ID)
		conn.SetRoom(r.Code)
	}
	r.touchLocked()
	r.broadcastLocked("")
	return p, nil
}

// Detach drops a player's connection, keeping their seat.
func (r *Room) Detach(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, playerID)
}

// Attach rebinds a reconnecting player and replays the full current state
// to them.
func (r *Room) Attach(playerID string, conn *Connection) (*game.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.table.PlayerByID(playerID)
	if !ok {
		return nil, &game.ValidationError{Code: game.CodeUnknownPlayer, Reason: "no such player in this room"}
	}
	if conn != nil {
		r.conns[playerID] = conn
		conn.SetPlayer(playerID)
		conn.SetRoom(r.Code)
	}
	r.touchLocked()
	r.sendStateLocked(p, "")
	return p, nil
}

// SetReady flips a player's ready flag and broadcasts the lobby.
func (r *Room) SetReady(playerID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.table.SetReady(playerID, ready); err != nil {
		return err
	}
	r.touchLocked()
	r.broadcastLocked("")
	return nil
}

// Start begins the first round. Host only, and every seat must be ready.
func (r *Room) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}
	if !r.table.AllReady() {
		return &game.ValidationError{Code: game.CodeWrongPhase, Reason: "not all players are ready"}
	}
	return r.startRoundLocked("start_round")
}

// NextRound deals the next round after settlement. Host only.
func (r *Room) NextRound(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHostLocked(playerID); err != nil {
		return err
	}
	return r.startRoundLocked("next_round")
}

func (r *Room) startRoundLocked(action string) error {
	if err := r.table.StartRound(); err != nil {
		return err
	}
	r.touchLocked()
	r.persistLocked(action)
	r.broadcastLocked(action)
	return nil
}

// HandleAction dispatches one turn action from a client.
func (r *Room) HandleAction(playerID string, data ActionData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch data.Action {
	case "play":
		if len(data.CardIDs) != 1 {
			return &game.ValidationError{Code: game.CodeWrongCardCount, Reason: "play takes exactly one card"}
		}
		st := r.table.State
		if st != nil && st.Phase == game.PhasePlayAfterClear {
			err = r.table.PlayAfterClear(playerID, data.CardIDs[0])
		} else {
			err = r.table.Play(playerID, data.CardIDs[0])
		}
	case "draw":
		_, err = r.table.Draw(playerID)
	case "force_swap":
		err = r.table.ForceSwap(playerID, data.CardIDs)
	case "selective_swap":
		err = r.table.SelectiveSwap(playerID, data.CardIDs, data.PublicCardIDs)
	case "clear":
		err = r.table.Clear(playerID)
	case "knock":
		err = r.table.Knock(playerID)
	default:
		return &game.ValidationError{Code: game.CodeUnknownAction, Reason: "unknown action " + data.Action}
	}
	if err != nil {
		return err
	}
	r.touchLocked()
	r.persistLocked(data.Action)
	r.broadcastLocked(data.Action)
	return nil
}

// HandleRespond records one showdown response from a client.
func (r *Room) HandleRespond(playerID string, data RespondData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.table.Respond(playerID, game.ResponseAction(data.Response)); err != nil {
		return err
	}
	r.touchLocked()
	r.persistLocked("respond")
	r.broadcastLocked("respond")
	return nil
}

// Resync replays the full current state to one player.
func (r *Room) Resync(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.table.PlayerByID(playerID)
	if !ok {
		return &game.ValidationError{Code: game.CodeUnknownPlayer, Reason: "no such player in this room"}
	}
	r.sendStateLocked(p, "")
	return nil
}

// settle runs on the reveal timer once every seat has responded.
func (r *Room) settle() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settleTimer = nil

	record, err := r.table.Settle()
	if err != nil {
		r.logger.Error("settlement failed", "error", err)
		return
	}
	r.persistLocked("settle")
	r.broadcastLocked("settle")

	if msg, err := NewMessage(MessageTypeRoundResult, RoundResultData{Record: *record}); err == nil {
		r.sendAllLocked(msg)
	}
	if r.table.MatchComplete() {
		result := r.matchResultLocked()
		if msg, err := NewMessage(MessageTypeMatchResult, result); err == nil {
			r.sendAllLocked(msg)
		}
		if r.archive != nil {
			if err := r.archive.Write(context.Background(), r.store, r.Code, result); err != nil {
				r.logger.Error("failed to archive match", "error", err)
			}
		}
	}
}

func (r *Room) matchResultLocked() MatchResultData {
	standings := make([]StandingEntry, 0, len(r.table.Players))
	for _, p := range r.table.Players {
		standings = append(standings, StandingEntry{
			PlayerID:   p.ID,
			Nickname:   p.Name,
			TotalScore: p.TotalScore,
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalScore > standings[j].TotalScore
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return MatchResultData{Standings: standings, History: r.table.History}
}

func (r *Room) requireHostLocked(playerID string) error {
	p, ok := r.table.PlayerByID(playerID)
	if !ok {
		return &game.ValidationError{Code: game.CodeUnknownPlayer, Reason: "no such player in this room"}
	}
	if !p.IsHost {
		return &game.ValidationError{Code: game.CodeOutOfTurn, Reason: "only the host may do that"}
	}
	return nil
}

// persistLocked writes the authoritative state snapshot. A fresh round
// resets the table version to 1 and is stored unconditionally; every later
// commit swaps against the previous stored version.
func (r *Room) persistLocked(action string) {
	st := r.table.State
	if st == nil {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		r.logger.Error("failed to marshal state", "error", err)
		return
	}
	snap := store.Snapshot{
		RoomCode:  r.Code,
		Version:   st.Version,
		Action:    action,
		State:     raw,
		UpdatedAt: time.Now(),
	}
	ctx := context.Background()
	if st.Version == 1 {
		err = r.store.Put(ctx, snap)
	} else {
		err = r.store.CompareAndSwap(ctx, snap, r.lastVersion)
	}
	if err != nil {
		r.logger.Error("failed to persist snapshot", "error", err, "version", st.Version)
		return
	}
	r.lastVersion = st.Version
}

// broadcastLocked sends each connected player their own redacted view.
func (r *Room) broadcastLocked(action string) {
	for _, p := range r.table.Players {
		r.sendStateLocked(p, action)
	}
}

func (r *Room) sendStateLocked(p *game.Player, action string) {
	conn, ok := r.conns[p.ID]
	if !ok {
		return
	}
	view := r.viewForLocked(p, action)
	msg, err := NewMessage(MessageTypeGameState, view)
	if err != nil {
		r.logger.Error("failed to build state message", "error", err)
		return
	}
	if err := conn.SendMessage(msg); err != nil {
		r.logger.Debug("failed to send state", "player", p.Name, "error", err)
	}
}

func (r *Room) sendAllLocked(msg *Message) {
	for _, conn := range r.conns {
		if err := conn.SendMessage(msg); err != nil {
			r.logger.Debug("failed to send message", "error", err)
		}
	}
}

// viewForLocked builds the redacted room view for one recipient: only their
// own hand is included, the draw and discard piles are reduced to counts,
// and showdown hands stay hidden until the revealing phase.
func (r *Room) viewForLocked(recipient *game.Player, action string) RoomStateData {
	players := make([]PlayerView, 0, len(r.table.Players))
	for _, p := range r.table.Players {
		view := PlayerView{
			ID:          p.ID,
			Nickname:    p.Name,
			Position:    p.Position,
			TotalScore:  p.TotalScore,
			RoundScores: p.RoundScores,
			IsHost:      p.IsHost,
			IsReady:     p.IsReady,
			HandCount:   len(p.Hand),
		}
		if p.ID == recipient.ID {
			view.Hand = p.Hand
		}
		players = append(players, view)
	}

	data := RoomStateData{
		RoomCode:     r.Code,
		CurrentRound: r.table.CurrentRound,
		TotalRounds:  r.table.Config.TotalRounds,
		Players:      players,
		Action:       action,
	}

	st := r.table.State
	if st == nil {
		return data
	}
	view := &GameStateView{
		Phase:            st.Phase,
		CurrentTurn:      st.CurrentTurn,
		RoundNumber:      st.RoundNumber,
		DeckCount:        len(st.Deck),
		PublicZone:       st.PublicZone,
		DiscardCount:     len(st.DiscardPile),
		TargetScore:      st.TargetScore,
		KnockerID:        st.KnockerID,
		ResponseOrder:    st.ResponseOrder,
		CurrentResponder: st.CurrentResponder,
		AllResponded:     st.AllResponded,
		Version:          st.Version,
	}
	if st.ShowdownResponses != nil {
		revealed := st.Phase == game.PhaseRevealing || st.Phase == game.PhaseSettlement
		view.ShowdownResponses = make(map[string]game.ShowdownResponse, len(st.ShowdownResponses))
		for id, resp := range st.ShowdownResponses {
			if !revealed && id != recipient.ID {
				// Responses are public, hands are not until the reveal.
				resp.Hand = nil
				resp.Evaluation = game.Evaluation{IsMazi: resp.IsMazi}
			}
			view.ShowdownResponses[id] = resp
		}
	}
	data.State = view
	return data
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now()
}

// IdleSince reports the last command time, for room reaping.
func (r *Room) IdleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Empty reports whether no connections remain.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns) == 0
}

// RoomManager creates and resolves rooms by their join code.
type RoomManager struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	codes   *roomcode.Generator
	config  *ServerConfig
	store   store.Store
	archive *store.MatchArchive
	clock   quartz.Clock
	logger  *log.Logger
	newRNG  func() *rand.Rand
}

// NewRoomManager creates a manager backed by the given store and clock.
func NewRoomManager(config *ServerConfig, st store.Store, clock quartz.Clock, logger *log.Logger) *RoomManager {
	m := &RoomManager{
		rooms:  make(map[string]*Room),
		codes:  roomcode.NewGenerator(nil),
		config: config,
		store:  st,
		clock:  clock,
		logger: logger.WithPrefix("rooms"),
		newRNG: randutil.NewEntropy,
	}
	if dir := config.Match.ArchiveDir; dir != "" {
		archive, err := store.NewMatchArchive(dir, logger)
		if err != nil {
			m.logger.Error("match archiving disabled", "error", err)
		} else {
			m.archive = archive
		}
	}
	return m
}

// Create provisions a new room and seats its host.
func (m *RoomManager) Create(data CreateRoomData, conn *Connection) (*Room, *game.Player, error) {
	config := m.config.MatchConfig()
	if data.TargetScore != 0 {
		config.TargetScore = data.TargetScore
	}
	if data.TotalRounds != 0 {
		config.TotalRounds = data.TotalRounds
	}
	if config.TargetScore != 40 && config.TargetScore != 45 {
		return nil, nil, &game.ValidationError{Code: game.CodeUnknownAction, Reason: "target score must be 40 or 45"}
	}
	switch config.TotalRounds {
	case 1, 4, 8:
	default:
		return nil, nil, &game.ValidationError{Code: game.CodeUnknownAction, Reason: "total rounds must be 1, 4 or 8"}
	}

	m.mu.Lock()
	var code string
	for {
		code = m.codes.Generate()
		if _, taken := m.rooms[code]; !taken {
			break
		}
	}
	revealDelay := time.Duration(m.config.Match.RevealSeconds) * time.Second
	room := newRoom(code, config, m.store, m.archive, m.clock, m.logger, m.newRNG(), revealDelay)
	m.rooms[code] = room
	m.mu.Unlock()

	p, err := room.Join(data.Nickname, conn)
	if err != nil {
		return nil, nil, err
	}
	m.logger.Info("room created", "room", code, "host", data.Nickname)
	return room, p, nil
}

// Get resolves a room by its normalized code.
func (m *RoomManager) Get(code string) (*Room, bool) {
	normalized := roomcode.Normalize(code)
	if !roomcode.Valid(normalized) {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[normalized]
	return room, ok
}

// Remove deletes a room and its persisted state.
func (m *RoomManager) Remove(code string) {
	m.mu.Lock()
	room, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()
	if ok {
		if err := m.store.Delete(context.Background(), code); err != nil {
			m.logger.Error("failed to delete room state", "room", code, "error", err)
		}
		m.logger.Info("room removed", "room", code, "idle_since", room.IdleSince())
	}
}

// Reap removes rooms idle past the configured limit with no connections.
func (m *RoomManager) Reap(maxIdle time.Duration) int {
	m.mu.RLock()
	var stale []string
	for code, room := range m.rooms {
		if room.Empty() && time.Since(room.IdleSince()) > maxIdle {
			stale = append(stale, code)
		}
	}
	m.mu.RUnlock()
	for _, code := range stale {
		m.Remove(code)
	}
	return len(stale)
}
