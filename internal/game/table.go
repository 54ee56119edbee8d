package game

import (
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/koupai/koupai/internal/deck"
)

// Table is the authoritative engine for one match: it owns the players, the
// per-round GameState and the round history, and is the single writer of
// all of them. Every committed mutation increments the state version by
// exactly one.
type Table struct {
	Config       MatchConfig
	Players      []*Player
	State        *GameState
	History      []RoundRecord
	CurrentRound int
	StartingSeat int

	rng    *rand.Rand
	logger *log.Logger
	bus    EventBus
}

// NewTable creates an empty table for the given match configuration.
func NewTable(config MatchConfig, rng *rand.Rand, logger *log.Logger) *Table {
	return &Table{
		Config:  config,
		Players: make([]*Player, 0, MaxPlayers),
		rng:     rng,
		logger:  logger.WithPrefix("table"),
		bus:     NewEventBus(),
	}
}

// EventBus returns the bus for subscribing to table events.
func (t *Table) EventBus() EventBus {
	return t.bus
}

// Capacity returns the public zone capacity, which equals the hand size.
func (t *Table) Capacity() int {
	return t.Config.HandSize
}

// AddPlayer seats a new player. The first player seated becomes the host.
func (t *Table) AddPlayer(name string) (*Player, error) {
	if len(t.Players) >= MaxPlayers {
		return nil, validationf(CodeUnknownPlayer, "room is full (%d players)", MaxPlayers)
	}
	if t.State != nil {
		return nil, validationf(CodeWrongPhase, "game already started")
	}
	p := &Player{
		ID:       uuid.NewString(),
		Name:     name,
		Position: len(t.Players),
		IsHost:   len(t.Players) == 0,
		IsReady:  len(t.Players) == 0,
	}
	t.Players = append(t.Players, p)
	t.logger.Info("player seated", "player", name, "seat", p.Position)
	return p, nil
}

// SetReady flips a player's lobby ready flag.
func (t *Table) SetReady(playerID string, ready bool) error {
	p := t.playerByID(playerID)
	if p == nil {
		return validationf(CodeUnknownPlayer, "player %s not at this table", playerID)
	}
	p.IsReady = ready
	return nil
}

// AllReady reports whether every non-host player is ready.
func (t *Table) AllReady() bool {
	for _, p := range t.Players {
		if !p.IsHost && !p.IsReady {
			return false
		}
	}
	return true
}

// StartRound deals a new round. The first round starts at seat 0; later
// rounds start at the lowest scorer of the previous round, ties broken by
// lowest seat. Fails with ErrMatchComplete past the configured match length.
func (t *Table) StartRound() error {
	if t.CurrentRound >= t.Config.TotalRounds {
		return ErrMatchComplete
	}
	if len(t.Players) < MinPlayers {
		return validationf(CodeUnknownPlayer, "need at least %d players", MinPlayers)
	}
	if t.State != nil && t.State.Phase != PhaseSettlement {
		return validationf(CodeWrongPhase, "cannot start a round during %s", t.State.Phase)
	}

	start := 0
	if len(t.History) > 0 {
		start = t.nextStartingSeat(t.History[len(t.History)-1])
	}

	pile := deck.NewDecks(t.Config.DeckCount)
	deck.Shuffle(pile, t.rng)

	for _, p := range t.Players {
		count := t.Config.HandSize
		if p.Position == start {
			count = t.Config.HandSize + 1
		}
		dealt, remaining, err := deck.Deal(pile, count)
		if err != nil {
			return err
		}
		p.Hand = deck.SortForDisplay(dealt)
		pile = remaining
	}

	t.StartingSeat = start
	t.CurrentRound++
	t.State = &GameState{
		Phase:            PhaseFirstPlay,
		CurrentTurn:      start,
		RoundNumber:      0,
		Deck:             pile,
		PublicZone:       make([]deck.Card, 0, t.Capacity()),
		DiscardPile:      make([]deck.Card, 0),
		TargetScore:      t.Config.TargetScore,
		CurrentResponder: -1,
		Version:          1,
		StartedAt:        time.Now(),
	}

	t.logger.Info("round started",
		"round", t.CurrentRound,
		"startingSeat", start,
		"targetScore", t.Config.TargetScore,
		"deckCards", len(pile))
	t.bus.Publish(RoundStartedEvent{
		RoundIndex:   t.CurrentRound,
		StartingSeat: start,
		TargetScore:  t.Config.TargetScore,
		timestamp:    time.Now(),
	})
	return t.checkConservation()
}

// nextStartingSeat picks the seat with the lowest round delta in the settled
// record. Ties break to the lowest seat position.
func (t *Table) nextStartingSeat(record RoundRecord) int {
	best := -1
	bestScore := 0
	for _, p := range t.Players {
		score, ok := record.Scores[p.ID]
		if !ok {
			continue
		}
		if best == -1 || score < bestScore {
			best = p.Position
			bestScore = score
		}
	}
	if best == -1 {
		return 0
	}
	return best
}

// Draw takes the top card of the draw pile into the player's hand. Legal
// only in action_select with room left in the public zone; the player must
// then play exactly one card.
func (t *Table) Draw(playerID string) (deck.Card, error) {
	p, err := t.requireTurn(playerID, PhaseActionSelect)
	if err != nil {
		return deck.Card{}, err
	}
	if len(t.State.PublicZone) >= t.Capacity() {
		return deck.Card{}, validationf(CodeZoneFull, "public zone is full")
	}
	dealt, remaining, err := deck.Deal(t.State.Deck, 1)
	if err != nil {
		return deck.Card{}, err
	}
	t.State.Deck = remaining
	p.Hand = deck.SortForDisplay(append(p.Hand, dealt[0]))
	t.State.Phase = PhasePlayAfterDraw
	if err := t.commit(p, "draw", dealt[0].ID); err != nil {
		return deck.Card{}, err
	}
	return dealt[0], nil
}

// Play moves exactly one card from the player's hand to the public zone and
// ends the turn. Legal in first_play and play_after_draw.
func (t *Table) Play(playerID, cardID string) error {
	p, err := t.requireTurn(playerID, PhaseFirstPlay, PhasePlayAfterDraw)
	if err != nil {
		return err
	}
	if len(t.State.PublicZone) >= t.Capacity() {
		return validationf(CodeZoneFull, "public zone is full")
	}
	return t.playCard(p, cardID)
}

// PlayAfterClear plays the single required card into the emptied public
// zone and ends the turn.
func (t *Table) PlayAfterClear(playerID, cardID string) error {
	p, err := t.requireTurn(playerID, PhasePlayAfterClear)
	if err != nil {
		return err
	}
	if len(t.State.PublicZone) != 0 {
		return &StructuralError{Reason: "public zone not empty after clear"}
	}
	return t.playCard(p, cardID)
}

func (t *Table) playCard(p *Player, cardID string) error {
	selected, remaining, verr := takeCards(p.Hand, []string{cardID})
	if verr != nil {
		return verr
	}
	p.Hand = remaining
	t.State.PublicZone = append(t.State.PublicZone, selected[0])
	t.advanceTurn()
	t.State.Phase = PhaseActionSelect
	return t.commit(p, "play", cardID)
}

// ForceSwap exchanges exactly N hand cards for the entire public zone, where
// N is the current zone size. Legal only when 0 < N < capacity. Ends the
// turn.
func (t *Table) ForceSwap(playerID string, handCardIDs []string) error {
	p, err := t.requireTurn(playerID, PhaseActionSelect)
	if err != nil {
		return err
	}
	n := len(t.State.PublicZone)
	if n == 0 {
		return validationf(CodeZoneEmpty, "public zone is empty")
	}
	if n >= t.Capacity() {
		return validationf(CodeZoneFull, "public zone is full, use a selective swap")
	}
	if len(handCardIDs) != n {
		return validationf(CodeWrongCardCount, "force swap requires exactly %d hand cards, got %d", n, len(handCardIDs))
	}
	surrendered, remaining, verr := takeCards(p.Hand, handCardIDs)
	if verr != nil {
		return verr
	}
	p.Hand = deck.SortForDisplay(append(remaining, t.State.PublicZone...))
	t.State.PublicZone = surrendered
	t.advanceTurn()
	return t.commit(p, "force_swap", "")
}

// SelectiveSwap exchanges M chosen hand cards for M chosen public-zone
// cards, card for card. Legal only when the zone is at capacity. Ends the
// turn.
func (t *Table) SelectiveSwap(playerID string, handCardIDs, publicCardIDs []string) error {
	p, err := t.requireTurn(playerID, PhaseActionSelect)
	if err != nil {
		return err
	}
	if len(t.State.PublicZone) != t.Capacity() {
		return validationf(CodeZoneNotFull, "public zone must be full for a selective swap")
	}
	m := len(handCardIDs)
	if m != len(publicCardIDs) {
		return validationf(CodeWrongCardCount, "selected %d hand cards against %d public cards", m, len(publicCardIDs))
	}
	if m < 1 || m > t.Capacity() {
		return validationf(CodeWrongCardCount, "selective swap requires between 1 and %d cards", t.Capacity())
	}

	surrendered, remaining, verr := takeCards(p.Hand, handCardIDs)
	if verr != nil {
		return verr
	}
	// Resolve every zone slot before writing anything, so a bad ID
	// rejects the whole selection with the zone untouched.
	slots := make([]int, 0, m)
	seen := make(map[int]bool, m)
	for _, publicID := range publicCardIDs {
		idx, ok := findCard(t.State.PublicZone, publicID)
		if !ok {
			return validationf(CodeCardNotFound, "card %s is not in the public zone", publicID)
		}
		if seen[idx] {
			return validationf(CodeCardNotFound, "card %s selected more than once", publicID)
		}
		seen[idx] = true
		slots = append(slots, idx)
	}
	taken := make([]deck.Card, 0, m)
	for i, idx := range slots {
		taken = append(taken, t.State.PublicZone[idx])
		t.State.PublicZone[idx] = surrendered[i]
	}
	p.Hand = deck.SortForDisplay(append(remaining, taken...))
	t.advanceTurn()
	return t.commit(p, "selective_swap", "")
}

// Clear moves the full public zone to the discard pile. The same player
// keeps the turn and must then play one card into the emptied zone.
func (t *Table) Clear(playerID string) error {
	p, err := t.requireTurn(playerID, PhaseActionSelect)
	if err != nil {
		return err
	}
	if len(t.State.PublicZone) != t.Capacity() {
		return validationf(CodeZoneNotFull, "public zone must be full to clear")
	}
	t.State.DiscardPile = append(t.State.DiscardPile, t.State.PublicZone...)
	t.State.PublicZone = t.State.PublicZone[:0]
	t.State.Phase = PhasePlayAfterClear
	return t.commit(p, "clear", "")
}

// Knock declares a qualifying hand and opens the showdown. The knocker's
// own evaluation is recorded immediately as a knock response.
func (t *Table) Knock(playerID string) error {
	p, err := t.requireTurn(playerID, PhaseActionSelect)
	if err != nil {
		return err
	}
	status := CanKnock(p.Hand, t.State.TargetScore, t.Config.HandSize)
	if !status.CanKnock {
		return validationf(CodeCannotKnock, "%s", status.Reason)
	}

	order := make([]int, 0, len(t.Players)-1)
	for i := 1; i < len(t.Players); i++ {
		order = append(order, (p.Position+i)%len(t.Players))
	}

	t.State.KnockerID = p.ID
	t.State.ResponseOrder = order
	t.State.CurrentResponder = order[0]
	t.State.AllResponded = false
	t.State.ShowdownResponses = map[string]ShowdownResponse{
		p.ID: {
			Action:     ActionKnock,
			Hand:       deck.SortForDisplay(p.Hand),
			Evaluation: Evaluate(p.Hand, t.State.TargetScore, t.Config.HandSize),
		},
	}
	t.State.Phase = PhaseShowdown

	if err := t.commit(p, "knock", status.Reason); err != nil {
		return err
	}
	t.bus.Publish(KnockedEvent{
		KnockerID:     p.ID,
		HandScore:     status.HandScore,
		ResponseOrder: order,
		timestamp:     time.Now(),
	})
	return nil
}

// Respond records one seat's fold or call during the showdown. Seats respond
// strictly in response order; calling is rejected for mazi hands. The
// response that completes the sequence flips AllResponded, moves the phase
// to revealing and publishes SettlementDueEvent.
func (t *Table) Respond(playerID string, action ResponseAction) error {
	if t.State == nil || t.State.Phase != PhaseShowdown {
		return validationf(CodeWrongPhase, "no showdown in progress")
	}
	if action != ActionFold && action != ActionCall {
		return validationf(CodeUnknownAction, "unknown response %q", action)
	}
	p := t.playerByID(playerID)
	if p == nil {
		return validationf(CodeUnknownPlayer, "player %s not at this table", playerID)
	}
	if _, responded := t.State.ShowdownResponses[p.ID]; responded {
		return validationf(CodeAlreadyResponded, "seat %d already responded", p.Position)
	}
	if p.Position != t.State.CurrentResponder {
		return validationf(CodeNotYourResponse, "it is seat %d's turn to respond", t.State.CurrentResponder)
	}

	eval := Evaluate(p.Hand, t.State.TargetScore, t.Config.HandSize)
	if action == ActionCall && eval.IsMazi {
		return validationf(CodeMaziCannotCall, "a mazi hand may only fold")
	}

	t.State.ShowdownResponses[p.ID] = ShowdownResponse{
		Action:     action,
		IsMazi:     eval.IsMazi,
		Hand:       deck.SortForDisplay(p.Hand),
		Evaluation: eval,
	}

	remaining := 0
	t.State.CurrentResponder = -1
	for _, seat := range t.State.ResponseOrder {
		sp := t.playerBySeat(seat)
		if sp == nil {
			return &StructuralError{Reason: "response order references a missing seat"}
		}
		if _, ok := t.State.ShowdownResponses[sp.ID]; !ok {
			if t.State.CurrentResponder == -1 {
				t.State.CurrentResponder = seat
			}
			remaining++
		}
	}
	allResponded := remaining == 0
	if allResponded {
		t.State.AllResponded = true
		t.State.Phase = PhaseRevealing
	}

	if err := t.commit(p, "respond", string(action)); err != nil {
		return err
	}
	t.bus.Publish(RespondedEvent{
		PlayerID:  p.ID,
		Action:    action,
		Remaining: remaining,
		timestamp: time.Now(),
	})
	if allResponded {
		t.bus.Publish(SettlementDueEvent{
			KnockerID: t.State.KnockerID,
			timestamp: time.Now(),
		})
	}
	return nil
}

// Settle computes the round result once every seat has responded: it
// determines the winner, distributes scores, appends an immutable
// RoundRecord and updates running totals.
func (t *Table) Settle() (*RoundRecord, error) {
	if t.State == nil || t.State.Phase != PhaseRevealing || !t.State.AllResponded {
		return nil, validationf(CodeWrongPhase, "round is not ready to settle")
	}

	competitors := make([]Competitor, 0, len(t.State.ShowdownResponses))
	for playerID, resp := range t.State.ShowdownResponses {
		if resp.IsMazi || resp.Action == ActionFold {
			continue
		}
		competitors = append(competitors, Competitor{
			PlayerID:   playerID,
			Evaluation: resp.Evaluation,
			Hand:       resp.Hand,
		})
	}
	winnerID := DetermineWinner(competitors, t.State.KnockerID)
	scores := CalculateScores(t.Players, t.State.ShowdownResponses, winnerID, t.State.TargetScore)

	record := RoundRecord{
		RoundIndex: t.CurrentRound,
		WinnerID:   winnerID,
		Scores:     scores,
		SettledAt:  time.Now(),
	}
	for _, p := range t.Players {
		delta := scores[p.ID]
		p.TotalScore += delta
		p.RoundScores = append(p.RoundScores, delta)
	}
	t.History = append(t.History, record)
	t.State.Phase = PhaseSettlement

	knocker := t.playerByID(t.State.KnockerID)
	if err := t.commit(knocker, "settle", winnerID); err != nil {
		return nil, err
	}
	t.logger.Info("round settled", "round", record.RoundIndex, "winner", winnerID)
	t.bus.Publish(RoundSettledEvent{Record: record, timestamp: time.Now()})
	return &record, nil
}

// MatchComplete reports whether every configured round has been settled.
func (t *Table) MatchComplete() bool {
	return len(t.History) >= t.Config.TotalRounds
}

// advanceTurn passes the turn to the next seat. RoundNumber counts full
// circuits back to seat 0.
func (t *Table) advanceTurn() {
	t.State.CurrentTurn = (t.State.CurrentTurn + 1) % len(t.Players)
	if t.State.CurrentTurn == 0 {
		t.State.RoundNumber++
	}
}

// requireTurn validates phase and turn ownership for a command.
func (t *Table) requireTurn(playerID string, phases ...Phase) (*Player, error) {
	if t.State == nil {
		return nil, validationf(CodeWrongPhase, "no round in progress")
	}
	legal := false
	for _, phase := range phases {
		if t.State.Phase == phase {
			legal = true
			break
		}
	}
	if !legal {
		return nil, validationf(CodeWrongPhase, "action not legal during %s", t.State.Phase)
	}
	p := t.playerByID(playerID)
	if p == nil {
		return nil, validationf(CodeUnknownPlayer, "player %s not at this table", playerID)
	}
	current := t.playerBySeat(t.State.CurrentTurn)
	if current == nil {
		return nil, &StructuralError{Reason: "current turn seat does not exist"}
	}
	if current.ID != p.ID {
		return nil, validationf(CodeOutOfTurn, "it is %s's turn", current.Name)
	}
	return p, nil
}

// commit finalizes a successful mutation: conservation check, version bump,
// event publish.
func (t *Table) commit(p *Player, action, detail string) error {
	if err := t.checkConservation(); err != nil {
		return err
	}
	t.State.Version++
	seat := -1
	playerID := ""
	if p != nil {
		seat = p.Position
		playerID = p.ID
	}
	t.logger.Debug("action committed",
		"action", action,
		"seat", seat,
		"version", t.State.Version,
		"phase", t.State.Phase)
	t.bus.Publish(PlayerActedEvent{
		PlayerID:  playerID,
		Seat:      seat,
		Action:    action,
		Detail:    detail,
		Version:   t.State.Version,
		timestamp: time.Now(),
	})
	return nil
}

// checkConservation verifies the total card count across deck, hands,
// public zone and discard pile never changes within a round.
func (t *Table) checkConservation() error {
	if t.State == nil {
		return nil
	}
	total := len(t.State.Deck) + len(t.State.PublicZone) + len(t.State.DiscardPile)
	for _, p := range t.Players {
		total += len(p.Hand)
	}
	expected := t.Config.DeckCount * deck.CardsPerDeck
	if total != expected {
		return &StructuralError{
			Reason: "card conservation violated",
		}
	}
	return nil
}

func (t *Table) playerByID(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) playerBySeat(seat int) *Player {
	for _, p := range t.Players {
		if p.Position == seat {
			return p
		}
	}
	return nil
}

// findCard locates a card by ID.
func findCard(cards []deck.Card, id string) (int, bool) {
	for i, c := range cards {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// takeCards removes the identified cards from a hand, preserving the
// selection order in the returned slice. Duplicate or missing IDs fail the
// whole selection.
func takeCards(hand []deck.Card, ids []string) (selected, remaining []deck.Card, verr *ValidationError) {
	remaining = append([]deck.Card(nil), hand...)
	selected = make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		idx, ok := findCard(remaining, id)
		if !ok {
			return nil, nil, validationf(CodeCardNotFound, "card %s is not in hand", id)
		}
		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return selected, remaining, nil
}
