package game

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/koupai/koupai/internal/deck"
	"github.com/koupai/koupai/internal/randutil"
)

func newTestTable(t *testing.T, seed int64, names ...string) *Table {
	t.Helper()
	table := NewTable(DefaultMatchConfig(), randutil.New(seed), log.New(io.Discard))
	for _, name := range names {
		if _, err := table.AddPlayer(name); err != nil {
			t.Fatalf("AddPlayer(%s): %v", name, err)
		}
	}
	return table
}

// setHand replaces a seat's hand while keeping the table's total card count
// balanced against the draw pile, so conservation checks stay valid.
func setHand(table *Table, seat int, cards []deck.Card) {
	p, _ := table.PlayerBySeat(seat)
	old := p.Hand
	p.Hand = cards
	switch {
	case len(cards) < len(old):
		table.State.Deck = append(table.State.Deck, old[len(cards):]...)
	case len(cards) > len(old):
		table.State.Deck = table.State.Deck[:len(table.State.Deck)-(len(cards)-len(old))]
	}
}

type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) OnEvent(event Event) {
	r.events = append(r.events, event)
}

func (r *eventRecorder) ofType(et EventType) []Event {
	var out []Event
	for _, e := range r.events {
		if e.EventType() == et {
			out = append(out, e)
		}
	}
	return out
}

func expectValidation(t *testing.T, err error, code string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError %s, got %v", code, err)
	}
	if ve.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, ve.Code, ve.Reason)
	}
}

func TestStartRoundDealCounts(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob", "Carol")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}

	if table.State.Phase != PhaseFirstPlay {
		t.Errorf("phase = %s, want first_play", table.State.Phase)
	}
	if table.State.Version != 1 {
		t.Errorf("fresh round version = %d, want 1", table.State.Version)
	}
	if table.State.CurrentTurn != 0 {
		t.Errorf("first round should start at seat 0, got %d", table.State.CurrentTurn)
	}

	for _, p := range table.Players {
		want := DefaultHandSize
		if p.Position == 0 {
			want = DefaultHandSize + 1
		}
		if len(p.Hand) != want {
			t.Errorf("seat %d has %d cards, want %d", p.Position, len(p.Hand), want)
		}
	}
	total := len(table.State.Deck) + len(table.State.PublicZone)
	for _, p := range table.Players {
		total += len(p.Hand)
	}
	if total != deck.CardsPerDeck {
		t.Errorf("total cards = %d, want %d", total, deck.CardsPerDeck)
	}
}

func TestStartRoundNeedsTwoPlayers(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 1, "Alone")
	if err := table.StartRound(); err == nil {
		t.Fatal("a single player should not start a round")
	}
}

func TestAddPlayerLimits(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 1, "A", "B", "C", "D")
	if _, err := table.AddPlayer("E"); err == nil {
		t.Error("fifth player should be rejected")
	}
	if !table.Players[0].IsHost {
		t.Error("first player should be host")
	}
	if table.Players[1].IsHost {
		t.Error("only the first player is host")
	}
}

func TestFirstPlayAdvancesTurn(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	bob := table.Players[1]

	// Bob cannot jump the starter's first play.
	err := table.Play(bob.ID, bob.Hand[0].ID)
	expectValidation(t, err, CodeOutOfTurn)

	played := alice.Hand[0].ID
	if err := table.Play(alice.ID, played); err != nil {
		t.Fatal(err)
	}
	if len(alice.Hand) != DefaultHandSize {
		t.Errorf("starter should be back to %d cards, has %d", DefaultHandSize, len(alice.Hand))
	}
	if len(table.State.PublicZone) != 1 || table.State.PublicZone[0].ID != played {
		t.Error("played card should be in the public zone")
	}
	if table.State.CurrentTurn != 1 {
		t.Errorf("turn should pass to seat 1, got %d", table.State.CurrentTurn)
	}
	if table.State.Phase != PhaseActionSelect {
		t.Errorf("phase = %s, want action_select", table.State.Phase)
	}
}

func TestPlayUnknownCard(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	err := table.Play(table.Players[0].ID, "no_such_card")
	expectValidation(t, err, CodeCardNotFound)
}

func TestDrawThenMustPlay(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	bob := table.Players[1]
	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}

	drawn, err := table.Draw(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bob.Hand) != DefaultHandSize+1 {
		t.Errorf("after draw hand has %d cards, want %d", len(bob.Hand), DefaultHandSize+1)
	}
	if table.State.Phase != PhasePlayAfterDraw {
		t.Errorf("phase = %s, want play_after_draw", table.State.Phase)
	}

	// Only playing is legal now.
	_, err = table.Draw(bob.ID)
	expectValidation(t, err, CodeWrongPhase)
	err = table.ForceSwap(bob.ID, []string{bob.Hand[0].ID})
	expectValidation(t, err, CodeWrongPhase)

	if err := table.Play(bob.ID, drawn.ID); err != nil {
		t.Fatal(err)
	}
	if len(bob.Hand) != DefaultHandSize {
		t.Errorf("after playing the drawn card hand has %d cards", len(bob.Hand))
	}
	if table.State.CurrentTurn != 0 {
		t.Errorf("turn should wrap to seat 0, got %d", table.State.CurrentTurn)
	}
	if table.State.RoundNumber != 1 {
		t.Errorf("wrap to seat 0 should bump the circuit counter, got %d", table.State.RoundNumber)
	}
}

func TestForceSwapCountMustMatchZone(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	bob := table.Players[1]

	// Swapping against an empty zone is meaningless.
	table.State.Phase = PhaseActionSelect
	err := table.ForceSwap(alice.ID, []string{alice.Hand[0].ID})
	expectValidation(t, err, CodeZoneEmpty)

	table.State.Phase = PhaseFirstPlay
	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}

	// Zone holds one card; offering two is rejected before any mutation.
	before := append([]deck.Card(nil), bob.Hand...)
	err = table.ForceSwap(bob.ID, []string{bob.Hand[0].ID, bob.Hand[1].ID})
	expectValidation(t, err, CodeWrongCardCount)
	if len(bob.Hand) != len(before) {
		t.Fatal("rejected swap must not mutate the hand")
	}

	zoneCard := table.State.PublicZone[0]
	given := bob.Hand[2]
	if err := table.ForceSwap(bob.ID, []string{given.ID}); err != nil {
		t.Fatal(err)
	}
	if table.State.PublicZone[0].ID != given.ID {
		t.Error("zone should hold the surrendered card")
	}
	if _, ok := findCard(bob.Hand, zoneCard.ID); !ok {
		t.Error("hand should hold the former zone card")
	}
	if table.State.CurrentTurn != 0 {
		t.Error("force swap ends the turn")
	}
}

func TestSelectiveSwapRequiresFullZone(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	bob := table.Players[1]

	err := table.SelectiveSwap(bob.ID, []string{bob.Hand[0].ID}, []string{table.State.PublicZone[0].ID})
	expectValidation(t, err, CodeZoneNotFull)
}

func TestSelectiveSwapCardForCard(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	// Fill the zone from the draw pile and hand Bob the turn.
	capacity := table.Capacity()
	table.State.PublicZone = append(table.State.PublicZone, table.State.Deck[:capacity]...)
	table.State.Deck = table.State.Deck[capacity:]
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 1

	bob := table.Players[1]
	give := []string{bob.Hand[0].ID, bob.Hand[1].ID}
	take := []string{table.State.PublicZone[0].ID, table.State.PublicZone[3].ID}

	if err := table.SelectiveSwap(bob.ID, give, take); err != nil {
		t.Fatal(err)
	}
	if len(table.State.PublicZone) != capacity {
		t.Errorf("zone size changed: %d", len(table.State.PublicZone))
	}
	if table.State.PublicZone[0].ID != give[0] || table.State.PublicZone[3].ID != give[1] {
		t.Error("surrendered cards should occupy the taken slots")
	}
	for _, id := range take {
		if _, ok := findCard(bob.Hand, id); !ok {
			t.Errorf("hand should contain taken card %s", id)
		}
	}
	if len(bob.Hand) != DefaultHandSize {
		t.Errorf("hand size changed: %d", len(bob.Hand))
	}
}

func TestSelectiveSwapRejectionLeavesZoneIntact(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	capacity := table.Capacity()
	table.State.PublicZone = append(table.State.PublicZone, table.State.Deck[:capacity]...)
	table.State.Deck = table.State.Deck[capacity:]
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 1

	bob := table.Players[1]
	handBefore := append([]deck.Card(nil), bob.Hand...)
	zoneBefore := append([]deck.Card(nil), table.State.PublicZone...)
	version := table.State.Version

	// A missing zone ID fails after the first slot would already have
	// been matched; nothing may have been written.
	give := []string{bob.Hand[0].ID, bob.Hand[1].ID}
	err := table.SelectiveSwap(bob.ID, give, []string{zoneBefore[0].ID, "nope"})
	expectValidation(t, err, CodeCardNotFound)

	// The same zone card selected twice must not double-fill a slot.
	err = table.SelectiveSwap(bob.ID, give, []string{zoneBefore[0].ID, zoneBefore[0].ID})
	expectValidation(t, err, CodeCardNotFound)

	for i, c := range table.State.PublicZone {
		if c.ID != zoneBefore[i].ID {
			t.Fatalf("zone slot %d changed to %s", i, c.ID)
		}
	}
	for i, c := range bob.Hand {
		if c.ID != handBefore[i].ID {
			t.Fatalf("hand slot %d changed to %s", i, c.ID)
		}
	}
	if table.State.Version != version {
		t.Error("rejected swap must not bump the version")
	}
	if table.State.CurrentTurn != 1 {
		t.Error("rejected swap must not pass the turn")
	}
}

func TestClearKeepsTheTurn(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	capacity := table.Capacity()
	table.State.PublicZone = append(table.State.PublicZone, table.State.Deck[:capacity]...)
	table.State.Deck = table.State.Deck[capacity:]
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 1

	bob := table.Players[1]
	if err := table.Clear(bob.ID); err != nil {
		t.Fatal(err)
	}
	if len(table.State.PublicZone) != 0 {
		t.Error("zone should be empty after clear")
	}
	if len(table.State.DiscardPile) != capacity {
		t.Errorf("discard pile has %d cards, want %d", len(table.State.DiscardPile), capacity)
	}
	if table.State.Phase != PhasePlayAfterClear {
		t.Errorf("phase = %s, want play_after_clear", table.State.Phase)
	}
	if table.State.CurrentTurn != 1 {
		t.Error("clear must not pass the turn")
	}

	// The clearing player still owes one card into the emptied zone.
	if err := table.PlayAfterClear(bob.ID, bob.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	if len(table.State.PublicZone) != 1 {
		t.Error("one card should be in the zone after the follow-up play")
	}
	if table.State.CurrentTurn != 0 {
		t.Error("the follow-up play ends the turn")
	}
}

func TestClearRequiresFullZone(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	err := table.Clear(table.Players[1].ID)
	expectValidation(t, err, CodeZoneNotFull)
}

func TestVersionIncrementsPerAction(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 42, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	alice := table.Players[0]
	bob := table.Players[1]

	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Draw(bob.ID); err != nil {
		t.Fatal(err)
	}
	if err := table.Play(bob.ID, bob.Hand[0].ID); err != nil {
		t.Fatal(err)
	}

	// Three committed actions on a fresh round: version 1 -> 4.
	if table.State.Version != 4 {
		t.Errorf("version = %d, want 4", table.State.Version)
	}

	// A rejected action must not advance the version.
	err := table.Play(bob.ID, "nope")
	if err == nil {
		t.Fatal("expected rejection")
	}
	if table.State.Version != 4 {
		t.Errorf("rejected action bumped version to %d", table.State.Version)
	}
}

func TestKnockOpensShowdown(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob", "Carol")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 1
	setHand(table, 1, spadesFlush46())

	recorder := &eventRecorder{}
	table.EventBus().Subscribe(recorder)

	bob := table.Players[1]
	if err := table.Knock(bob.ID); err != nil {
		t.Fatal(err)
	}
	if table.State.Phase != PhaseShowdown {
		t.Fatalf("phase = %s, want showdown", table.State.Phase)
	}
	if table.State.KnockerID != bob.ID {
		t.Error("knocker not recorded")
	}
	wantOrder := []int{2, 0}
	if len(table.State.ResponseOrder) != 2 ||
		table.State.ResponseOrder[0] != wantOrder[0] ||
		table.State.ResponseOrder[1] != wantOrder[1] {
		t.Errorf("response order = %v, want %v", table.State.ResponseOrder, wantOrder)
	}
	if table.State.CurrentResponder != 2 {
		t.Errorf("first responder = %d, want 2", table.State.CurrentResponder)
	}
	resp, ok := table.State.ShowdownResponses[bob.ID]
	if !ok || resp.Action != ActionKnock {
		t.Error("knocker's own response should be recorded immediately")
	}
	if len(recorder.ofType(EventTypeKnocked)) != 1 {
		t.Error("knock should publish a knocked event")
	}
}

func TestKnockRejectedWithoutQualifyingHand(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 0
	setHand(table, 0, []deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Spades, deck.Three),
		card(deck.Spades, deck.Four),
		card(deck.Spades, deck.Five),
		card(deck.Spades, deck.Six),
	})
	err := table.Knock(table.Players[0].ID)
	expectValidation(t, err, CodeCannotKnock)
}

func TestShowdownResponseSequence(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob", "Carol")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 0
	setHand(table, 0, spadesFlush46())
	// Carol holds a non-mazi flush at exactly the target.
	setHand(table, 2, []deck.Card{
		card(deck.Hearts, deck.King),
		card(deck.Hearts, deck.Queen),
		card(deck.Hearts, deck.Jack),
		card(deck.Hearts, deck.Six),
		card(deck.Hearts, deck.Four),
	}) // 40

	alice := table.Players[0]
	bob := table.Players[1]
	carol := table.Players[2]
	if err := table.Knock(alice.ID); err != nil {
		t.Fatal(err)
	}

	recorder := &eventRecorder{}
	table.EventBus().Subscribe(recorder)

	// Carol cannot respond before Bob.
	err := table.Respond(carol.ID, ActionFold)
	expectValidation(t, err, CodeNotYourResponse)

	// The knocker cannot respond again.
	err = table.Respond(alice.ID, ActionFold)
	expectValidation(t, err, CodeAlreadyResponded)

	if err := table.Respond(bob.ID, ActionFold); err != nil {
		t.Fatal(err)
	}
	if table.State.AllResponded {
		t.Fatal("one response outstanding, AllResponded must stay false")
	}
	if table.State.CurrentResponder != 2 {
		t.Errorf("responder should advance to seat 2, got %d", table.State.CurrentResponder)
	}

	err = table.Respond(bob.ID, ActionFold)
	expectValidation(t, err, CodeAlreadyResponded)

	if err := table.Respond(carol.ID, ActionCall); err != nil {
		t.Fatal(err)
	}
	if !table.State.AllResponded {
		t.Fatal("final response should flip AllResponded")
	}
	if table.State.Phase != PhaseRevealing {
		t.Errorf("phase = %s, want revealing", table.State.Phase)
	}
	if len(recorder.ofType(EventTypeSettlementDue)) != 1 {
		t.Error("the flipping transition should publish settlement_due exactly once")
	}
}

func TestMaziMayOnlyFold(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 0
	setHand(table, 0, spadesFlush46())
	setHand(table, 1, []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Hearts, deck.King),
		card(deck.Clubs, deck.Queen),
		card(deck.Clubs, deck.Jack),
		card(deck.Diamonds, deck.Ten),
	})

	if err := table.Knock(table.Players[0].ID); err != nil {
		t.Fatal(err)
	}
	bob := table.Players[1]
	err := table.Respond(bob.ID, ActionCall)
	expectValidation(t, err, CodeMaziCannotCall)

	if err := table.Respond(bob.ID, ActionFold); err != nil {
		t.Fatalf("mazi fold should be accepted: %v", err)
	}
}

func TestSettleRecordsRoundAndUpdatesTotals(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.State.Phase = PhaseActionSelect
	table.State.CurrentTurn = 0
	setHand(table, 0, spadesFlush46())
	setHand(table, 1, []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Hearts, deck.King),
		card(deck.Clubs, deck.Queen),
		card(deck.Clubs, deck.Jack),
		card(deck.Diamonds, deck.Ten),
	})

	alice := table.Players[0]
	bob := table.Players[1]
	if err := table.Knock(alice.ID); err != nil {
		t.Fatal(err)
	}

	// Settlement before all responses is rejected.
	if _, err := table.Settle(); err == nil {
		t.Fatal("settle should wait for all responses")
	}

	if err := table.Respond(bob.ID, ActionFold); err != nil {
		t.Fatal(err)
	}
	record, err := table.Settle()
	if err != nil {
		t.Fatal(err)
	}
	if record.WinnerID != alice.ID {
		t.Errorf("winner = %s, want the knocker", record.WinnerID)
	}
	if record.Scores[alice.ID] != 6 {
		t.Errorf("knocker delta = %d, want 6", record.Scores[alice.ID])
	}
	if record.Scores[bob.ID] != 0 {
		t.Errorf("mazi delta = %d, want 0", record.Scores[bob.ID])
	}
	if alice.TotalScore != 6 || bob.TotalScore != 0 {
		t.Errorf("totals = %d/%d, want 6/0", alice.TotalScore, bob.TotalScore)
	}
	if len(table.History) != 1 {
		t.Errorf("history length = %d, want 1", len(table.History))
	}
	if table.State.Phase != PhaseSettlement {
		t.Errorf("phase = %s, want settlement", table.State.Phase)
	}
}

func TestNextRoundStartsWithLowestScorer(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob", "Carol")
	table.Config.TotalRounds = 2
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	// Fabricate a settled first round: Bob did worst.
	table.History = append(table.History, RoundRecord{
		RoundIndex: 1,
		WinnerID:   table.Players[0].ID,
		Scores: map[string]int{
			table.Players[0].ID: 8,
			table.Players[1].ID: -3,
			table.Players[2].ID: 0,
		},
	})
	table.State.Phase = PhaseSettlement

	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	if table.State.CurrentTurn != 1 {
		t.Errorf("round 2 should start at the lowest scorer (seat 1), got %d", table.State.CurrentTurn)
	}
	if len(table.Players[1].Hand) != DefaultHandSize+1 {
		t.Error("the new starter should receive the extra card")
	}
	if table.State.Version != 1 {
		t.Errorf("version should reset to 1 on a new round, got %d", table.State.Version)
	}
}

func TestNextRoundStarterTieBreaksToLowestSeat(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob", "Carol")
	record := RoundRecord{Scores: map[string]int{
		table.Players[0].ID: 5,
		table.Players[1].ID: -2,
		table.Players[2].ID: -2,
	}}
	if seat := table.nextStartingSeat(record); seat != 1 {
		t.Errorf("tie at -2 should break to seat 1, got %d", seat)
	}
}

func TestMatchComplete(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 7, "Alice", "Bob")
	table.Config.TotalRounds = 1
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}
	table.History = append(table.History, RoundRecord{RoundIndex: 1})
	table.State.Phase = PhaseSettlement

	if !table.MatchComplete() {
		t.Error("one settled round of one should complete the match")
	}
	if err := table.StartRound(); !errors.Is(err, ErrMatchComplete) {
		t.Errorf("StartRound past the match length = %v, want ErrMatchComplete", err)
	}
}

func TestCardConservationAcrossActions(t *testing.T) {
	t.Parallel()
	table := newTestTable(t, 99, "Alice", "Bob", "Carol")
	if err := table.StartRound(); err != nil {
		t.Fatal(err)
	}

	count := func() int {
		total := len(table.State.Deck) + len(table.State.PublicZone) + len(table.State.DiscardPile)
		for _, p := range table.Players {
			total += len(p.Hand)
		}
		return total
	}

	alice := table.Players[0]
	bob := table.Players[1]
	carol := table.Players[2]

	if err := table.Play(alice.ID, alice.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Draw(bob.ID); err != nil {
		t.Fatal(err)
	}
	if err := table.Play(bob.ID, bob.Hand[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := table.ForceSwap(carol.ID, []string{carol.Hand[0].ID, carol.Hand[1].ID}); err != nil {
		t.Fatal(err)
	}
	if got := count(); got != deck.CardsPerDeck {
		t.Errorf("total cards = %d, want %d", got, deck.CardsPerDeck)
	}
}
