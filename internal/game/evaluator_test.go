package game

import (
	"testing"

	"github.com/koupai/koupai/internal/deck"
)

func card(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.NewCard(suit, rank)
}

func spadesFlush46() []deck.Card {
	return []deck.Card{
		card(deck.Spades, deck.Ace),   // 11
		card(deck.Spades, deck.King),  // 10
		card(deck.Spades, deck.Queen), // 10
		card(deck.Spades, deck.Jack),  // 10
		card(deck.Spades, deck.Five),  // 5
	}
}

func TestHandScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hand []deck.Card
		want int
	}{
		{"ace is eleven", []deck.Card{card(deck.Spades, deck.Ace)}, 11},
		{"face cards are ten", []deck.Card{
			card(deck.Hearts, deck.Ten),
			card(deck.Hearts, deck.Jack),
			card(deck.Hearts, deck.Queen),
			card(deck.Hearts, deck.King),
		}, 40},
		{"numerals at face value", []deck.Card{
			card(deck.Clubs, deck.Two),
			card(deck.Clubs, deck.Nine),
		}, 11},
		{"jokers are ten", []deck.Card{
			card(deck.Joker, deck.SmallJoker),
			card(deck.Joker, deck.BigJoker),
		}, 20},
		{"full hand", spadesFlush46(), 46},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandScore(tt.hand); got != tt.want {
				t.Errorf("HandScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckFlush(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		hand     []deck.Card
		wantOK   bool
		wantSuit deck.Suit
	}{
		{
			name:     "pure flush",
			hand:     spadesFlush46(),
			wantOK:   true,
			wantSuit: deck.Spades,
		},
		{
			name: "jokers adopt the surrounding suit",
			hand: []deck.Card{
				card(deck.Hearts, deck.Ace),
				card(deck.Joker, deck.SmallJoker),
				card(deck.Hearts, deck.King),
				card(deck.Joker, deck.BigJoker),
				card(deck.Hearts, deck.Nine),
			},
			wantOK:   true,
			wantSuit: deck.Hearts,
		},
		{
			name: "two suits is not a flush",
			hand: []deck.Card{
				card(deck.Hearts, deck.Ace),
				card(deck.Hearts, deck.King),
				card(deck.Hearts, deck.Queen),
				card(deck.Hearts, deck.Jack),
				card(deck.Clubs, deck.Ten),
			},
		},
		{
			name: "wrong hand size fails closed",
			hand: []deck.Card{
				card(deck.Hearts, deck.Ace),
				card(deck.Hearts, deck.King),
			},
		},
		{
			name: "malformed suit fails closed",
			hand: []deck.Card{
				card(deck.Hearts, deck.Ace),
				card(deck.Hearts, deck.King),
				card(deck.Hearts, deck.Queen),
				card(deck.Hearts, deck.Jack),
				{Suit: deck.SuitNone, Rank: deck.Ten, ID: "bogus"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckFlush(tt.hand, 5)
			if got.IsFlush != tt.wantOK {
				t.Fatalf("CheckFlush().IsFlush = %v, want %v", got.IsFlush, tt.wantOK)
			}
			if got.IsFlush && got.Suit != tt.wantSuit {
				t.Errorf("CheckFlush().Suit = %s, want %s", got.Suit, tt.wantSuit)
			}
		})
	}
}

func TestCheckFlushAllJokersDefaultsToSpades(t *testing.T) {
	t.Parallel()
	hand := []deck.Card{
		card(deck.Joker, deck.SmallJoker),
		card(deck.Joker, deck.BigJoker),
	}
	got := CheckFlush(hand, 2)
	if !got.IsFlush || got.Suit != deck.Spades {
		t.Errorf("all-joker hand: got %+v, want spades flush", got)
	}
}

func TestCanKnockRequiresFlush(t *testing.T) {
	t.Parallel()
	hand := []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Hearts, deck.King),
		card(deck.Hearts, deck.Queen),
		card(deck.Hearts, deck.Jack),
		card(deck.Clubs, deck.Ten),
	}
	status := CanKnock(hand, 40, 5)
	if status.CanKnock {
		t.Fatal("mixed-suit hand should not knock")
	}
	if status.Reason != "not flush" {
		t.Errorf("Reason = %q, want %q", status.Reason, "not flush")
	}
}

func TestCanKnockBoundary(t *testing.T) {
	t.Parallel()

	// Flush at exactly the target: 10+10+10+5+5 = 40.
	atTarget := []deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Spades, deck.Jack),
		card(deck.Spades, deck.Five),
		{Suit: deck.Spades, Rank: deck.Five, ID: "spades_5_2"},
	}
	status := CanKnock(atTarget, 40, 5)
	if status.CanKnock {
		t.Fatal("flush at target should not knock; the threshold is strictly above")
	}
	if status.Reason != "short by 1 points" {
		t.Errorf("Reason = %q, want a 1-point deficit", status.Reason)
	}

	above := spadesFlush46()
	status = CanKnock(above, 40, 5)
	if !status.CanKnock {
		t.Fatalf("flush at 46 against 40 should knock: %q", status.Reason)
	}
	if status.BasicScore != 6 {
		t.Errorf("BasicScore = %d, want 6", status.BasicScore)
	}
}

func TestEvaluateMaziThreshold(t *testing.T) {
	t.Parallel()

	// Flush exactly at target: not mazi, may call, cannot knock.
	atTarget := []deck.Card{
		card(deck.Spades, deck.King),
		card(deck.Spades, deck.Queen),
		card(deck.Spades, deck.Jack),
		card(deck.Spades, deck.Five),
		{Suit: deck.Spades, Rank: deck.Five, ID: "spades_5_2"},
	}
	eval := Evaluate(atTarget, 40, 5)
	if eval.IsMazi {
		t.Error("flush at target should not be mazi")
	}

	// Flush below target: mazi.
	below := []deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Spades, deck.Three),
		card(deck.Spades, deck.Four),
		card(deck.Spades, deck.Five),
		card(deck.Spades, deck.Six),
	}
	eval = Evaluate(below, 40, 5)
	if !eval.IsMazi {
		t.Error("20-point flush against 40 should be mazi")
	}

	// High score without a flush: still mazi.
	noFlush := []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Hearts, deck.King),
		card(deck.Hearts, deck.Queen),
		card(deck.Hearts, deck.Jack),
		card(deck.Clubs, deck.Ten),
	}
	eval = Evaluate(noFlush, 40, 5)
	if !eval.IsMazi {
		t.Error("51 points without a flush should be mazi")
	}
}
