package game

import (
	"fmt"

	"github.com/koupai/koupai/internal/deck"
)

// HandScore sums the additive score of every card: joker 10, A 11, 2-9 face
// value, 10/J/Q/K 10. There is no combinatorial hand-type scoring.
func HandScore(hand []deck.Card) int {
	total := 0
	for _, c := range hand {
		total += c.ScoreValue()
	}
	return total
}

// FlushResult reports the wildcard-aware flush condition. Suit is only
// meaningful when IsFlush is true.
type FlushResult struct {
	IsFlush bool
	Suit    deck.Suit
}

// CheckFlush determines whether hand forms a single-suit hand, treating
// jokers as wildcards. Fails closed: a hand of the wrong size, or any
// non-joker card without one of the four real suits, is not a flush.
func CheckFlush(hand []deck.Card, handSize int) FlushResult {
	if len(hand) != handSize {
		return FlushResult{}
	}

	var jokers, suited []deck.Card
	for _, c := range hand {
		switch {
		case c.IsJoker():
			jokers = append(jokers, c)
		case c.Suit.IsReal():
			suited = append(suited, c)
		default:
			// A malformed suit invalidates the check rather than being
			// silently ignored.
			return FlushResult{}
		}
	}

	if len(suited) == 0 {
		// All jokers. Defaults to spades.
		return FlushResult{IsFlush: true, Suit: deck.Spades}
	}

	suit := suited[0].Suit
	for _, c := range suited[1:] {
		if c.Suit != suit {
			return FlushResult{}
		}
	}
	return FlushResult{IsFlush: true, Suit: suit}
}

// KnockStatus is the structured answer to "may this hand knock".
type KnockStatus struct {
	CanKnock  bool
	Reason    string
	HandScore int
	// BasicScore is handScore-targetScore when the hand qualifies.
	BasicScore int
}

// CanKnock requires a flush hand scoring strictly above the target: the
// minimum qualifying score is targetScore+1. The reason distinguishes a
// missing flush from a point deficit.
func CanKnock(hand []deck.Card, targetScore, handSize int) KnockStatus {
	score := HandScore(hand)
	flush := CheckFlush(hand, handSize)

	if !flush.IsFlush {
		return KnockStatus{Reason: "not flush", HandScore: score}
	}
	if score <= targetScore {
		deficit := targetScore + 1 - score
		return KnockStatus{
			Reason:    fmt.Sprintf("short by %d points", deficit),
			HandScore: score,
		}
	}
	return KnockStatus{
		CanKnock:   true,
		Reason:     "can knock",
		HandScore:  score,
		BasicScore: score - targetScore,
	}
}

// Evaluate produces the full evaluation of a hand against the target. The
// mazi threshold is one point looser than the knock threshold: a flush hand
// exactly at target is not mazi (it may call) but cannot knock.
func Evaluate(hand []deck.Card, targetScore, handSize int) Evaluation {
	score := HandScore(hand)
	flush := CheckFlush(hand, handSize)
	return Evaluation{
		HandScore: score,
		IsFlush:   flush.IsFlush,
		Suit:      flush.Suit,
		IsMazi:    !flush.IsFlush || score < targetScore,
	}
}
