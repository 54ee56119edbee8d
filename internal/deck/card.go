package deck

import (
	"encoding/json"
	"fmt"
)

// Suit represents a card suit. Jokers carry the Joker suit.
type Suit int

const (
	SuitNone Suit = iota
	Spades
	Hearts
	Clubs
	Diamonds
	Joker
)

// String returns the document representation of a suit ("spades", "joker", ...).
func (s Suit) String() string {
	switch s {
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Joker:
		return "joker"
	default:
		return ""
	}
}

// Symbol returns the single-glyph form used for terminal display.
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Joker:
		return "☆"
	default:
		return "?"
	}
}

// IsReal reports whether the suit is one of the four playing suits.
func (s Suit) IsReal() bool {
	return s == Spades || s == Hearts || s == Clubs || s == Diamonds
}

// CompareRank returns the showdown tie-break rank of a suit:
// spades(4) > hearts(3) > clubs(2) > diamonds(1).
func (s Suit) CompareRank() int {
	switch s {
	case Spades:
		return 4
	case Hearts:
		return 3
	case Clubs:
		return 2
	case Diamonds:
		return 1
	default:
		return 0
	}
}

// displayOrder is the primary sort key for hand display:
// jokers first, then spades, hearts, clubs, diamonds.
func (s Suit) displayOrder() int {
	switch s {
	case Joker:
		return 0
	case Spades:
		return 1
	case Hearts:
		return 2
	case Clubs:
		return 3
	case Diamonds:
		return 4
	default:
		return 5
	}
}

// MarshalJSON encodes the suit as its document name.
func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a suit from its document name.
func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseSuit(name)
	if !ok {
		return fmt.Errorf("unknown suit %q", name)
	}
	*s = parsed
	return nil
}

// ParseSuit maps a document name back to a Suit.
func ParseSuit(name string) (Suit, bool) {
	switch name {
	case "spades":
		return Spades, true
	case "hearts":
		return Hearts, true
	case "clubs":
		return Clubs, true
	case "diamonds":
		return Diamonds, true
	case "joker":
		return Joker, true
	case "":
		return SuitNone, true
	}
	return SuitNone, false
}

// Rank represents a card rank. Jokers use SmallJoker and BigJoker.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	SmallJoker
	BigJoker
)

// String returns the document representation of a rank
// ("2".."10", "J", "Q", "K", "A", "small", "big").
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	case r == SmallJoker:
		return "small"
	case r == BigJoker:
		return "big"
	default:
		return "?"
	}
}

// MarshalJSON encodes the rank as its document name.
func (r Rank) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a rank from its document name.
func (r *Rank) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, ok := ParseRank(name)
	if !ok {
		return fmt.Errorf("unknown rank %q", name)
	}
	*r = parsed
	return nil
}

// ParseRank maps a document name back to a Rank.
func ParseRank(name string) (Rank, bool) {
	switch name {
	case "J":
		return Jack, true
	case "Q":
		return Queen, true
	case "K":
		return King, true
	case "A":
		return Ace, true
	case "small":
		return SmallJoker, true
	case "big":
		return BigJoker, true
	}
	var n int
	if _, err := fmt.Sscanf(name, "%d", &n); err == nil && n >= 2 && n <= 10 {
		return Rank(n), true
	}
	return 0, false
}

// Card is a single playing card. Cards are immutable once dealt; the ID is
// unique within the active deck set and stable across serialization.
type Card struct {
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
	ID   string `json:"id"`
}

// NewCard creates a card belonging to the first sub-deck.
func NewCard(suit Suit, rank Rank) Card {
	return newCard(suit, rank, 1)
}

// newCard creates a card with an ID disambiguated by sub-deck ordinal.
// The first sub-deck keeps the bare "suit_rank" form used by clients.
func newCard(suit Suit, rank Rank, subDeck int) Card {
	id := fmt.Sprintf("%s_%s", suit, rank)
	if subDeck > 1 {
		id = fmt.Sprintf("%s_%d", id, subDeck)
	}
	return Card{Suit: suit, Rank: rank, ID: id}
}

// String returns a compact display form (e.g. "A♠", "big☆").
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit.Symbol())
}

// IsJoker reports whether the card is one of the two jokers.
func (c Card) IsJoker() bool {
	return c.Suit == Joker
}

// ScoreValue returns the additive score of the card: jokers 10, A 11,
// 2-9 face value, 10/J/Q/K 10.
func (c Card) ScoreValue() int {
	switch {
	case c.IsJoker():
		return 10
	case c.Rank == Ace:
		return 11
	case c.Rank >= Two && c.Rank <= Nine:
		return int(c.Rank)
	default:
		return 10
	}
}

// ShowdownValue returns the per-card comparison value used in the third
// comparison tier: big joker 15, small joker 14, A 14, K 13, Q 12, J 11,
// numerals at face value.
func (c Card) ShowdownValue() int {
	switch c.Rank {
	case BigJoker:
		return 15
	case SmallJoker:
		return 14
	case Ace:
		return 14
	case King:
		return 13
	case Queen:
		return 12
	case Jack:
		return 11
	default:
		return int(c.Rank)
	}
}
