package deck

import (
	"errors"
	rand "math/rand/v2"
	"sort"
)

// ErrInsufficientCards is returned when a deal asks for more cards than the
// draw pile holds. Recoverable: the caller picks a different action.
var ErrInsufficientCards = errors.New("insufficient cards in draw pile")

// CardsPerDeck is the size of one physical deck: 52 ranked cards plus 2 jokers.
const CardsPerDeck = 54

// NewDecks builds count physical 54-card decks as one flat, unshuffled
// sequence. Card IDs are unique across sub-decks.
func NewDecks(count int) []Card {
	if count < 1 {
		count = 1
	}
	cards := make([]Card, 0, count*CardsPerDeck)
	for n := 1; n <= count; n++ {
		for suit := Spades; suit <= Diamonds; suit++ {
			for rank := Two; rank <= Ace; rank++ {
				cards = append(cards, newCard(suit, rank, n))
			}
		}
		cards = append(cards, newCard(Joker, SmallJoker, n))
		cards = append(cards, newCard(Joker, BigJoker, n))
	}
	return cards
}

// Shuffle permutes cards in place with Fisher-Yates, uniform over all
// permutations given a fair source.
func Shuffle(cards []Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal takes the first n cards off the pile and returns the dealt cards and
// the remaining pile. The input slice is not modified.
func Deal(pile []Card, n int) (dealt, remaining []Card, err error) {
	if n < 0 || n > len(pile) {
		return nil, nil, ErrInsufficientCards
	}
	dealt = append([]Card(nil), pile[:n]...)
	remaining = append([]Card(nil), pile[n:]...)
	return dealt, remaining, nil
}

// SortForDisplay returns a copy of hand in presentation order: jokers first
// (big before small), then spades, hearts, clubs, diamonds, descending rank
// within each suit (A high, 2 low).
func SortForDisplay(hand []Card) []Card {
	sorted := append([]Card(nil), hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Suit.displayOrder() != b.Suit.displayOrder() {
			return a.Suit.displayOrder() < b.Suit.displayOrder()
		}
		return a.Rank > b.Rank
	})
	return sorted
}

// SortByShowdownValue returns a copy of hand sorted descending by the
// third-tier comparison value.
func SortByShowdownValue(hand []Card) []Card {
	sorted := append([]Card(nil), hand...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ShowdownValue() > sorted[j].ShowdownValue()
	})
	return sorted
}
