package game

import (
	"github.com/koupai/koupai/internal/deck"
)

// Competitor is one entrant in the showdown comparison.
type Competitor struct {
	PlayerID   string
	Evaluation Evaluation
	Hand       []deck.Card
}

// CompareHands ranks two competing hands. Returns 1 when a wins, -1 when b
// wins, 0 for a true tie. Tiers, in order: total score; suit rank
// (spades > hearts > clubs > diamonds); card-by-card after sorting each hand
// descending by showdown value; finally the knocker wins a full tie against
// a non-knocker.
func CompareHands(a, b Competitor, knockerID string) int {
	if a.Evaluation.HandScore != b.Evaluation.HandScore {
		if a.Evaluation.HandScore > b.Evaluation.HandScore {
			return 1
		}
		return -1
	}

	if ar, br := a.Evaluation.Suit.CompareRank(), b.Evaluation.Suit.CompareRank(); ar != br {
		if ar > br {
			return 1
		}
		return -1
	}

	ca := deck.SortByShowdownValue(a.Hand)
	cb := deck.SortByShowdownValue(b.Hand)
	n := len(ca)
	if len(cb) < n {
		n = len(cb)
	}
	for i := 0; i < n; i++ {
		if va, vb := ca[i].ShowdownValue(), cb[i].ShowdownValue(); va != vb {
			if va > vb {
				return 1
			}
			return -1
		}
	}

	// Fully identical hands: the knocker wins the pairwise comparison.
	if a.PlayerID == knockerID {
		return 1
	}
	if b.PlayerID == knockerID {
		return -1
	}
	return 0
}

// DetermineWinner reduces the competing pool to a single winner. An empty
// pool means everyone folded and the knocker wins by default.
func DetermineWinner(competitors []Competitor, knockerID string) string {
	if len(competitors) == 0 {
		return knockerID
	}
	winner := competitors[0]
	for _, c := range competitors[1:] {
		if CompareHands(winner, c, knockerID) < 0 {
			winner = c
		}
	}
	return winner.PlayerID
}

// CalculateScores computes the per-player round deltas. Each mazi scores 0.
// Each fold scores its own handScore-targetScore, independent of every other
// hand. Each called-but-lost competitor scores 0 but contributes its base
// score into the winner's pool; the winner takes its own base plus the sum
// of all losing competitors' bases.
func CalculateScores(players []*Player, responses map[string]ShowdownResponse, winnerID string, targetScore int) map[string]int {
	scores := make(map[string]int, len(players))

	winnerResp, ok := responses[winnerID]
	if !ok {
		// No winner response recorded: nothing to distribute.
		for _, p := range players {
			scores[p.ID] = 0
		}
		return scores
	}
	winnerBase := winnerResp.Evaluation.HandScore - targetScore

	pool := 0
	for _, p := range players {
		resp, ok := responses[p.ID]
		if !ok || p.ID == winnerID {
			continue
		}
		if !resp.IsMazi && (resp.Action == ActionCall || resp.Action == ActionKnock) {
			pool += resp.Evaluation.HandScore - targetScore
		}
	}

	for _, p := range players {
		resp, ok := responses[p.ID]
		switch {
		case !ok:
			scores[p.ID] = 0
		case p.ID == winnerID:
			scores[p.ID] = winnerBase + pool
		case resp.IsMazi:
			scores[p.ID] = 0
		case resp.Action == ActionFold:
			scores[p.ID] = resp.Evaluation.HandScore - targetScore
		default:
			// Called (or knocked) and lost: the base went into the pool.
			scores[p.ID] = 0
		}
	}
	return scores
}
