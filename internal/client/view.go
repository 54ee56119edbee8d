package client

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koupai/koupai/internal/deck"
	"github.com/koupai/koupai/internal/game"
	"github.com/koupai/koupai/internal/server"
)

// RenderView formats a room state view for the terminal. The recipient's
// own seat is resolved through playerID.
func RenderView(data server.RoomStateData, playerID string) string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf(" Room %s ", data.RoomCode)))
	if data.CurrentRound > 0 {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("  round %d/%d", data.CurrentRound, data.TotalRounds)))
	}
	b.WriteString("\n\n")

	if data.State == nil {
		renderLobby(&b, data, playerID)
		return b.String()
	}

	st := data.State
	b.WriteString(InfoStyle.Render(fmt.Sprintf("phase: %s   target: %d   draw pile: %d",
		st.Phase, st.TargetScore, st.DeckCount)))
	b.WriteString("\n\n")

	b.WriteString("Public zone: ")
	if len(st.PublicZone) == 0 {
		b.WriteString(InfoStyle.Render("(empty)"))
	} else {
		b.WriteString(renderCards(st.PublicZone))
	}
	b.WriteString("\n\n")

	for _, p := range data.Players {
		renderSeat(&b, p, st, playerID)
	}

	if st.KnockerID != "" {
		renderShowdown(&b, data, playerID)
	}
	return b.String()
}

func renderLobby(b *strings.Builder, data server.RoomStateData, playerID string) {
	for _, p := range data.Players {
		marker := " "
		if p.ID == playerID {
			marker = "*"
		}
		status := WarningStyle.Render("waiting")
		if p.IsReady {
			status = TurnStyle.Render("ready")
		}
		host := ""
		if p.IsHost {
			host = " (host)"
		}
		b.WriteString(PlayerInfoStyle.Render(
			fmt.Sprintf("%s seat %d  %s%s  ", marker, p.Position, p.Nickname, host)))
		b.WriteString(status)
		b.WriteString("\n")
	}
}

func renderSeat(b *strings.Builder, p server.PlayerView, st *server.GameStateView, playerID string) {
	name := p.Nickname
	if st.CurrentTurn == p.Position && isTurnPhase(st.Phase) {
		name = TurnStyle.Render(name + " ◀")
	} else {
		name = PlayerInfoStyle.Render(name)
	}
	b.WriteString(fmt.Sprintf("seat %d  %s  %s\n",
		p.Position, name, InfoStyle.Render(fmt.Sprintf("total %d", p.TotalScore))))

	if p.ID == playerID && len(p.Hand) > 0 {
		b.WriteString("  hand: ")
		b.WriteString(renderCards(p.Hand))
		b.WriteString("\n")
	} else {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("  %d cards\n", p.HandCount)))
	}
}

func renderShowdown(b *strings.Builder, data server.RoomStateData, playerID string) {
	st := data.State
	b.WriteString("\n")
	b.WriteString(WarningStyle.Render("— showdown —"))
	b.WriteString("\n")

	names := make(map[string]string, len(data.Players))
	for _, p := range data.Players {
		names[p.ID] = p.Nickname
	}

	ids := make([]string, 0, len(st.ShowdownResponses))
	for id := range st.ShowdownResponses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		resp := st.ShowdownResponses[id]
		line := fmt.Sprintf("%s: %s", names[id], resp.Action)
		if resp.IsMazi {
			line += " (mazi)"
		}
		if len(resp.Hand) > 0 {
			line += fmt.Sprintf("  %d pts  ", resp.Evaluation.HandScore)
		}
		b.WriteString(PlayerInfoStyle.Render(line))
		if len(resp.Hand) > 0 {
			b.WriteString(renderCards(resp.Hand))
		}
		b.WriteString("\n")
	}

	if st.CurrentResponder >= 0 {
		b.WriteString(TurnStyle.Render(
			fmt.Sprintf("waiting on seat %d to respond", st.CurrentResponder)))
		b.WriteString("\n")
	}
}

func renderCards(cards []deck.Card) string {
	formatted := make([]string, 0, len(cards))
	for _, c := range cards {
		switch c.Suit {
		case deck.Hearts, deck.Diamonds:
			formatted = append(formatted, RedCardStyle.Render(c.String()))
		case deck.Joker:
			formatted = append(formatted, JokerCardStyle.Render(c.String()))
		default:
			formatted = append(formatted, BlackCardStyle.Render(c.String()))
		}
	}
	return strings.Join(formatted, " ")
}

// isTurnPhase reports whether the turn marker applies: any phase where the
// current seat owns the next action.
func isTurnPhase(phase game.Phase) bool {
	return phase == game.PhaseActionSelect || phase.IsPlayPhase()
}
