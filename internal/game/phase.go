package game

import (
	"encoding/json"
	"fmt"
)

// Phase is the per-round turn phase. The document stores phases under their
// snake_case names.
type Phase int

const (
	// PhaseFirstPlay is entered once at round start for the starting seat
	// only, who holds handSize+1 cards and must play one.
	PhaseFirstPlay Phase = iota
	// PhaseActionSelect is the hub phase: draw, swap, clear or knock.
	PhaseActionSelect
	// PhasePlayAfterDraw requires playing exactly one card after a draw.
	PhasePlayAfterDraw
	// PhasePlayAfterClear requires playing exactly one card into the emptied
	// public zone before the turn can pass.
	PhasePlayAfterClear
	// PhaseShowdown collects fold/call responses after a knock.
	PhaseShowdown
	// PhaseRevealing is entered once every seat has responded.
	PhaseRevealing
	// PhaseSettlement is entered once the round result is computed.
	PhaseSettlement
)

var phaseNames = map[Phase]string{
	PhaseFirstPlay:      "first_play",
	PhaseActionSelect:   "action_select",
	PhasePlayAfterDraw:  "play_after_draw",
	PhasePlayAfterClear: "play_after_clear",
	PhaseShowdown:       "showdown",
	PhaseRevealing:      "revealing",
	PhaseSettlement:     "settlement",
}

// String returns the document name of the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the phase under its document name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase from its document name.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// IsPlayPhase reports whether the phase expects exactly one card play.
func (p Phase) IsPlayPhase() bool {
	return p == PhaseFirstPlay || p == PhasePlayAfterDraw || p == PhasePlayAfterClear
}
