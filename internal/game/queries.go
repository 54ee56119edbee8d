package game

// CurrentTurnPlayer returns the player owning the current turn.
func (t *Table) CurrentTurnPlayer() (*Player, error) {
	if t.State == nil {
		return nil, validationf(CodeWrongPhase, "no round in progress")
	}
	p := t.playerBySeat(t.State.CurrentTurn)
	if p == nil {
		return nil, &StructuralError{Reason: "current turn seat does not exist"}
	}
	return p, nil
}

// IsTurn reports whether it is this player's turn to act.
func (t *Table) IsTurn(playerID string) bool {
	p, err := t.CurrentTurnPlayer()
	return err == nil && p.ID == playerID
}

// IsTurnToRespond reports whether this player owes the next showdown
// response.
func (t *Table) IsTurnToRespond(playerID string) bool {
	if t.State == nil || t.State.Phase != PhaseShowdown {
		return false
	}
	p := t.playerBySeat(t.State.CurrentResponder)
	return p != nil && p.ID == playerID
}

// PlayerResponseStatus reports where a seat stands in the response
// sequence: pending when it is their turn, responded once recorded, not_yet
// otherwise.
func (t *Table) PlayerResponseStatus(playerID string) ResponseStatus {
	if t.State == nil {
		return ResponseNotYet
	}
	if _, ok := t.State.ShowdownResponses[playerID]; ok {
		return ResponseResponded
	}
	if t.IsTurnToRespond(playerID) {
		return ResponsePending
	}
	return ResponseNotYet
}

// Knocker returns display information about the active knock, if any.
func (t *Table) Knocker() (*KnockerInfo, bool) {
	if t.State == nil || t.State.KnockerID == "" {
		return nil, false
	}
	p := t.playerByID(t.State.KnockerID)
	if p == nil {
		return nil, false
	}
	resp := t.State.ShowdownResponses[p.ID]
	return &KnockerInfo{
		PlayerID:  p.ID,
		Name:      p.Name,
		Position:  p.Position,
		HandScore: resp.Evaluation.HandScore,
	}, true
}

// PlayerByID looks up a seated player.
func (t *Table) PlayerByID(id string) (*Player, bool) {
	p := t.playerByID(id)
	return p, p != nil
}

// PlayerBySeat looks up a player by position.
func (t *Table) PlayerBySeat(seat int) (*Player, bool) {
	p := t.playerBySeat(seat)
	return p, p != nil
}
