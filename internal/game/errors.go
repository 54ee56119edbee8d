package game

import (
	"errors"
	"fmt"
)

// ErrMatchComplete is returned when a round start is requested past the
// configured match length.
var ErrMatchComplete = errors.New("match complete")

// ValidationError codes. Validation failures are always recoverable: the
// command is rejected before any state mutation.
const (
	CodeWrongPhase       = "wrong_phase"
	CodeOutOfTurn        = "out_of_turn"
	CodeCardNotFound     = "card_not_found"
	CodeWrongCardCount   = "wrong_card_count"
	CodeZoneFull         = "zone_full"
	CodeZoneNotFull      = "zone_not_full"
	CodeZoneEmpty        = "zone_empty"
	CodeCannotKnock      = "cannot_knock"
	CodeMaziCannotCall   = "mazi_cannot_call"
	CodeNotYourResponse  = "not_your_response"
	CodeAlreadyResponded = "already_responded"
	CodeUnknownAction    = "unknown_action"
	CodeUnknownPlayer    = "unknown_player"
)

// ValidationError rejects an illegal command: wrong phase, wrong turn, bad
// card selection, illegal showdown response.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action (%s): %s", e.Code, e.Reason)
}

func validationf(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StructuralError marks a fatal-to-session inconsistency, e.g. the current
// turn seat does not exist among present players. The only recovery is a
// full resynchronization before any further command is accepted.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural inconsistency: %s", e.Reason)
}

// IsStructural reports whether err is a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
