package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/koupai/koupai/internal/deck"
	"github.com/koupai/koupai/internal/game"
)

func TestSendGameErrorCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "validation errors keep their code",
			err:      &game.ValidationError{Code: game.CodeOutOfTurn, Reason: "not your turn"},
			wantCode: game.CodeOutOfTurn,
		},
		{
			name:     "an exhausted draw pile is recoverable, not internal",
			err:      fmt.Errorf("draw: %w", deck.ErrInsufficientCards),
			wantCode: "insufficient_cards",
		},
		{
			name:     "match complete",
			err:      game.ErrMatchComplete,
			wantCode: "match_complete",
		},
		{
			name:     "anything else is internal",
			err:      errors.New("boom"),
			wantCode: "internal_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := NewConnection(nil, log.New(io.Discard), nil)
			c.sendGameError(tc.err)

			var msg *Message
			select {
			case msg = <-c.send:
			default:
				t.Fatal("no error message queued")
			}
			if msg.Type != MessageTypeError {
				t.Fatalf("message type = %s, want error", msg.Type)
			}
			var data ErrorData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				t.Fatal(err)
			}
			if data.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", data.Code, tc.wantCode)
			}
		})
	}
}
