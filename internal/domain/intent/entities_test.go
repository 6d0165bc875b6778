package intent

import (
	"errors"
	"testing"
)

func TestTransition_Edges(t *testing.T) {
	ok := [][2]State{
		{StateRequested, StatePendingConfirmation},
		{StateRequested, StateCancelled},
		{StatePendingConfirmation, StateConfirmed},
		{StatePendingConfirmation, StateFailed},
		{StatePendingConfirmation, StateExpired},
		{StatePendingConfirmation, StateCancelled},
		{StateConfirmed, StateClosed},
	}
	for _, e := range ok {
		i := &Intent{State: e[0]}
		if err := i.Transition(e[1]); err != nil {
			t.Fatalf("%s -> %s: %v", e[0], e[1], err)
		}
	}

	bad := [][2]State{
		{StateConfirmed, StateCancelled},
		{StateFailed, StateConfirmed},
		{StateExpired, StatePendingConfirmation},
		{StateClosed, StateConfirmed},
		{StateRequested, StateConfirmed},
	}
	for _, e := range bad {
		i := &Intent{State: e[0]}
		if err := i.Transition(e[1]); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: want ErrInvalidTransition, got %v", e[0], e[1], err)
		}
		if i.State != e[0] {
			t.Fatalf("state changed on rejected transition: %s", i.State)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []State{StateClosed, StateFailed, StateExpired, StateCancelled} {
		if !(&Intent{State: s}).Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []State{StateRequested, StatePendingConfirmation, StateConfirmed} {
		if (&Intent{State: s}).Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}
