package risk

import "fmt"

// TransitionError describes an illegal phase or status change.
type TransitionError struct {
	Message string
}

func (e *TransitionError) Error() string {
	return "invalid transition: " + e.Message
}

// phaseTransitions lists the player-requestable phase changes during
// playing. Fortify back to reinforcement only happens through end of
// turn, which also advances the turn pointer.
var phaseTransitions = map[Phase]Phase{
	PhaseReinforcement: PhaseAttack,
	PhaseAttack:        PhaseFortify,
}

// CanChangePhase checks whether a game in the given status may move
// from current to next by explicit request. Returns nil if legal.
func CanChangePhase(status Status, current, next Phase) error {
	if status != StatusPlaying {
		return &TransitionError{Message: fmt.Sprintf("cannot change phase while game is %s", status)}
	}
	switch next {
	case PhaseReinforcement, PhaseAttack, PhaseFortify:
	default:
		return &TransitionError{Message: fmt.Sprintf("unknown phase %q", next)}
	}
	if phaseTransitions[current] != next {
		return &TransitionError{Message: fmt.Sprintf("cannot move from %s to %s", current, next)}
	}
	return nil
}

// NextTurnOrder returns the turn order of the next non-eliminated
// player after current, wrapping around. Returns current if no other
// active player exists.
func NextTurnOrder(s *State, current int) int {
	n := len(s.Players)
	if n == 0 {
		return current
	}
	for i := 1; i <= n; i++ {
		order := (current + i) % n
		if p := s.PlayerAtOrder(order); p != nil && !p.IsEliminated {
			return order
		}
	}
	return current
}

// Winner returns the sole remaining active player if exactly one is
// left, or nil.
func Winner(s *State) *PlayerState {
	var winner *PlayerState
	for i := range s.Players {
		if s.Players[i].IsEliminated {
			continue
		}
		if winner != nil {
			return nil
		}
		winner = &s.Players[i]
	}
	return winner
}
