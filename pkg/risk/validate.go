package risk

import "fmt"

// ValidationError describes why a proposed action is illegal. The
// message is surfaced verbatim to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ValidateJoin checks that a player may join the game with the given
// username and color.
func ValidateJoin(s *State, username, color string) error {
	if s.Game.Status != StatusWaiting {
		return invalid("game is not accepting players")
	}
	if username == "" {
		return invalid("username is required")
	}
	if color == "" {
		return invalid("color is required")
	}
	if len(s.Players) >= s.Game.MaxPlayers {
		return invalid("game is full")
	}
	for _, p := range s.Players {
		if p.Username == username {
			return invalid("username %q is already taken", username)
		}
		if p.Color == color {
			return invalid("color %q is already taken", color)
		}
	}
	return nil
}

// ValidateStart checks that the game may start.
func ValidateStart(s *State) error {
	if s.Game.Status != StatusWaiting {
		return invalid("game has already started")
	}
	if len(s.Players) < MinPlayers {
		return invalid("need at least %d players to start", MinPlayers)
	}
	return nil
}

// ValidateCurrentTurn checks that the player exists, is not
// eliminated, and holds the turn pointer.
func ValidateCurrentTurn(s *State, playerID string) error {
	p := s.Player(playerID)
	if p == nil {
		return invalid("player is not in this game")
	}
	if p.IsEliminated {
		return invalid("player has been eliminated")
	}
	if p.TurnOrder != s.Game.CurrentPlayerOrder {
		return invalid("it is not your turn")
	}
	return nil
}

// ValidatePlaceArmies checks an army placement. Placement is legal
// during setup on any owned territory regardless of the phase field,
// and during playing only in the reinforcement phase.
func ValidatePlaceArmies(s *State, playerID, territory string, count int) error {
	p := s.Player(playerID)
	if p == nil {
		return invalid("player is not in this game")
	}
	if p.IsEliminated {
		return invalid("player has been eliminated")
	}

	switch s.Game.Status {
	case StatusSetup:
		// Setup placement rotates freely; the phase field is not consulted.
	case StatusPlaying:
		if s.Game.Phase != PhaseReinforcement {
			return invalid("armies can only be placed during the reinforcement phase")
		}
		if err := ValidateCurrentTurn(s, playerID); err != nil {
			return err
		}
	default:
		return invalid("game is not in progress")
	}

	t := s.Territory(territory)
	if t == nil {
		return invalid("territory %q does not exist", territory)
	}
	if t.OwnerID != playerID {
		return invalid("you do not own %s", territory)
	}
	if count < 1 {
		return invalid("must place at least 1 army")
	}
	if count > p.ArmiesAvailable {
		return invalid("only %d armies available", p.ArmiesAvailable)
	}
	return nil
}

// ValidateAttack checks an attack declaration.
func ValidateAttack(b *Board, s *State, playerID, from, to string) error {
	if s.Game.Status != StatusPlaying {
		return invalid("game is not in progress")
	}
	if s.Game.Phase != PhaseAttack {
		return invalid("attacks are only allowed during the attack phase")
	}
	if err := ValidateCurrentTurn(s, playerID); err != nil {
		return err
	}

	src := s.Territory(from)
	if src == nil {
		return invalid("territory %q does not exist", from)
	}
	dst := s.Territory(to)
	if dst == nil {
		return invalid("territory %q does not exist", to)
	}
	if src.OwnerID != playerID {
		return invalid("you do not own %s", from)
	}
	if dst.OwnerID == playerID {
		return invalid("cannot attack your own territory")
	}
	if src.ArmyCount < 2 {
		return invalid("need at least 2 armies in %s to attack", from)
	}
	if !b.Adjacent(from, to) {
		return invalid("%s is not adjacent to %s", from, to)
	}
	return nil
}

// ValidateFortify checks an army move between two owned territories.
// The territories must be connected through a chain of territories
// owned by the player, and at least one army must stay behind.
func ValidateFortify(b *Board, s *State, playerID, from, to string, count int) error {
	if s.Game.Status != StatusPlaying {
		return invalid("game is not in progress")
	}
	if s.Game.Phase != PhaseFortify {
		return invalid("fortifying is only allowed during the fortify phase")
	}
	if err := ValidateCurrentTurn(s, playerID); err != nil {
		return err
	}

	src := s.Territory(from)
	if src == nil {
		return invalid("territory %q does not exist", from)
	}
	dst := s.Territory(to)
	if dst == nil {
		return invalid("territory %q does not exist", to)
	}
	if from == to {
		return invalid("cannot fortify a territory from itself")
	}
	if src.OwnerID != playerID {
		return invalid("you do not own %s", from)
	}
	if dst.OwnerID != playerID {
		return invalid("you do not own %s", to)
	}
	if count < 1 {
		return invalid("must move at least 1 army")
	}
	if src.ArmyCount <= count {
		return invalid("must leave at least 1 army behind in %s", from)
	}
	if !b.Connected(from, to, playerID, s.Owners()) {
		return invalid("%s is not connected to %s through your territories", from, to)
	}
	return nil
}

// ValidateEndTurn checks that the player may end their turn.
func ValidateEndTurn(s *State, playerID string) error {
	if s.Game.Status != StatusPlaying {
		return invalid("game is not in progress")
	}
	return ValidateCurrentTurn(s, playerID)
}

// ValidateConquestMove checks the caller-chosen army count moved into
// a conquered territory: at least the number of attacking dice, and
// enough must stay behind to hold the source.
func ValidateConquestMove(srcArmies, attackerLosses, diceRolled, move int) error {
	maxMove := srcArmies - attackerLosses - 1
	if move < diceRolled {
		return invalid("must move at least %d armies into the conquered territory", diceRolled)
	}
	if move > maxMove {
		return invalid("can move at most %d armies into the conquered territory", maxMove)
	}
	return nil
}
