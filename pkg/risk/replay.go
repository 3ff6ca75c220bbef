package risk

import (
	"encoding/json"
	"fmt"
)

// eventHandler applies one event's documented effect to the state.
type eventHandler func(s *State, e Event) error

// replayHandlers dispatches replay by event type. The table is total
// over the event vocabulary; folding an unknown type is an error.
var replayHandlers = map[EventType]eventHandler{
	EventGameCreated:        applyGameCreated,
	EventPlayerJoined:       applyPlayerJoined,
	EventGameStarted:        applyGameStarted,
	EventTerritoryClaimed:   applyTerritoryClaimed,
	EventSetupArmyPlaced:    applyArmyPlaced,
	EventArmyPlaced:         applyArmyPlaced,
	EventPhaseChanged:       applyPhaseChanged,
	EventArmiesFortified:    applyArmiesFortified,
	EventTurnEnded:          applyTurnEnded,
	EventTerritoryAttacked:  applyTerritoryAttacked,
	EventTerritoryConquered: applyTerritoryConquered,
	EventPlayerEliminated:   applyPlayerEliminated,
	EventGameFinished:       applyGameFinished,
}

// Fold replays events in order, starting from the empty state, and
// returns the resulting projection. Events must be a sequence-ordered
// prefix of a single game's log.
func Fold(events []Event) (*State, error) {
	return FoldFrom(&State{}, events)
}

// FoldFrom replays events on top of an existing projection, typically
// a snapshot checkpoint. The initial state is copied, not mutated.
func FoldFrom(initial *State, events []Event) (*State, error) {
	s := cloneState(initial)
	for _, e := range events {
		if err := Apply(s, e); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Apply mutates s with the effect of a single event.
func Apply(s *State, e Event) error {
	handler, ok := replayHandlers[e.Type]
	if !ok {
		return fmt.Errorf("replay: unknown event type %q at sequence %d", e.Type, e.Sequence)
	}
	if err := handler(s, e); err != nil {
		return fmt.Errorf("replay: apply %s at sequence %d: %w", e.Type, e.Sequence, err)
	}
	return nil
}

func decodePayload(e Event, v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func applyGameCreated(s *State, e Event) error {
	var p GameCreatedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	s.Game = GameState{
		ID:          p.GameID,
		MaxPlayers:  p.MaxPlayers,
		Status:      StatusWaiting,
		Phase:       PhaseReinforcement,
		CurrentTurn: 0,
	}
	return nil
}

func applyPlayerJoined(s *State, e Event) error {
	var p PlayerJoinedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	s.Players = append(s.Players, PlayerState{
		ID:        p.PlayerID,
		Username:  p.Username,
		Color:     p.Color,
		TurnOrder: p.TurnOrder,
	})
	return nil
}

func applyGameStarted(s *State, e Event) error {
	var p GameStartedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	s.Game.Status = StatusSetup
	s.Game.Phase = PhaseReinforcement
	for i := range s.Players {
		s.Players[i].ArmiesAvailable = p.InitialArmies
	}
	for _, name := range StandardBoard().Territories {
		s.Territories = append(s.Territories, TerritoryState{Name: name})
	}
	return nil
}

func applyTerritoryClaimed(s *State, e Event) error {
	var p TerritoryClaimedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	t := s.Territory(p.Territory)
	if t == nil {
		return fmt.Errorf("territory %q not in state", p.Territory)
	}
	player := s.Player(p.PlayerID)
	if player == nil {
		return fmt.Errorf("player %q not in state", p.PlayerID)
	}
	t.OwnerID = p.PlayerID
	t.ArmyCount = 1
	player.ArmiesAvailable--
	return nil
}

func applyArmyPlaced(s *State, e Event) error {
	var p ArmyPlacedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	t := s.Territory(p.Territory)
	if t == nil {
		return fmt.Errorf("territory %q not in state", p.Territory)
	}
	player := s.Player(e.PlayerID)
	if player == nil {
		return fmt.Errorf("player %q not in state", e.PlayerID)
	}
	t.ArmyCount += p.Count
	player.ArmiesAvailable -= p.Count
	return nil
}

func applyPhaseChanged(s *State, e Event) error {
	var p PhaseChangedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	if p.Status != "" {
		s.Game.Status = p.Status
	}
	s.Game.Phase = p.To
	s.Game.CurrentPlayerOrder = p.CurrentPlayerOrder
	if p.Turn > 0 {
		s.Game.CurrentTurn = p.Turn
	}
	if p.Reinforcements > 0 {
		player := s.PlayerAtOrder(p.CurrentPlayerOrder)
		if player == nil {
			return fmt.Errorf("no player at turn order %d", p.CurrentPlayerOrder)
		}
		player.ArmiesAvailable += p.Reinforcements
	}
	return nil
}

func applyArmiesFortified(s *State, e Event) error {
	var p ArmiesFortifiedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	src := s.Territory(p.From)
	dst := s.Territory(p.To)
	if src == nil || dst == nil {
		return fmt.Errorf("fortify territories %q/%q not in state", p.From, p.To)
	}
	src.ArmyCount -= p.Count
	dst.ArmyCount += p.Count
	return nil
}

func applyTurnEnded(s *State, e Event) error {
	var p TurnEndedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	player := s.PlayerAtOrder(p.NextPlayerOrder)
	if player == nil {
		return fmt.Errorf("no player at turn order %d", p.NextPlayerOrder)
	}
	s.Game.CurrentPlayerOrder = p.NextPlayerOrder
	s.Game.CurrentTurn = p.NextTurn
	s.Game.Phase = PhaseReinforcement
	player.ArmiesAvailable = p.Reinforcements
	return nil
}

func applyTerritoryAttacked(s *State, e Event) error {
	var p TerritoryAttackedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	src := s.Territory(p.From)
	dst := s.Territory(p.To)
	if src == nil || dst == nil {
		return fmt.Errorf("combat territories %q/%q not in state", p.From, p.To)
	}
	src.ArmyCount -= p.AttackerLosses
	dst.ArmyCount -= p.DefenderLosses
	return nil
}

func applyTerritoryConquered(s *State, e Event) error {
	var p TerritoryConqueredPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	src := s.Territory(p.From)
	dst := s.Territory(p.To)
	if src == nil || dst == nil {
		return fmt.Errorf("conquest territories %q/%q not in state", p.From, p.To)
	}
	dst.OwnerID = e.PlayerID
	dst.ArmyCount = p.ArmiesMoved
	src.ArmyCount -= p.ArmiesMoved
	return nil
}

func applyPlayerEliminated(s *State, e Event) error {
	var p PlayerEliminatedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	player := s.Player(p.PlayerID)
	if player == nil {
		return fmt.Errorf("player %q not in state", p.PlayerID)
	}
	player.IsEliminated = true
	player.ArmiesAvailable = 0
	return nil
}

func applyGameFinished(s *State, e Event) error {
	var p GameFinishedPayload
	if err := decodePayload(e, &p); err != nil {
		return err
	}
	s.Game.Status = StatusFinished
	s.Game.WinnerID = p.WinnerID
	return nil
}

func cloneState(s *State) *State {
	out := &State{Game: s.Game}
	out.Players = append([]PlayerState(nil), s.Players...)
	out.Territories = append([]TerritoryState(nil), s.Territories...)
	return out
}
