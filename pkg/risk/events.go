package risk

import "encoding/json"

// EventType identifies one entry in the closed event vocabulary.
type EventType string

const (
	EventGameCreated        EventType = "game_created"
	EventPlayerJoined       EventType = "player_joined"
	EventGameStarted        EventType = "game_started"
	EventTerritoryClaimed   EventType = "territory_claimed"
	EventSetupArmyPlaced    EventType = "setup_army_placed"
	EventArmyPlaced         EventType = "army_placed"
	EventPhaseChanged       EventType = "phase_changed"
	EventTurnEnded          EventType = "turn_ended"
	EventArmiesFortified    EventType = "armies_fortified"
	EventTerritoryAttacked  EventType = "territory_attacked"
	EventTerritoryConquered EventType = "territory_conquered"
	EventPlayerEliminated   EventType = "player_eliminated"
	EventGameFinished       EventType = "game_finished"
)

// NonUndoable lists the event types that can never be removed by undo.
var NonUndoable = map[EventType]bool{
	EventGameCreated:      true,
	EventGameStarted:      true,
	EventPlayerJoined:     true,
	EventGameFinished:     true,
	EventPlayerEliminated: true,
}

// Event is the replay engine's view of one committed log entry.
// Payloads carry everything the fold needs, so replay never re-runs
// rules or dice.
type Event struct {
	Sequence      int64           `json:"sequence"`
	Type          EventType       `json:"type"`
	PlayerID      string          `json:"player_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// GameCreatedPayload documents game creation.
type GameCreatedPayload struct {
	GameID     string `json:"game_id"`
	MaxPlayers int    `json:"max_players"`
}

// PlayerJoinedPayload documents a player joining.
type PlayerJoinedPayload struct {
	PlayerID  string `json:"player_id"`
	Username  string `json:"username"`
	Color     string `json:"color"`
	TurnOrder int    `json:"turn_order"`
}

// GameStartedPayload documents the transition into setup. Every
// player's pool is seeded with InitialArmies; the territory_claimed
// events that follow each consume one army from the claiming player.
type GameStartedPayload struct {
	PlayerCount   int `json:"player_count"`
	InitialArmies int `json:"initial_armies"`
}

// TerritoryClaimedPayload documents the initial random distribution of
// one territory.
type TerritoryClaimedPayload struct {
	Territory string `json:"territory"`
	PlayerID  string `json:"player_id"`
}

// ArmyPlacedPayload documents a placement during setup or
// reinforcement.
type ArmyPlacedPayload struct {
	Territory string `json:"territory"`
	Count     int    `json:"count"`
}

// PhaseChangedPayload documents a phase or status transition. Status
// is set only when the game lifecycle stage itself changes
// (setup -> playing). Reinforcements, when nonzero, are granted to the
// player at CurrentPlayerOrder as part of the transition.
type PhaseChangedPayload struct {
	Status             Status `json:"status,omitempty"`
	From               Phase  `json:"from,omitempty"`
	To                 Phase  `json:"to"`
	CurrentPlayerOrder int    `json:"current_player_order"`
	Turn               int    `json:"turn,omitempty"`
	Reinforcements     int    `json:"reinforcements,omitempty"`
}

// ArmiesFortifiedPayload documents an army move between two owned
// territories during the fortify phase.
type ArmiesFortifiedPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// TurnEndedPayload documents the turn pointer advancing.
type TurnEndedPayload struct {
	NextPlayerOrder int `json:"next_player_order"`
	NextTurn        int `json:"next_turn"`
	Reinforcements  int `json:"reinforcements"`
}

// TerritoryAttackedPayload documents one combat round.
type TerritoryAttackedPayload struct {
	From           string `json:"from"`
	To             string `json:"to"`
	AttackerDice   []int  `json:"attacker_dice"`
	DefenderDice   []int  `json:"defender_dice"`
	AttackerLosses int    `json:"attacker_losses"`
	DefenderLosses int    `json:"defender_losses"`
	Conquered      bool   `json:"conquered"`
}

// TerritoryConqueredPayload documents an ownership transfer after a
// successful attack.
type TerritoryConqueredPayload struct {
	From          string `json:"from"`
	To            string `json:"to"`
	PreviousOwner string `json:"previous_owner"`
	ArmiesMoved   int    `json:"armies_moved"`
}

// PlayerEliminatedPayload documents a player losing their last
// territory.
type PlayerEliminatedPayload struct {
	PlayerID string `json:"player_id"`
}

// GameFinishedPayload documents the win condition being met.
type GameFinishedPayload struct {
	WinnerID string `json:"winner_id"`
}
