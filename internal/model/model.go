package model

import (
	"encoding/json"
	"time"

	"github.com/erdalgunes/continental/pkg/risk"
)

// Game represents one Risk game row.
type Game struct {
	ID                 string      `json:"id"`
	MaxPlayers         int         `json:"max_players"`
	Status             risk.Status `json:"status"`
	Phase              risk.Phase  `json:"phase"`
	CurrentPlayerOrder int         `json:"current_player_order"`
	CurrentTurn        int         `json:"current_turn"`
	WinnerID           string      `json:"winner_id,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
	Players            []Player    `json:"players,omitempty"`
	Territories        []Territory `json:"territories,omitempty"`
}

// Player represents a player's membership in a game. Players are
// created on join and never deleted; elimination is a flag.
type Player struct {
	ID              string    `json:"id"`
	GameID          string    `json:"game_id"`
	Username        string    `json:"username"`
	Color           string    `json:"color"`
	TurnOrder       int       `json:"turn_order"`
	ArmiesAvailable int       `json:"armies_available"`
	IsEliminated    bool      `json:"is_eliminated"`
	JoinedAt        time.Time `json:"joined_at"`
}

// Territory represents one of the 42 board territories of a game.
type Territory struct {
	ID        string `json:"id"`
	GameID    string `json:"game_id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id,omitempty"`
	ArmyCount int    `json:"army_count"`
}

// Event is one append-only log entry. Sequence numbers are strictly
// increasing and gapless per game; the only deletion path is undo.
type Event struct {
	ID             string          `json:"id"`
	GameID         string          `json:"game_id"`
	SequenceNumber int64           `json:"sequence_number"`
	EventType      risk.EventType  `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PlayerID       string          `json:"player_id,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Snapshot is a projected-state checkpoint bounding replay cost.
type Snapshot struct {
	GameID         string          `json:"game_id"`
	SequenceNumber int64           `json:"sequence_number"`
	State          json.RawMessage `json:"state"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ReplayEvent converts a stored event into the replay engine's shape.
func (e Event) ReplayEvent() risk.Event {
	return risk.Event{
		Sequence:      e.SequenceNumber,
		Type:          e.EventType,
		PlayerID:      e.PlayerID,
		CorrelationID: e.CorrelationID,
		Payload:       e.Payload,
	}
}

// ProjectedState builds the replay-engine projection of the game's
// currently persisted rows.
func (g *Game) ProjectedState() *risk.State {
	s := &risk.State{
		Game: risk.GameState{
			ID:                 g.ID,
			MaxPlayers:         g.MaxPlayers,
			Status:             g.Status,
			Phase:              g.Phase,
			CurrentPlayerOrder: g.CurrentPlayerOrder,
			CurrentTurn:        g.CurrentTurn,
			WinnerID:           g.WinnerID,
		},
	}
	for _, p := range g.Players {
		s.Players = append(s.Players, risk.PlayerState{
			ID:              p.ID,
			Username:        p.Username,
			Color:           p.Color,
			TurnOrder:       p.TurnOrder,
			ArmiesAvailable: p.ArmiesAvailable,
			IsEliminated:    p.IsEliminated,
		})
	}
	for _, t := range g.Territories {
		s.Territories = append(s.Territories, risk.TerritoryState{
			Name:      t.Name,
			OwnerID:   t.OwnerID,
			ArmyCount: t.ArmyCount,
		})
	}
	return s
}
