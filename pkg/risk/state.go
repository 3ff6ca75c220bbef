package risk

// Status represents the overall game lifecycle stage.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Phase represents the stage within a player's turn. It is only
// meaningful while the game status is setup or playing.
type Phase string

const (
	PhaseReinforcement Phase = "reinforcement"
	PhaseAttack        Phase = "attack"
	PhaseFortify       Phase = "fortify"
)

// GameState holds the game-level fields replay folds over.
type GameState struct {
	ID                 string `json:"id"`
	MaxPlayers         int    `json:"max_players"`
	Status             Status `json:"status"`
	Phase              Phase  `json:"phase"`
	CurrentPlayerOrder int    `json:"current_player_order"`
	CurrentTurn        int    `json:"current_turn"`
	WinnerID           string `json:"winner_id,omitempty"`
}

// PlayerState is the projected view of one player.
type PlayerState struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Color           string `json:"color"`
	TurnOrder       int    `json:"turn_order"`
	ArmiesAvailable int    `json:"armies_available"`
	IsEliminated    bool   `json:"is_eliminated"`
}

// TerritoryState is the projected view of one territory.
type TerritoryState struct {
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id,omitempty"`
	ArmyCount int    `json:"army_count"`
}

// State is a complete snapshot of a game at a point in the event log.
// It is the value the replay fold produces and the shape persisted as
// a snapshot checkpoint.
type State struct {
	Game        GameState        `json:"game"`
	Players     []PlayerState    `json:"players"`
	Territories []TerritoryState `json:"territories"`
}

// Player returns the player with the given ID, or nil.
func (s *State) Player(id string) *PlayerState {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// PlayerAtOrder returns the player with the given turn order, or nil.
func (s *State) PlayerAtOrder(order int) *PlayerState {
	for i := range s.Players {
		if s.Players[i].TurnOrder == order {
			return &s.Players[i]
		}
	}
	return nil
}

// Territory returns the territory with the given name, or nil.
func (s *State) Territory(name string) *TerritoryState {
	for i := range s.Territories {
		if s.Territories[i].Name == name {
			return &s.Territories[i]
		}
	}
	return nil
}

// Owners returns the territory -> owner map used by board queries.
func (s *State) Owners() map[string]string {
	owners := make(map[string]string, len(s.Territories))
	for _, t := range s.Territories {
		if t.OwnerID != "" {
			owners[t.Name] = t.OwnerID
		}
	}
	return owners
}

// TerritoryCount returns how many territories the player owns.
func (s *State) TerritoryCount(playerID string) int {
	count := 0
	for _, t := range s.Territories {
		if t.OwnerID == playerID {
			count++
		}
	}
	return count
}

// ActivePlayers returns the players not yet eliminated.
func (s *State) ActivePlayers() []PlayerState {
	var active []PlayerState
	for _, p := range s.Players {
		if !p.IsEliminated {
			active = append(active, p)
		}
	}
	return active
}

// CurrentPlayer returns the player whose turn it is, or nil before the
// game has started.
func (s *State) CurrentPlayer() *PlayerState {
	return s.PlayerAtOrder(s.Game.CurrentPlayerOrder)
}
