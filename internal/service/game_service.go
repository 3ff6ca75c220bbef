package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNotCreator   = errors.New("only the game creator can start the game")
)

// GameService handles game lifecycle operations: creation, joining,
// starting, and reads.
type GameService struct {
	gameRepo  repository.GameRepository
	eventRepo repository.EventRepository
	cache     repository.GameCache
	board     *risk.Board

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, eventRepo repository.EventRepository, cache repository.GameCache) *GameService {
	return &GameService{
		gameRepo:  gameRepo,
		eventRepo: eventRepo,
		cache:     cache,
		board:     risk.StandardBoard(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateGame creates a game in "waiting" status with the creator as
// its first player.
func (s *GameService) CreateGame(ctx context.Context, username, color string, maxPlayers int) (*model.Game, error) {
	if maxPlayers == 0 {
		maxPlayers = risk.MaxPlayers
	}
	if maxPlayers < risk.MinPlayers || maxPlayers > risk.MaxPlayers {
		return nil, &risk.ValidationError{Message: fmt.Sprintf("max players must be between %d and %d", risk.MinPlayers, risk.MaxPlayers)}
	}
	if username == "" {
		return nil, &risk.ValidationError{Message: "username is required"}
	}
	if color == "" {
		return nil, &risk.ValidationError{Message: "color is required"}
	}

	game := &model.Game{
		ID:         uuid.NewString(),
		MaxPlayers: maxPlayers,
		Status:     risk.StatusWaiting,
		Phase:      risk.PhaseReinforcement,
	}
	creator := &model.Player{
		ID:       uuid.NewString(),
		GameID:   game.ID,
		Username: username,
		Color:    color,
	}

	createdPayload, err := json.Marshal(risk.GameCreatedPayload{GameID: game.ID, MaxPlayers: maxPlayers})
	if err != nil {
		return nil, fmt.Errorf("marshal game_created: %w", err)
	}
	joinedPayload, err := json.Marshal(risk.PlayerJoinedPayload{
		PlayerID: creator.ID, Username: username, Color: color, TurnOrder: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal player_joined: %w", err)
	}
	events := []*model.Event{
		{GameID: game.ID, EventType: risk.EventGameCreated, Payload: createdPayload, CorrelationID: uuid.NewString()},
		{GameID: game.ID, EventType: risk.EventPlayerJoined, Payload: joinedPayload, PlayerID: creator.ID, CorrelationID: uuid.NewString()},
	}

	if err := s.gameRepo.CreateGame(ctx, game, creator, events); err != nil {
		return nil, err
	}

	publishCommitted(ctx, s.cache, game.ID, game.ProjectedState(), events)
	log.Info().Str("gameId", game.ID).Str("username", username).Int("maxPlayers", maxPlayers).Msg("Game created")
	return game, nil
}

// JoinGame adds a player to a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, username, color string) (*model.Player, error) {
	var player *model.Player
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, "", func(rec *recorder) error {
		if err := risk.ValidateJoin(rec.state, username, color); err != nil {
			return err
		}
		player = &model.Player{
			ID:        uuid.NewString(),
			GameID:    gameID,
			Username:  username,
			Color:     color,
			TurnOrder: len(rec.state.Players),
		}
		if err := rec.tx.InsertPlayer(player); err != nil {
			return err
		}
		rec.actorID = player.ID
		return rec.record(risk.EventPlayerJoined, risk.PlayerJoinedPayload{
			PlayerID: player.ID, Username: username, Color: color, TurnOrder: player.TurnOrder,
		})
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	publishCommitted(ctx, s.cache, gameID, st, events)
	log.Info().Str("gameId", gameID).Str("playerId", player.ID).Str("username", username).Msg("Player joined")
	return player, nil
}

// StartGame distributes the board and moves the game into setup. Only
// the creator (turn order 0) may start.
func (s *GameService) StartGame(ctx context.Context, gameID, playerID string) (*risk.State, error) {
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		p := rec.state.Player(playerID)
		if p == nil {
			return &risk.ValidationError{Message: "player is not in this game"}
		}
		if p.TurnOrder != 0 {
			return ErrNotCreator
		}
		if err := risk.ValidateStart(rec.state); err != nil {
			return err
		}

		playerCount := len(rec.state.Players)
		initialArmies := risk.InitialArmies(playerCount)
		playerIDs := make([]string, 0, playerCount)
		for order := 0; order < playerCount; order++ {
			playerIDs = append(playerIDs, rec.state.PlayerAtOrder(order).ID)
		}
		assignment := s.distribute(playerIDs)

		if err := rec.record(risk.EventGameStarted, risk.GameStartedPayload{
			PlayerCount: playerCount, InitialArmies: initialArmies,
		}); err != nil {
			return err
		}

		territories := make([]model.Territory, 0, len(s.board.Territories))
		for _, name := range s.board.Territories {
			owner := assignment[name]
			territories = append(territories, model.Territory{
				ID:        uuid.NewString(),
				GameID:    gameID,
				Name:      name,
				OwnerID:   owner,
				ArmyCount: 1,
			})
			if err := rec.record(risk.EventTerritoryClaimed, risk.TerritoryClaimedPayload{
				Territory: name, PlayerID: owner,
			}); err != nil {
				return err
			}
		}
		return rec.tx.InsertTerritories(territories)
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	publishCommitted(ctx, s.cache, gameID, st, events)
	log.Info().Str("gameId", gameID).Int("players", len(st.Players)).Msg("Game started")
	return st, nil
}

// GetGame returns a game with its players and territories.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return game, nil
}

// GetProjectedState returns the latest projected state, served from
// the cache when warm and rebuilt from Postgres on a miss.
func (s *GameService) GetProjectedState(ctx context.Context, gameID string) (json.RawMessage, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetGameState(ctx, gameID); err == nil && cached != nil {
			return cached, nil
		}
	}

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, translateNotFound(err)
	}
	stateJSON, err := json.Marshal(game.ProjectedState())
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to warm state cache")
		}
	}
	return stateJSON, nil
}

// ListGames returns games filtered by lifecycle stage. The default
// filter is joinable games.
func (s *GameService) ListGames(ctx context.Context, filter string) ([]model.Game, error) {
	status := risk.StatusWaiting
	switch filter {
	case "playing":
		status = risk.StatusPlaying
	case "setup":
		status = risk.StatusSetup
	case "finished":
		status = risk.StatusFinished
	}
	return s.gameRepo.ListByStatus(ctx, status)
}

// GetEvents returns the game's full ordered event log.
func (s *GameService) GetEvents(ctx context.Context, gameID string) ([]model.Event, error) {
	if _, err := s.gameRepo.FindByID(ctx, gameID); err != nil {
		return nil, translateNotFound(err)
	}
	return s.eventRepo.ListByGame(ctx, gameID)
}

func (s *GameService) distribute(playerIDs []string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return risk.DistributeTerritories(s.board.Territories, playerIDs, s.rng)
}

func translateNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGameNotFound
	}
	return err
}
