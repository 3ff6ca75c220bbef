package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

// ActionService runs the in-turn actions of the phase state machine.
// Each operation validates against the projection built under the game
// row lock, records the resulting events, and commits rows, events,
// and any implied phase or status transition as one atomic unit.
type ActionService struct {
	gameRepo repository.GameRepository
	cache    repository.GameCache
	board    *risk.Board

	mu  sync.Mutex
	rng *rand.Rand
}

// NewActionService creates an ActionService.
func NewActionService(gameRepo repository.GameRepository, cache repository.GameCache) *ActionService {
	return &ActionService{
		gameRepo: gameRepo,
		cache:    cache,
		board:    risk.StandardBoard(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// PlaceArmies places armies from the player's pool onto an owned
// territory. Draining the last pool during setup starts play; draining
// the acting player's pool during reinforcement advances to attack.
func (s *ActionService) PlaceArmies(ctx context.Context, gameID, playerID, territory string, count int) (*risk.State, error) {
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		if err := risk.ValidatePlaceArmies(rec.state, playerID, territory, count); err != nil {
			return err
		}

		eventType := risk.EventArmyPlaced
		if rec.state.Game.Status == risk.StatusSetup {
			eventType = risk.EventSetupArmyPlaced
		}
		if err := rec.record(eventType, risk.ArmyPlacedPayload{Territory: territory, Count: count}); err != nil {
			return err
		}

		switch rec.state.Game.Status {
		case risk.StatusSetup:
			if poolsEmpty(rec.state) {
				first := rec.state.PlayerAtOrder(0)
				return rec.record(risk.EventPhaseChanged, risk.PhaseChangedPayload{
					Status:             risk.StatusPlaying,
					To:                 risk.PhaseReinforcement,
					CurrentPlayerOrder: 0,
					Turn:               1,
					Reinforcements:     risk.Reinforcements(s.board, first.ID, rec.state.Owners()),
				})
			}
		case risk.StatusPlaying:
			if rec.state.Player(playerID).ArmiesAvailable == 0 {
				return rec.record(risk.EventPhaseChanged, risk.PhaseChangedPayload{
					From:               risk.PhaseReinforcement,
					To:                 risk.PhaseAttack,
					CurrentPlayerOrder: rec.state.Game.CurrentPlayerOrder,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	publishCommitted(ctx, s.cache, gameID, st, events)
	return st, nil
}

// Attack resolves one combat round from one territory into an adjacent
// enemy territory. On conquest, move armies into the captured
// territory; zero means the minimum (the dice rolled). Conquest may
// cascade into elimination and a finished game in the same commit.
func (s *ActionService) Attack(ctx context.Context, gameID, playerID, from, to string, move int) (*risk.CombatResult, *risk.State, error) {
	var result risk.CombatResult
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		if err := risk.ValidateAttack(s.board, rec.state, playerID, from, to); err != nil {
			return err
		}

		src := rec.state.Territory(from)
		dst := rec.state.Territory(to)
		previousOwner := dst.OwnerID
		result = s.roll(src.ArmyCount, dst.ArmyCount)

		if result.Conquered {
			diceRolled := len(result.AttackerDice)
			if move == 0 {
				move = diceRolled
			}
			if err := risk.ValidateConquestMove(src.ArmyCount, result.AttackerLosses, diceRolled, move); err != nil {
				return err
			}
		}

		if err := rec.record(risk.EventTerritoryAttacked, risk.TerritoryAttackedPayload{
			From:           from,
			To:             to,
			AttackerDice:   result.AttackerDice,
			DefenderDice:   result.DefenderDice,
			AttackerLosses: result.AttackerLosses,
			DefenderLosses: result.DefenderLosses,
			Conquered:      result.Conquered,
		}); err != nil {
			return err
		}
		if !result.Conquered {
			return nil
		}

		if err := rec.record(risk.EventTerritoryConquered, risk.TerritoryConqueredPayload{
			From: from, To: to, PreviousOwner: previousOwner, ArmiesMoved: move,
		}); err != nil {
			return err
		}

		if rec.state.TerritoryCount(previousOwner) == 0 {
			if err := rec.record(risk.EventPlayerEliminated, risk.PlayerEliminatedPayload{PlayerID: previousOwner}); err != nil {
				return err
			}
			if winner := risk.Winner(rec.state); winner != nil {
				return rec.record(risk.EventGameFinished, risk.GameFinishedPayload{WinnerID: winner.ID})
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, translateNotFound(err)
	}

	publishCommitted(ctx, s.cache, gameID, st, events)
	if st.Game.Status == risk.StatusFinished {
		log.Info().Str("gameId", gameID).Str("winnerId", st.Game.WinnerID).Msg("Game finished")
	}
	return &result, st, nil
}

// Fortify moves armies between two territories connected through a
// chain of the player's own territories.
func (s *ActionService) Fortify(ctx context.Context, gameID, playerID, from, to string, count int) (*risk.State, error) {
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		if err := risk.ValidateFortify(s.board, rec.state, playerID, from, to, count); err != nil {
			return err
		}
		return rec.record(risk.EventArmiesFortified, risk.ArmiesFortifiedPayload{From: from, To: to, Count: count})
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	publishCommitted(ctx, s.cache, gameID, st, events)
	return st, nil
}

// EndTurn passes play to the next non-eliminated player, granting
// their reinforcement income and resetting the phase. The turn
// counter advances on every ended turn, not per full rotation.
func (s *ActionService) EndTurn(ctx context.Context, gameID, playerID string) (*risk.State, error) {
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		if err := risk.ValidateEndTurn(rec.state, playerID); err != nil {
			return err
		}

		next := risk.NextTurnOrder(rec.state, rec.state.Game.CurrentPlayerOrder)
		nextTurn := rec.state.Game.CurrentTurn + 1
		nextPlayer := rec.state.PlayerAtOrder(next)
		return rec.record(risk.EventTurnEnded, risk.TurnEndedPayload{
			NextPlayerOrder: next,
			NextTurn:        nextTurn,
			Reinforcements:  risk.Reinforcements(s.board, nextPlayer.ID, rec.state.Owners()),
		})
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	publishCommitted(ctx, s.cache, gameID, st, events)
	return st, nil
}

// ChangePhase advances the acting player's turn to the requested
// phase. Leaving reinforcement requires an empty army pool.
func (s *ActionService) ChangePhase(ctx context.Context, gameID, playerID string, next risk.Phase) (*risk.State, error) {
	st, events, err := commitGameAction(ctx, s.gameRepo, gameID, playerID, func(rec *recorder) error {
		if rec.state.Game.Status == risk.StatusPlaying {
			if err := risk.ValidateCurrentTurn(rec.state, playerID); err != nil {
				return err
			}
		}
		if err := risk.CanChangePhase(rec.state.Game.Status, rec.state.Game.Phase, next); err != nil {
			return err
		}
		if rec.state.Game.Phase == risk.PhaseReinforcement {
			if p := rec.state.Player(playerID); p.ArmiesAvailable > 0 {
				return &risk.TransitionError{Message: "place all reinforcements before attacking"}
			}
		}
		return rec.record(risk.EventPhaseChanged, risk.PhaseChangedPayload{
			From:               rec.state.Game.Phase,
			To:                 next,
			CurrentPlayerOrder: rec.state.Game.CurrentPlayerOrder,
		})
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	publishCommitted(ctx, s.cache, gameID, st, events)
	return st, nil
}

func (s *ActionService) roll(attackerArmies, defenderArmies int) risk.CombatResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return risk.ResolveCombat(attackerArmies, defenderArmies, s.rng)
}

func poolsEmpty(st *risk.State) bool {
	for _, p := range st.Players {
		if !p.IsEliminated && p.ArmiesAvailable > 0 {
			return false
		}
	}
	return true
}
