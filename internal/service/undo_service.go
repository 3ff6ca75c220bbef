package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

// UndoAvailability reports whether the player's most recent action can
// be taken back, and why not when it cannot.
type UndoAvailability struct {
	Available bool           `json:"available"`
	Reason    string         `json:"reason,omitempty"`
	EventType risk.EventType `json:"event_type,omitempty"`
	Sequence  int64          `json:"sequence_number,omitempty"`
}

// UndoService takes back the most recent committed action. Only the
// final action of the whole game is undoable, so history other players
// have observed is never rewritten. One action may span several events
// sharing a correlation ID; they are removed together.
type UndoService struct {
	gameRepo  repository.GameRepository
	eventRepo repository.EventRepository
	cache     repository.GameCache
}

// NewUndoService creates an UndoService.
func NewUndoService(gameRepo repository.GameRepository, eventRepo repository.EventRepository, cache repository.GameCache) *UndoService {
	return &UndoService{gameRepo: gameRepo, eventRepo: eventRepo, cache: cache}
}

// CheckUndoAvailability reports whether UndoLastAction would succeed
// for the player right now. The answer is advisory; the authoritative
// check re-runs under the game lock.
func (s *UndoService) CheckUndoAvailability(ctx context.Context, gameID, playerID string) (*UndoAvailability, error) {
	events, err := s.eventRepo.ListByGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	group := lastActionGroup(events)
	if reason := undoRejection(group, playerID); reason != "" {
		return &UndoAvailability{Available: false, Reason: reason}, nil
	}
	last := group[len(group)-1]
	return &UndoAvailability{
		Available: true,
		EventType: last.EventType,
		Sequence:  last.SequenceNumber,
	}, nil
}

// UndoLastAction removes the player's most recent action from the log
// and rewinds the game to the state just before it: replay to the
// preceding sequence, write the replayed rows, delete the action's
// events and any snapshot taken at or after it, one transaction.
func (s *UndoService) UndoLastAction(ctx context.Context, gameID, playerID string) (*risk.State, error) {
	var st *risk.State
	var undoneCorr string

	err := s.gameRepo.ExecuteGameTx(ctx, gameID, func(tx repository.GameTx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		group := lastActionGroup(events)
		if reason := undoRejection(group, playerID); reason != "" {
			return &risk.ValidationError{Message: reason}
		}

		undoneCorr = group[0].CorrelationID
		target := group[0].SequenceNumber - 1

		rewound, err := s.replayTo(tx, events, target)
		if err != nil {
			return err
		}

		deleted, err := tx.DeleteEventGroup(undoneCorr)
		if err != nil {
			return err
		}
		if deleted != len(group) {
			return fmt.Errorf("undo deleted %d events, expected %d", deleted, len(group))
		}
		if err := tx.DeleteSnapshotsFrom(group[0].SequenceNumber); err != nil {
			return err
		}
		if err := writeState(tx, rewound); err != nil {
			return err
		}
		st = rewound
		return nil
	})
	if err != nil {
		return nil, translateNotFound(err)
	}

	if s.cache != nil {
		if stateJSON, err := json.Marshal(st); err == nil {
			if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
				log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to cache game state after undo")
			}
		}
		notice, _ := json.Marshal(map[string]string{
			"event_type":     "action_undone",
			"correlation_id": undoneCorr,
		})
		if err := s.cache.PublishEvent(ctx, gameID, notice); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to publish undo notice")
		}
	}

	log.Info().Str("gameId", gameID).Str("playerId", playerID).Str("correlationId", undoneCorr).Msg("Action undone")
	return st, nil
}

// replayTo rebuilds the projection at the target sequence from the
// nearest snapshot checkpoint at or below it.
func (s *UndoService) replayTo(tx repository.GameTx, events []model.Event, target int64) (*risk.State, error) {
	base := &risk.State{}
	var from int64

	snap, err := tx.NearestSnapshot(target)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		if err := json.Unmarshal(snap.State, base); err != nil {
			return nil, fmt.Errorf("decode snapshot at %d: %w", snap.SequenceNumber, err)
		}
		from = snap.SequenceNumber
	}

	var replayEvents []risk.Event
	for _, e := range events {
		if e.SequenceNumber > from && e.SequenceNumber <= target {
			replayEvents = append(replayEvents, e.ReplayEvent())
		}
	}
	return risk.FoldFrom(base, replayEvents)
}

// lastActionGroup returns the contiguous tail of the log sharing the
// final event's correlation ID, or nil for an empty log.
func lastActionGroup(events []model.Event) []model.Event {
	if len(events) == 0 {
		return nil
	}
	corr := events[len(events)-1].CorrelationID
	start := len(events)
	for start > 0 && events[start-1].CorrelationID == corr {
		start--
	}
	return events[start:]
}

// undoRejection returns the reason the group cannot be undone by the
// player, or "" when it can.
func undoRejection(group []model.Event, playerID string) string {
	if len(group) == 0 {
		return "no actions to undo"
	}
	if group[0].PlayerID != playerID {
		return "another player has acted since your last action"
	}
	for _, e := range group {
		if risk.NonUndoable[e.EventType] {
			return fmt.Sprintf("a %s action cannot be undone", e.EventType)
		}
	}
	return ""
}
