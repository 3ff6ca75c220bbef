package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

// snapshotInterval is how many events may accumulate before a
// projected-state checkpoint is written alongside them.
const snapshotInterval = 50

// recorder accumulates the events of one user action. Every recorded
// event shares the action's correlation ID and actor, is appended to
// the log inside the open transaction, and is immediately applied to
// the working projection so later decisions in the same action see its
// effect.
type recorder struct {
	tx      repository.GameTx
	state   *risk.State
	gameID  string
	actorID string
	corrID  string
	events  []*model.Event
}

func (r *recorder) record(eventType risk.EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	e := &model.Event{
		GameID:        r.gameID,
		EventType:     eventType,
		Payload:       data,
		PlayerID:      r.actorID,
		CorrelationID: r.corrID,
	}
	if err := r.tx.AppendEvent(e); err != nil {
		return err
	}
	if err := risk.Apply(r.state, e.ReplayEvent()); err != nil {
		return err
	}
	r.events = append(r.events, e)
	return nil
}

// commitGameAction runs one user action against a locked game: project
// the current rows, let fn validate and record events, persist the
// updated projection back to the rows, and checkpoint a snapshot when
// the log crosses the interval boundary. Everything commits or nothing
// does.
func commitGameAction(ctx context.Context, repo repository.GameRepository, gameID, actorID string,
	fn func(rec *recorder) error) (*risk.State, []*model.Event, error) {

	var st *risk.State
	var committed []*model.Event

	err := repo.ExecuteGameTx(ctx, gameID, func(tx repository.GameTx) error {
		rec := &recorder{
			tx:      tx,
			state:   tx.Game().ProjectedState(),
			gameID:  gameID,
			actorID: actorID,
			corrID:  uuid.NewString(),
		}
		if err := fn(rec); err != nil {
			return err
		}
		if len(rec.events) == 0 {
			return fmt.Errorf("action recorded no events")
		}
		if err := writeState(tx, rec.state); err != nil {
			return err
		}

		first := rec.events[0].SequenceNumber
		last := rec.events[len(rec.events)-1].SequenceNumber
		if last/snapshotInterval > (first-1)/snapshotInterval {
			stateJSON, err := json.Marshal(rec.state)
			if err != nil {
				return fmt.Errorf("marshal snapshot: %w", err)
			}
			if err := tx.SaveSnapshot(last, stateJSON); err != nil {
				return err
			}
		}

		st = rec.state
		committed = rec.events
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return st, committed, nil
}

// writeState persists the differences between the projection and the
// rows loaded under the lock. Rows inserted by the action itself were
// already written with their final values and are absent from the
// loaded game, so they are skipped here.
func writeState(tx repository.GameTx, st *risk.State) error {
	g := tx.Game()
	g.Status = st.Game.Status
	g.Phase = st.Game.Phase
	g.CurrentPlayerOrder = st.Game.CurrentPlayerOrder
	g.CurrentTurn = st.Game.CurrentTurn
	g.WinnerID = st.Game.WinnerID
	if err := tx.UpdateGame(g); err != nil {
		return err
	}

	for i := range g.Players {
		row := &g.Players[i]
		ps := st.Player(row.ID)
		if ps == nil {
			continue
		}
		if row.ArmiesAvailable != ps.ArmiesAvailable || row.IsEliminated != ps.IsEliminated {
			row.ArmiesAvailable = ps.ArmiesAvailable
			row.IsEliminated = ps.IsEliminated
			if err := tx.UpdatePlayer(row); err != nil {
				return err
			}
		}
	}

	for i := range g.Territories {
		row := &g.Territories[i]
		ts := st.Territory(row.Name)
		if ts == nil {
			continue
		}
		if row.OwnerID != ts.OwnerID || row.ArmyCount != ts.ArmyCount {
			row.OwnerID = ts.OwnerID
			row.ArmyCount = ts.ArmyCount
			if err := tx.UpdateTerritory(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// publishCommitted refreshes the cached projection and pushes the
// committed events onto the game's notification channel. Both are
// best-effort; the transaction has already committed.
func publishCommitted(ctx context.Context, cache repository.GameCache, gameID string, st *risk.State, events []*model.Event) {
	if cache == nil {
		return
	}
	if stateJSON, err := json.Marshal(st); err == nil {
		if err := cache.SetGameState(ctx, gameID, stateJSON); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to cache game state")
		}
	}
	for _, e := range events {
		eventJSON, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := cache.PublishEvent(ctx, gameID, eventJSON); err != nil {
			log.Warn().Err(err).Str("gameId", gameID).Int64("sequence", e.SequenceNumber).Msg("Failed to publish event")
		}
	}
}
