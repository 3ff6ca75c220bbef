package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
)

// EventRepo handles read-side event log queries. Writes go through the
// game transaction so sequence numbers stay gapless.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo creates an EventRepo.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// ListByGame returns the full event log in sequence order.
func (r *EventRepo) ListByGame(ctx context.Context, gameID string) ([]model.Event, error) {
	return listEvents(ctx, r.db, gameID, 0)
}

// ListByGameUpTo returns the log truncated at maxSequence inclusive.
func (r *EventRepo) ListByGameUpTo(ctx context.Context, gameID string, maxSequence int64) ([]model.Event, error) {
	return listEvents(ctx, r.db, gameID, maxSequence)
}

// LatestByGame returns the most recent event for a game.
func (r *EventRepo) LatestByGame(ctx context.Context, gameID string) (*model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, sequence_number, event_type, payload, player_id, correlation_id, created_at
		 FROM events WHERE game_id = $1
		 ORDER BY sequence_number DESC LIMIT 1`, gameID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest event: %w", err)
	}
	return e, nil
}

// NearestSnapshot returns the newest snapshot at or before maxSequence,
// or nil when none exists.
func (r *EventRepo) NearestSnapshot(ctx context.Context, gameID string, maxSequence int64) (*model.Snapshot, error) {
	return nearestSnapshot(ctx, r.db, gameID, maxSequence)
}
