package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/pkg/risk"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a transaction could not commit
	// against concurrent writers. Callers should re-read state before
	// retrying the logical action.
	ErrConflict = errors.New("concurrent modification conflict")
)

// GameRepository defines game data operations. Every mutating game
// operation runs through ExecuteGameTx so the store commits state and
// events as one atomic unit.
type GameRepository interface {
	// CreateGame inserts the game row, its creator, and the opening
	// events in one transaction.
	CreateGame(ctx context.Context, game *model.Game, creator *model.Player, events []*model.Event) error
	// FindByID returns a game with its players and territories.
	FindByID(ctx context.Context, id string) (*model.Game, error)
	// ListByStatus returns games in the given status, newest first.
	ListByStatus(ctx context.Context, status risk.Status) ([]model.Game, error)
	// ExecuteGameTx locks the game row, loads the full game, runs fn,
	// and commits. fn's writes and event appends are atomic: they all
	// commit or none do. Lock contention surfaces as ErrConflict.
	ExecuteGameTx(ctx context.Context, gameID string, fn func(tx GameTx) error) error
}

// GameTx is the transactional view of one game's rows, held under the
// game row lock for the duration of a mutating operation.
type GameTx interface {
	// Game returns the game loaded under the lock, with players and
	// territories. The returned value is a working copy; writes only
	// persist through the Update/Insert methods.
	Game() *model.Game
	InsertPlayer(p *model.Player) error
	InsertTerritories(territories []model.Territory) error
	UpdateGame(g *model.Game) error
	UpdatePlayer(p *model.Player) error
	UpdateTerritory(t *model.Territory) error
	// AppendEvent assigns the next gapless sequence number for the game
	// and inserts the event, filling in e.SequenceNumber.
	AppendEvent(e *model.Event) error
	// Events returns the full ordered log for the game.
	Events() ([]model.Event, error)
	// DeleteEventGroup removes all events sharing a correlation ID and
	// returns how many were deleted.
	DeleteEventGroup(correlationID string) (int, error)
	SaveSnapshot(sequence int64, state json.RawMessage) error
	// NearestSnapshot returns the latest snapshot at or below maxSequence,
	// or nil if none exists.
	NearestSnapshot(maxSequence int64) (*model.Snapshot, error)
	DeleteSnapshotsFrom(sequence int64) error
}

// EventRepository defines read-only event log access outside a
// transaction.
type EventRepository interface {
	ListByGame(ctx context.Context, gameID string) ([]model.Event, error)
	ListByGameUpTo(ctx context.Context, gameID string, maxSequence int64) ([]model.Event, error)
	LatestByGame(ctx context.Context, gameID string) (*model.Event, error)
	NearestSnapshot(ctx context.Context, gameID string, maxSequence int64) (*model.Snapshot, error)
}

// GameCache defines the Redis-backed projected-state cache and the
// committed-mutation notification feed. The cache is advisory;
// Postgres remains the source of truth.
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	PublishEvent(ctx context.Context, gameID string, event json.RawMessage) error
	DeleteGameData(ctx context.Context, gameID string) error
}
