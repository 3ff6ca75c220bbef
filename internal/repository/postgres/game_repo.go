package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

// GameRepo handles game, player, and territory database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// CreateGame inserts the game row, its creator, and the opening events
// in one transaction.
func (r *GameRepo) CreateGame(ctx context.Context, game *model.Game, creator *model.Player, events []*model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO games (id, max_players, status)
		 VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		game.ID, game.MaxPlayers, game.Status,
	).Scan(&game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO players (id, game_id, username, color, turn_order, armies_available)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING joined_at`,
		creator.ID, creator.GameID, creator.Username, creator.Color, creator.TurnOrder, creator.ArmiesAvailable,
	).Scan(&creator.JoinedAt)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}

	gt := &gameTx{ctx: ctx, tx: tx, gameID: game.ID}
	for _, e := range events {
		if err := gt.AppendEvent(e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return classifyError(err)
	}
	game.Players = []model.Player{*creator}
	return nil
}

// FindByID returns a game with its players and territories.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx,
		`SELECT id, max_players, status, phase, current_player_order, current_turn, winner_id, created_at, updated_at
		 FROM games WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}

	g.Players, err = listPlayers(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	g.Territories, err = listTerritories(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListByStatus returns games in the given status, newest first.
func (r *GameRepo) ListByStatus(ctx context.Context, status risk.Status) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, max_players, status, phase, current_player_order, current_turn, winner_id, created_at, updated_at
		 FROM games WHERE status = $1 ORDER BY created_at DESC LIMIT 50`, status)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Players, err = listPlayers(ctx, r.db, g.ID)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ExecuteGameTx locks the game row, loads the full game, runs fn, and
// commits everything fn wrote as one atomic unit. The row lock
// serializes all mutations per game; contention and serialization
// failures surface as repository.ErrConflict.
func (r *GameRepo) ExecuteGameTx(ctx context.Context, gameID string, fn func(tx repository.GameTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGame(tx.QueryRowContext(ctx,
		`SELECT id, max_players, status, phase, current_player_order, current_turn, winner_id, created_at, updated_at
		 FROM games WHERE id = $1 FOR UPDATE NOWAIT`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return classifyError(err)
	}

	g.Players, err = listPlayers(ctx, tx, gameID)
	if err != nil {
		return err
	}
	g.Territories, err = listTerritories(ctx, tx, gameID)
	if err != nil {
		return err
	}

	if err := fn(&gameTx{ctx: ctx, tx: tx, gameID: gameID, game: g}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classifyError(err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	err := row.Scan(&g.ID, &g.MaxPlayers, &g.Status, &g.Phase, &g.CurrentPlayerOrder,
		&g.CurrentTurn, &winner, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.WinnerID = winner.String
	return &g, nil
}

func listPlayers(ctx context.Context, q querier, gameID string) ([]model.Player, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, game_id, username, color, turn_order, armies_available, is_eliminated, joined_at
		 FROM players WHERE game_id = $1 ORDER BY turn_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.Player
	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.GameID, &p.Username, &p.Color, &p.TurnOrder,
			&p.ArmiesAvailable, &p.IsEliminated, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func listTerritories(ctx context.Context, q querier, gameID string) ([]model.Territory, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, game_id, name, owner_id, army_count
		 FROM territories WHERE game_id = $1 ORDER BY name`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var territories []model.Territory
	for rows.Next() {
		var t model.Territory
		var owner sql.NullString
		if err := rows.Scan(&t.ID, &t.GameID, &t.Name, &owner, &t.ArmyCount); err != nil {
			return nil, fmt.Errorf("scan territory: %w", err)
		}
		t.OwnerID = owner.String
		territories = append(territories, t)
	}
	return territories, rows.Err()
}

// classifyError maps Postgres lock and serialization failures to
// repository.ErrConflict so callers can distinguish retryable
// contention from real store errors.
func classifyError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", // lock_not_available (FOR UPDATE NOWAIT lost the race)
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return repository.ErrConflict
		}
	}
	return err
}
