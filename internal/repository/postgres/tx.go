package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/erdalgunes/continental/internal/model"
)

// gameTx implements repository.GameTx over an open *sql.Tx holding the
// game row lock.
type gameTx struct {
	ctx    context.Context
	tx     *sql.Tx
	gameID string
	game   *model.Game
}

func (t *gameTx) Game() *model.Game {
	return t.game
}

func (t *gameTx) InsertPlayer(p *model.Player) error {
	err := t.tx.QueryRowContext(t.ctx,
		`INSERT INTO players (id, game_id, username, color, turn_order, armies_available)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING joined_at`,
		p.ID, p.GameID, p.Username, p.Color, p.TurnOrder, p.ArmiesAvailable,
	).Scan(&p.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", classifyError(err))
	}
	return nil
}

func (t *gameTx) InsertTerritories(territories []model.Territory) error {
	stmt, err := t.tx.PrepareContext(t.ctx,
		`INSERT INTO territories (id, game_id, name, owner_id, army_count)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare territory insert: %w", err)
	}
	defer stmt.Close()

	for _, terr := range territories {
		if _, err := stmt.ExecContext(t.ctx, terr.ID, terr.GameID, terr.Name, nullable(terr.OwnerID), terr.ArmyCount); err != nil {
			return fmt.Errorf("insert territory %s: %w", terr.Name, err)
		}
	}
	return nil
}

func (t *gameTx) UpdateGame(g *model.Game) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE games
		 SET status = $1, phase = $2, current_player_order = $3, current_turn = $4,
		     winner_id = $5, updated_at = now()
		 WHERE id = $6`,
		g.Status, g.Phase, g.CurrentPlayerOrder, g.CurrentTurn, nullable(g.WinnerID), g.ID)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	return nil
}

func (t *gameTx) UpdatePlayer(p *model.Player) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE players SET armies_available = $1, is_eliminated = $2 WHERE id = $3`,
		p.ArmiesAvailable, p.IsEliminated, p.ID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (t *gameTx) UpdateTerritory(terr *model.Territory) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE territories SET owner_id = $1, army_count = $2 WHERE id = $3`,
		nullable(terr.OwnerID), terr.ArmyCount, terr.ID)
	if err != nil {
		return fmt.Errorf("update territory: %w", err)
	}
	return nil
}

// AppendEvent assigns the next sequence number under the game lock and
// inserts the event. The subselect plus the lock keeps sequences
// strictly increasing and gapless per game.
func (t *gameTx) AppendEvent(e *model.Event) error {
	err := t.tx.QueryRowContext(t.ctx,
		`INSERT INTO events (game_id, sequence_number, event_type, payload, player_id, correlation_id)
		 VALUES ($1, (SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM events WHERE game_id = $1), $2, $3, $4, $5)
		 RETURNING id, sequence_number, created_at`,
		e.GameID, e.EventType, e.Payload, nullable(e.PlayerID), nullable(e.CorrelationID),
	).Scan(&e.ID, &e.SequenceNumber, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", classifyError(err))
	}
	return nil
}

func (t *gameTx) Events() ([]model.Event, error) {
	return listEvents(t.ctx, t.tx, t.gameID, 0)
}

func (t *gameTx) DeleteEventGroup(correlationID string) (int, error) {
	res, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM events WHERE game_id = $1 AND correlation_id = $2`,
		t.gameID, correlationID)
	if err != nil {
		return 0, fmt.Errorf("delete event group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete event group: %w", err)
	}
	return int(n), nil
}

func (t *gameTx) SaveSnapshot(sequence int64, state json.RawMessage) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO snapshots (game_id, sequence_number, state)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (game_id, sequence_number) DO UPDATE SET state = EXCLUDED.state`,
		t.gameID, sequence, state)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (t *gameTx) NearestSnapshot(maxSequence int64) (*model.Snapshot, error) {
	return nearestSnapshot(t.ctx, t.tx, t.gameID, maxSequence)
}

func (t *gameTx) DeleteSnapshotsFrom(sequence int64) error {
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM snapshots WHERE game_id = $1 AND sequence_number >= $2`,
		t.gameID, sequence)
	if err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// listEvents returns the ordered log, optionally capped at maxSequence
// (0 means no cap).
func listEvents(ctx context.Context, q querier, gameID string, maxSequence int64) ([]model.Event, error) {
	query := `SELECT id, game_id, sequence_number, event_type, payload, player_id, correlation_id, created_at
	          FROM events WHERE game_id = $1`
	args := []any{gameID}
	if maxSequence > 0 {
		query += ` AND sequence_number <= $2`
		args = append(args, maxSequence)
	}
	query += ` ORDER BY sequence_number`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	var playerID, correlationID sql.NullString
	err := row.Scan(&e.ID, &e.GameID, &e.SequenceNumber, &e.EventType, &e.Payload,
		&playerID, &correlationID, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.PlayerID = playerID.String
	e.CorrelationID = correlationID.String
	return &e, nil
}

func nearestSnapshot(ctx context.Context, q querier, gameID string, maxSequence int64) (*model.Snapshot, error) {
	var s model.Snapshot
	err := q.QueryRowContext(ctx,
		`SELECT game_id, sequence_number, state, created_at
		 FROM snapshots WHERE game_id = $1 AND sequence_number <= $2
		 ORDER BY sequence_number DESC LIMIT 1`,
		gameID, maxSequence,
	).Scan(&s.GameID, &s.SequenceNumber, &s.State, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nearest snapshot: %w", err)
	}
	return &s, nil
}

// nullable maps empty strings to SQL NULL for optional columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
