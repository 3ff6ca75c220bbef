package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/internal/repository"
	"github.com/erdalgunes/continental/pkg/risk"
)

// mockStore is the in-memory backing shared by the mock repositories.
// ExecuteGameTx works on copies and swaps them in on success, so a
// failed action leaves the store untouched, like a rolled-back
// transaction.
type mockStore struct {
	mu        sync.Mutex
	games     map[string]*model.Game
	events    map[string][]model.Event
	snapshots map[string][]model.Snapshot
}

func newMockStore() *mockStore {
	return &mockStore{
		games:     make(map[string]*model.Game),
		events:    make(map[string][]model.Event),
		snapshots: make(map[string][]model.Snapshot),
	}
}

func copyGame(g *model.Game) *model.Game {
	cp := *g
	cp.Players = append([]model.Player(nil), g.Players...)
	cp.Territories = append([]model.Territory(nil), g.Territories...)
	return &cp
}

func sortRows(g *model.Game) {
	sort.Slice(g.Players, func(i, j int) bool { return g.Players[i].TurnOrder < g.Players[j].TurnOrder })
	sort.Slice(g.Territories, func(i, j int) bool { return g.Territories[i].Name < g.Territories[j].Name })
}

type mockGameRepo struct {
	store *mockStore
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{store: newMockStore()}
}

func (m *mockGameRepo) CreateGame(_ context.Context, game *model.Game, creator *model.Player, events []*model.Event) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	now := time.Now()
	game.CreatedAt = now
	game.UpdatedAt = now
	creator.JoinedAt = now

	cp := copyGame(game)
	cp.Players = []model.Player{*creator}
	m.store.games[game.ID] = cp
	game.Players = []model.Player{*creator}

	for i, e := range events {
		e.ID = fmt.Sprintf("evt-%d", i+1)
		e.SequenceNumber = int64(i + 1)
		e.CreatedAt = now
		m.store.events[game.ID] = append(m.store.events[game.ID], *e)
	}
	return nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	g, ok := m.store.games[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyGame(g)
	sortRows(cp)
	return cp, nil
}

func (m *mockGameRepo) ListByStatus(_ context.Context, status risk.Status) ([]model.Game, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var result []model.Game
	for _, g := range m.store.games {
		if g.Status == status {
			result = append(result, *copyGame(g))
		}
	}
	return result, nil
}

func (m *mockGameRepo) ExecuteGameTx(_ context.Context, gameID string, fn func(tx repository.GameTx) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	g, ok := m.store.games[gameID]
	if !ok {
		return repository.ErrNotFound
	}

	tx := &mockGameTx{
		gameID: gameID,
		game:   copyGame(g),
		events: append([]model.Event(nil), m.store.events[gameID]...),
		snaps:  append([]model.Snapshot(nil), m.store.snapshots[gameID]...),
	}
	sortRows(tx.game)

	if err := fn(tx); err != nil {
		return err
	}

	final := tx.game
	final.Players = append(final.Players, tx.newPlayers...)
	final.Territories = append(final.Territories, tx.newTerritories...)
	sortRows(final)
	final.UpdatedAt = time.Now()
	m.store.games[gameID] = final
	m.store.events[gameID] = tx.events
	m.store.snapshots[gameID] = tx.snaps
	return nil
}

type mockGameTx struct {
	gameID         string
	game           *model.Game
	events         []model.Event
	snaps          []model.Snapshot
	newPlayers     []model.Player
	newTerritories []model.Territory
}

func (t *mockGameTx) Game() *model.Game { return t.game }

func (t *mockGameTx) InsertPlayer(p *model.Player) error {
	p.JoinedAt = time.Now()
	t.newPlayers = append(t.newPlayers, *p)
	return nil
}

func (t *mockGameTx) InsertTerritories(territories []model.Territory) error {
	t.newTerritories = append(t.newTerritories, territories...)
	return nil
}

// UpdateGame, UpdatePlayer, and UpdateTerritory are no-ops: callers
// mutate rows of the working copy in place, and the copy is what gets
// committed.
func (t *mockGameTx) UpdateGame(*model.Game) error           { return nil }
func (t *mockGameTx) UpdatePlayer(*model.Player) error       { return nil }
func (t *mockGameTx) UpdateTerritory(*model.Territory) error { return nil }

func (t *mockGameTx) AppendEvent(e *model.Event) error {
	var max int64
	for _, existing := range t.events {
		if existing.SequenceNumber > max {
			max = existing.SequenceNumber
		}
	}
	e.SequenceNumber = max + 1
	e.ID = fmt.Sprintf("evt-%s-%d", t.gameID, e.SequenceNumber)
	e.CreatedAt = time.Now()
	t.events = append(t.events, *e)
	return nil
}

func (t *mockGameTx) Events() ([]model.Event, error) {
	return append([]model.Event(nil), t.events...), nil
}

func (t *mockGameTx) DeleteEventGroup(correlationID string) (int, error) {
	var kept []model.Event
	deleted := 0
	for _, e := range t.events {
		if e.CorrelationID == correlationID {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	t.events = kept
	return deleted, nil
}

func (t *mockGameTx) SaveSnapshot(sequence int64, state json.RawMessage) error {
	t.snaps = append(t.snaps, model.Snapshot{
		GameID:         t.gameID,
		SequenceNumber: sequence,
		State:          append(json.RawMessage(nil), state...),
		CreatedAt:      time.Now(),
	})
	return nil
}

func (t *mockGameTx) NearestSnapshot(maxSequence int64) (*model.Snapshot, error) {
	return nearestSnap(t.snaps, maxSequence), nil
}

func (t *mockGameTx) DeleteSnapshotsFrom(sequence int64) error {
	var kept []model.Snapshot
	for _, s := range t.snaps {
		if s.SequenceNumber < sequence {
			kept = append(kept, s)
		}
	}
	t.snaps = kept
	return nil
}

func nearestSnap(snaps []model.Snapshot, maxSequence int64) *model.Snapshot {
	var best *model.Snapshot
	for i := range snaps {
		s := &snaps[i]
		if s.SequenceNumber <= maxSequence && (best == nil || s.SequenceNumber > best.SequenceNumber) {
			best = s
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

type mockEventRepo struct {
	store *mockStore
}

func (m *mockEventRepo) ListByGame(_ context.Context, gameID string) ([]model.Event, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return append([]model.Event(nil), m.store.events[gameID]...), nil
}

func (m *mockEventRepo) ListByGameUpTo(_ context.Context, gameID string, maxSequence int64) ([]model.Event, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var result []model.Event
	for _, e := range m.store.events[gameID] {
		if e.SequenceNumber <= maxSequence {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockEventRepo) LatestByGame(_ context.Context, gameID string) (*model.Event, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	events := m.store.events[gameID]
	if len(events) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := events[len(events)-1]
	return &cp, nil
}

func (m *mockEventRepo) NearestSnapshot(_ context.Context, gameID string, maxSequence int64) (*model.Snapshot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return nearestSnap(m.store.snapshots[gameID], maxSequence), nil
}

type mockCache struct {
	mu        sync.Mutex
	states    map[string]json.RawMessage
	published map[string][]json.RawMessage
}

func newMockCache() *mockCache {
	return &mockCache{
		states:    make(map[string]json.RawMessage),
		published: make(map[string][]json.RawMessage),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = append(json.RawMessage(nil), state...)
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[gameID], nil
}

func (c *mockCache) PublishEvent(_ context.Context, gameID string, event json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[gameID] = append(c.published[gameID], append(json.RawMessage(nil), event...))
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, gameID)
	return nil
}
