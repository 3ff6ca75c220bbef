package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/erdalgunes/continental/internal/model"
	"github.com/erdalgunes/continental/pkg/risk"
)

// testEnv wires every service against one shared in-memory store.
type testEnv struct {
	repo    *mockGameRepo
	events  *mockEventRepo
	cache   *mockCache
	games   *GameService
	actions *ActionService
	undo    *UndoService
	replay  *ReplayService
}

func newTestEnv() *testEnv {
	repo := newMockGameRepo()
	events := &mockEventRepo{store: repo.store}
	cache := newMockCache()
	env := &testEnv{
		repo:    repo,
		events:  events,
		cache:   cache,
		games:   NewGameService(repo, events, cache),
		actions: NewActionService(repo, cache),
		undo:    NewUndoService(repo, events, cache),
		replay:  NewReplayService(repo, events),
	}
	env.games.rng = rand.New(rand.NewSource(42))
	env.actions.rng = rand.New(rand.NewSource(42))
	return env
}

// startedGame creates a two-player game and starts it, returning it in
// setup with the board distributed.
func (e *testEnv) startedGame(t *testing.T) (string, *model.Player, *model.Player) {
	t.Helper()
	ctx := context.Background()

	game, err := e.games.CreateGame(ctx, "alice", "red", 2)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	alice := &game.Players[0]

	bob, err := e.games.JoinGame(ctx, game.ID, "bob", "blue")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}

	if _, err := e.games.StartGame(ctx, game.ID, alice.ID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return game.ID, alice, bob
}

// playingGame runs a started game through setup by having each player
// place their whole pool on one owned territory.
func (e *testEnv) playingGame(t *testing.T) (string, *model.Player, *model.Player) {
	t.Helper()
	ctx := context.Background()
	gameID, alice, bob := e.startedGame(t)

	st := e.state(t, gameID)
	for _, p := range []*model.Player{alice, bob} {
		pool := st.Player(p.ID).ArmiesAvailable
		var err error
		st, err = e.actions.PlaceArmies(ctx, gameID, p.ID, ownedTerritory(st, p.ID), pool)
		if err != nil {
			t.Fatalf("PlaceArmies for %s: %v", p.Username, err)
		}
	}

	if st.Game.Status != risk.StatusPlaying {
		t.Fatalf("status = %s, want playing after setup", st.Game.Status)
	}
	return gameID, alice, bob
}

func (e *testEnv) state(t *testing.T, gameID string) *risk.State {
	t.Helper()
	game, err := e.games.GetGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	return game.ProjectedState()
}

// ownedTerritory returns the first territory owned by the player.
func ownedTerritory(st *risk.State, playerID string) string {
	for _, ter := range st.Territories {
		if ter.OwnerID == playerID {
			return ter.Name
		}
	}
	return ""
}

func TestCreateGame(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	game, err := env.games.CreateGame(ctx, "alice", "red", 4)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.Status != risk.StatusWaiting {
		t.Errorf("status = %s, want waiting", game.Status)
	}
	if game.MaxPlayers != 4 {
		t.Errorf("max players = %d, want 4", game.MaxPlayers)
	}
	if len(game.Players) != 1 || game.Players[0].Username != "alice" || game.Players[0].TurnOrder != 0 {
		t.Fatalf("players = %+v, want creator alice at order 0", game.Players)
	}

	events, err := env.events.ListByGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("ListByGame: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want game_created and player_joined", len(events))
	}
	if events[0].EventType != risk.EventGameCreated || events[0].SequenceNumber != 1 {
		t.Errorf("first event = %s@%d", events[0].EventType, events[0].SequenceNumber)
	}
	if events[1].EventType != risk.EventPlayerJoined || events[1].SequenceNumber != 2 {
		t.Errorf("second event = %s@%d", events[1].EventType, events[1].SequenceNumber)
	}
	if env.cache.states[game.ID] == nil {
		t.Error("projected state was not cached on create")
	}
}

func TestCreateGameValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tests := []struct {
		name       string
		username   string
		color      string
		maxPlayers int
	}{
		{"missing username", "", "red", 4},
		{"missing color", "alice", "", 4},
		{"too few players", "alice", "red", 1},
		{"too many players", "alice", "red", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.games.CreateGame(ctx, tt.username, tt.color, tt.maxPlayers)
			var verr *risk.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}
}

func TestCreateGameDefaultsMaxPlayers(t *testing.T) {
	env := newTestEnv()
	game, err := env.games.CreateGame(context.Background(), "alice", "red", 0)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.MaxPlayers != risk.MaxPlayers {
		t.Errorf("max players = %d, want %d", game.MaxPlayers, risk.MaxPlayers)
	}
}

func TestJoinGame(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	game, err := env.games.CreateGame(ctx, "alice", "red", 2)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	bob, err := env.games.JoinGame(ctx, game.ID, "bob", "blue")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if bob.TurnOrder != 1 {
		t.Errorf("turn order = %d, want 1", bob.TurnOrder)
	}

	if _, err := env.games.JoinGame(ctx, game.ID, "bob", "green"); err == nil {
		t.Error("duplicate username was accepted")
	}
	if _, err := env.games.JoinGame(ctx, game.ID, "carol", "blue"); err == nil {
		t.Error("duplicate color was accepted")
	}
	if _, err := env.games.JoinGame(ctx, game.ID, "carol", "green"); err == nil {
		t.Error("join beyond max players was accepted")
	}
}

func TestJoinGameNotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.games.JoinGame(context.Background(), "no-such-game", "bob", "blue")
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("got %v, want ErrGameNotFound", err)
	}
}

func TestStartGame(t *testing.T) {
	env := newTestEnv()
	gameID, alice, bob := env.startedGame(t)

	st := env.state(t, gameID)
	if st.Game.Status != risk.StatusSetup {
		t.Fatalf("status = %s, want setup", st.Game.Status)
	}
	if len(st.Territories) != 42 {
		t.Fatalf("got %d territories, want 42", len(st.Territories))
	}

	counts := map[string]int{}
	for _, ter := range st.Territories {
		if ter.OwnerID == "" {
			t.Fatalf("territory %s is unowned after distribution", ter.Name)
		}
		if ter.ArmyCount != 1 {
			t.Errorf("territory %s has %d armies, want 1", ter.Name, ter.ArmyCount)
		}
		counts[ter.OwnerID]++
	}
	if counts[alice.ID] != 21 || counts[bob.ID] != 21 {
		t.Errorf("split = %d/%d, want 21/21", counts[alice.ID], counts[bob.ID])
	}

	// Claims consume from the 40-army two-player pool.
	for _, p := range st.Players {
		if p.ArmiesAvailable != 40-21 {
			t.Errorf("%s pool = %d, want 19", p.Username, p.ArmiesAvailable)
		}
	}

	events, err := env.events.ListByGame(context.Background(), gameID)
	if err != nil {
		t.Fatalf("ListByGame: %v", err)
	}
	if len(events) != 46 {
		t.Fatalf("got %d events, want 46", len(events))
	}
	for i, e := range events {
		if e.SequenceNumber != int64(i+1) {
			t.Fatalf("sequence %d at index %d, log has gaps", e.SequenceNumber, i)
		}
	}
}

func TestStartGameOnlyCreator(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	game, err := env.games.CreateGame(ctx, "alice", "red", 2)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	bob, err := env.games.JoinGame(ctx, game.ID, "bob", "blue")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}

	if _, err := env.games.StartGame(ctx, game.ID, bob.ID); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("got %v, want ErrNotCreator", err)
	}
}

func TestStartGameNeedsTwoPlayers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	game, err := env.games.CreateGame(ctx, "alice", "red", 4)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	_, err = env.games.StartGame(ctx, game.ID, game.Players[0].ID)
	var verr *risk.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestListGames(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.games.CreateGame(ctx, "alice", "red", 2); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	env.startedGame(t)

	waiting, err := env.games.ListGames(ctx, "")
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(waiting) != 1 {
		t.Errorf("got %d waiting games, want 1", len(waiting))
	}

	setup, err := env.games.ListGames(ctx, "setup")
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(setup) != 1 {
		t.Errorf("got %d setup games, want 1", len(setup))
	}
}

func TestGetProjectedStateWarmsCache(t *testing.T) {
	env := newTestEnv()
	gameID, _, _ := env.startedGame(t)
	ctx := context.Background()

	delete(env.cache.states, gameID)
	stateJSON, err := env.games.GetProjectedState(ctx, gameID)
	if err != nil {
		t.Fatalf("GetProjectedState: %v", err)
	}
	if len(stateJSON) == 0 {
		t.Fatal("empty projected state")
	}
	if env.cache.states[gameID] == nil {
		t.Error("cache was not warmed on miss")
	}
}

func TestGetGameNotFound(t *testing.T) {
	env := newTestEnv()
	if _, err := env.games.GetGame(context.Background(), "no-such-game"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("got %v, want ErrGameNotFound", err)
	}
}
