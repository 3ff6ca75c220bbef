package service

import (
	"context"
	"errors"
	"testing"

	"github.com/erdalgunes/continental/pkg/risk"
)

func TestStateAtHistoricalSequence(t *testing.T) {
	env := newTestEnv()
	gameID, alice, _ := env.playingGame(t)
	ctx := context.Background()

	// Sequence 46 is the last territory claim: creation (2), the second
	// player's join (1), and game_started with 42 claims.
	st, err := env.replay.StateAt(ctx, gameID, 46)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if st.Game.Status != risk.StatusSetup {
		t.Errorf("status = %s, want setup", st.Game.Status)
	}
	for _, ter := range st.Territories {
		if ter.ArmyCount != 1 {
			t.Errorf("territory %s has %d armies, want 1 right after distribution", ter.Name, ter.ArmyCount)
		}
	}
	for _, p := range st.Players {
		if p.ArmiesAvailable != 19 {
			t.Errorf("%s pool = %d, want 19", p.Username, p.ArmiesAvailable)
		}
	}

	// Later actions must not leak into the historical view.
	if _, err := env.actions.PlaceArmies(ctx, gameID, alice.ID, ownedTerritory(env.state(t, gameID), alice.ID), 1); err != nil {
		t.Fatalf("PlaceArmies: %v", err)
	}
	again, err := env.replay.StateAt(ctx, gameID, 46)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if again.Game.Status != risk.StatusSetup {
		t.Errorf("historical status = %s, want setup", again.Game.Status)
	}
}

func TestStateAtZeroMeansLatest(t *testing.T) {
	env := newTestEnv()
	gameID, _, _ := env.playingGame(t)

	st, err := env.replay.StateAt(context.Background(), gameID, 0)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	if st.Game.Status != risk.StatusPlaying {
		t.Errorf("status = %s, want the latest playing state", st.Game.Status)
	}
}

func TestStateAtUnknownGame(t *testing.T) {
	env := newTestEnv()
	_, err := env.replay.StateAt(context.Background(), "no-such-game", 0)
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("got %v, want ErrGameNotFound", err)
	}
}

func TestVerifyProjectionHoldsThroughLifecycle(t *testing.T) {
	env := newTestEnv()
	gameID, alice, _ := env.playingGame(t)
	ctx := context.Background()

	if err := env.replay.VerifyProjection(ctx, gameID); err != nil {
		t.Fatalf("VerifyProjection after setup: %v", err)
	}

	st := env.state(t, gameID)
	from, to := borderTerritory(st, alice.ID)
	pool := st.Player(alice.ID).ArmiesAvailable
	if _, err := env.actions.PlaceArmies(ctx, gameID, alice.ID, from, pool); err != nil {
		t.Fatalf("PlaceArmies: %v", err)
	}
	if err := env.replay.VerifyProjection(ctx, gameID); err != nil {
		t.Fatalf("VerifyProjection after reinforcement: %v", err)
	}

	if _, _, err := env.actions.Attack(ctx, gameID, alice.ID, from, to, 0); err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if err := env.replay.VerifyProjection(ctx, gameID); err != nil {
		t.Fatalf("VerifyProjection after attack: %v", err)
	}
}

func TestArmyConservationUnderPlacement(t *testing.T) {
	env := newTestEnv()
	gameID, alice, _ := env.playingGame(t)
	ctx := context.Background()

	st := env.state(t, gameID)
	total := func(st *risk.State) int {
		sum := 0
		for _, p := range st.Players {
			sum += p.ArmiesAvailable
		}
		for _, ter := range st.Territories {
			sum += ter.ArmyCount
		}
		return sum
	}
	before := total(st)

	// Placement moves armies from pool to board without creating any.
	if _, err := env.actions.PlaceArmies(ctx, gameID, alice.ID, ownedTerritory(st, alice.ID), 2); err != nil {
		t.Fatalf("PlaceArmies: %v", err)
	}
	if got := total(env.state(t, gameID)); got != before {
		t.Errorf("total armies %d, want %d", got, before)
	}
}

func TestSnapshotWrittenAtIntervalAndDroppedByUndo(t *testing.T) {
	env := newTestEnv()
	gameID, alice, _ := env.playingGame(t)
	ctx := context.Background()

	// playingGame ends at sequence 49; one more single-event action
	// crosses the checkpoint interval.
	st := env.state(t, gameID)
	if _, err := env.actions.PlaceArmies(ctx, gameID, alice.ID, ownedTerritory(st, alice.ID), 1); err != nil {
		t.Fatalf("PlaceArmies: %v", err)
	}

	snaps := env.repo.store.snapshots[gameID]
	if len(snaps) != 1 || snaps[0].SequenceNumber != snapshotInterval {
		t.Fatalf("snapshots = %+v, want one checkpoint at %d", snaps, snapshotInterval)
	}

	// Replay through the checkpoint still lands on the same state.
	replayed, err := env.replay.StateAt(ctx, gameID, 0)
	if err != nil {
		t.Fatalf("StateAt: %v", err)
	}
	live := env.state(t, gameID)
	if replayed.Game != live.Game {
		t.Errorf("replayed game = %+v, want %+v", replayed.Game, live.Game)
	}

	// Undoing the checkpointed action must drop the snapshot with it.
	if _, err := env.undo.UndoLastAction(ctx, gameID, alice.ID); err != nil {
		t.Fatalf("UndoLastAction: %v", err)
	}
	if remaining := env.repo.store.snapshots[gameID]; len(remaining) != 0 {
		t.Errorf("%d snapshots survive the undo, want 0", len(remaining))
	}
	if err := env.replay.VerifyProjection(ctx, gameID); err != nil {
		t.Errorf("VerifyProjection after undo: %v", err)
	}
}
