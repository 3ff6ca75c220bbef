package risk

import (
	"math/rand"
	"testing"
)

func TestReinforcementsFloor(t *testing.T) {
	b := StandardBoard()
	// 9 territories, no full continent: floor(9/3) = 3.
	owners := map[string]string{
		"Alaska": "p1", "Greenland": "p1", "Quebec": "p1",
		"Brazil": "p1", "Iceland": "p1", "Ukraine": "p1",
		"Egypt": "p1", "Japan": "p1", "Siam": "p1",
	}
	if got := Reinforcements(b, "p1", owners); got != 3 {
		t.Errorf("Reinforcements(9 territories) = %d, want 3", got)
	}
	// Fewer than 9 still yields the floor of 3.
	if got := Reinforcements(b, "p1", map[string]string{"Alaska": "p1"}); got != 3 {
		t.Errorf("Reinforcements(1 territory) = %d, want 3", got)
	}
}

func TestReinforcementsThirtyTerritories(t *testing.T) {
	b := StandardBoard()
	// Spread 30 territories without completing any continent: skip one
	// member of each.
	owners := make(map[string]string)
	count := 0
	for _, c := range b.Continents {
		for i, terr := range c.Territories {
			if i == 0 {
				continue
			}
			if count < 30 {
				owners[terr] = "p1"
				count++
			}
		}
	}
	if count != 30 {
		t.Fatalf("test setup assigned %d territories, want 30", count)
	}
	if got := Reinforcements(b, "p1", owners); got != 10 {
		t.Errorf("Reinforcements(30 territories, no continent) = %d, want 10", got)
	}
}

func TestReinforcementsContinentBonus(t *testing.T) {
	b := StandardBoard()
	owners := make(map[string]string)
	for _, c := range b.Continents {
		if c.Name == "South America" {
			for _, terr := range c.Territories {
				owners[terr] = "p1"
			}
		}
	}
	// 4 territories: floor gives 3, South America adds 2.
	if got := Reinforcements(b, "p1", owners); got != 5 {
		t.Errorf("Reinforcements(South America) = %d, want 5", got)
	}
}

func TestInitialArmies(t *testing.T) {
	cases := map[int]int{2: 40, 3: 35, 4: 30, 5: 25, 6: 20, 1: 0, 7: 0}
	for players, want := range cases {
		if got := InitialArmies(players); got != want {
			t.Errorf("InitialArmies(%d) = %d, want %d", players, got, want)
		}
	}
}

func TestDistributeTerritoriesBalanced(t *testing.T) {
	b := StandardBoard()
	for _, playerCount := range []int{2, 3, 4, 5, 6} {
		var players []string
		for i := 0; i < playerCount; i++ {
			players = append(players, string(rune('a'+i)))
		}
		assignment := DistributeTerritories(b.Territories, players, rand.New(rand.NewSource(int64(playerCount))))

		if len(assignment) != 42 {
			t.Fatalf("%d players: %d territories assigned, want 42", playerCount, len(assignment))
		}
		counts := make(map[string]int)
		for _, p := range assignment {
			counts[p]++
		}
		minCount, maxCount := 42, 0
		for _, p := range players {
			if counts[p] < minCount {
				minCount = counts[p]
			}
			if counts[p] > maxCount {
				maxCount = counts[p]
			}
		}
		if maxCount-minCount > 1 {
			t.Errorf("%d players: territory counts differ by %d, want at most 1", playerCount, maxCount-minCount)
		}
	}
}

func TestDistributeTerritoriesDeterministic(t *testing.T) {
	b := StandardBoard()
	players := []string{"p1", "p2", "p3"}
	a := DistributeTerritories(b.Territories, players, rand.New(rand.NewSource(5)))
	c := DistributeTerritories(b.Territories, players, rand.New(rand.NewSource(5)))
	for terr, owner := range a {
		if c[terr] != owner {
			t.Fatalf("same seed distributed %s differently", terr)
		}
	}
}
