package risk

import "math/rand"

// minReinforcements is the floor on per-turn army income.
const minReinforcements = 3

// initialArmyPool is the standard starting allocation per player,
// keyed by player count.
var initialArmyPool = map[int]int{
	2: 40,
	3: 35,
	4: 30,
	5: 25,
	6: 20,
}

// MinPlayers and MaxPlayers bound the number of participants per game.
const (
	MinPlayers = 2
	MaxPlayers = 6
)

// InitialArmies returns the starting army pool for each player in a
// game with the given player count, or 0 for unsupported counts.
func InitialArmies(playerCount int) int {
	return initialArmyPool[playerCount]
}

// Reinforcements computes the army income a player receives at the
// start of their turn: max(3, ownedTerritories/3) plus the bonus of
// every continent fully owned.
func Reinforcements(b *Board, playerID string, owners map[string]string) int {
	owned := 0
	for _, owner := range owners {
		if owner == playerID {
			owned++
		}
	}
	income := owned / 3
	if income < minReinforcements {
		income = minReinforcements
	}
	for _, c := range b.ContinentsOwnedBy(playerID, owners) {
		income += c.Bonus
	}
	return income
}

// DistributeTerritories assigns every territory name to exactly one
// player via an unbiased shuffle and round-robin deal, so per-player
// counts differ by at most one. The returned map is territory -> player.
func DistributeTerritories(territories, playerIDs []string, rng *rand.Rand) map[string]string {
	shuffled := make([]string, len(territories))
	copy(shuffled, territories)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assignment := make(map[string]string, len(shuffled))
	for i, t := range shuffled {
		assignment[t] = playerIDs[i%len(playerIDs)]
	}
	return assignment
}
