package risk

import (
	"math/rand"
	"sort"
)

const (
	maxAttackerDice = 3
	maxDefenderDice = 2
)

// CombatResult holds the outcome of a single attack exchange.
type CombatResult struct {
	AttackerDice   []int `json:"attacker_dice"`
	DefenderDice   []int `json:"defender_dice"`
	AttackerLosses int   `json:"attacker_losses"`
	DefenderLosses int   `json:"defender_losses"`
	Conquered      bool  `json:"conquered"`
}

// AttackerDiceCount returns how many dice an attacker with the given
// army count rolls: up to three, always leaving one army behind.
func AttackerDiceCount(attackerArmies int) int {
	n := attackerArmies - 1
	if n > maxAttackerDice {
		return maxAttackerDice
	}
	return n
}

// DefenderDiceCount returns how many dice a defender with the given
// army count rolls: up to two.
func DefenderDiceCount(defenderArmies int) int {
	if defenderArmies > maxDefenderDice {
		return maxDefenderDice
	}
	return defenderArmies
}

// ResolveCombat rolls one round of combat between an attacking
// territory with attackerArmies and a defending territory with
// defenderArmies, using rng as the dice source. Dice sets are sorted
// descending and paired highest-to-highest; each pair costs the lower
// side one army, with ties going to the defender. The function has no
// side effects, so a seeded rng reproduces the exact outcome.
func ResolveCombat(attackerArmies, defenderArmies int, rng *rand.Rand) CombatResult {
	result := CombatResult{
		AttackerDice: rollDice(AttackerDiceCount(attackerArmies), rng),
		DefenderDice: rollDice(DefenderDiceCount(defenderArmies), rng),
	}

	pairs := len(result.AttackerDice)
	if len(result.DefenderDice) < pairs {
		pairs = len(result.DefenderDice)
	}
	for i := 0; i < pairs; i++ {
		if result.AttackerDice[i] > result.DefenderDice[i] {
			result.DefenderLosses++
		} else {
			result.AttackerLosses++
		}
	}

	result.Conquered = defenderArmies-result.DefenderLosses <= 0
	return result
}

func rollDice(n int, rng *rand.Rand) []int {
	if n <= 0 {
		return nil
	}
	dice := make([]int, n)
	for i := range dice {
		dice[i] = rng.Intn(6) + 1
	}
	sort.Sort(sort.Reverse(sort.IntSlice(dice)))
	return dice
}
