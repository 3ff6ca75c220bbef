package risk

import "sync"

// Continent groups territories and awards bonus armies to a player
// owning every member territory.
type Continent struct {
	Name        string
	Bonus       int
	Territories []string
}

// Board holds the fixed 42-territory world map: the territory
// vocabulary, bidirectional adjacencies, and continent groupings.
type Board struct {
	Territories []string
	Continents  []Continent
	adjacency   map[string][]string
}

var (
	stdBoardOnce sync.Once
	stdBoardInst *Board
)

// StandardBoard returns the classic 42-territory board. The board is
// built once and cached; callers must not mutate the returned value.
func StandardBoard() *Board {
	stdBoardOnce.Do(func() {
		stdBoardInst = buildStandardBoard()
	})
	return stdBoardInst
}

// Contains reports whether name is part of the board vocabulary.
func (b *Board) Contains(name string) bool {
	_, ok := b.adjacency[name]
	return ok
}

// Neighbors returns the territories directly adjacent to name.
func (b *Board) Neighbors(name string) []string {
	return b.adjacency[name]
}

// Adjacent reports whether two territories share a border.
func (b *Board) Adjacent(a, c string) bool {
	for _, n := range b.adjacency[a] {
		if n == c {
			return true
		}
	}
	return false
}

// Connected reports whether from and to are linked through a chain of
// territories all owned by ownerID, per the ownership map
// (territory name -> owner). Direct adjacency counts as a chain of
// length one. from and to themselves must be owned by ownerID.
func (b *Board) Connected(from, to, ownerID string, owners map[string]string) bool {
	if owners[from] != ownerID || owners[to] != ownerID {
		return false
	}
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range b.adjacency[cur] {
			if n == to {
				return true
			}
			if !visited[n] && owners[n] == ownerID {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}

// ContinentsOwnedBy returns every continent in which the player owns
// all member territories, per the ownership map.
func (b *Board) ContinentsOwnedBy(playerID string, owners map[string]string) []Continent {
	var owned []Continent
	for _, c := range b.Continents {
		all := true
		for _, t := range c.Territories {
			if owners[t] != playerID {
				all = false
				break
			}
		}
		if all {
			owned = append(owned, c)
		}
	}
	return owned
}

func buildStandardBoard() *Board {
	b := &Board{
		adjacency: make(map[string][]string, 42),
	}

	continent := func(name string, bonus int, territories ...string) {
		b.Continents = append(b.Continents, Continent{Name: name, Bonus: bonus, Territories: territories})
		for _, t := range territories {
			b.Territories = append(b.Territories, t)
			b.adjacency[t] = nil
		}
	}

	continent("North America", 5,
		"Alaska", "Northwest Territory", "Greenland", "Alberta", "Ontario",
		"Quebec", "Western United States", "Eastern United States", "Central America")
	continent("South America", 2,
		"Venezuela", "Brazil", "Peru", "Argentina")
	continent("Europe", 5,
		"Iceland", "Scandinavia", "Great Britain", "Northern Europe",
		"Western Europe", "Southern Europe", "Ukraine")
	continent("Africa", 3,
		"North Africa", "Egypt", "East Africa", "Congo", "South Africa", "Madagascar")
	continent("Asia", 7,
		"Ural", "Siberia", "Yakutsk", "Kamchatka", "Irkutsk", "Mongolia",
		"Japan", "Afghanistan", "China", "Middle East", "India", "Siam")
	continent("Australia", 2,
		"Indonesia", "New Guinea", "Western Australia", "Eastern Australia")

	// border adds a bidirectional adjacency between two territories.
	border := func(a, c string) {
		b.adjacency[a] = append(b.adjacency[a], c)
		b.adjacency[c] = append(b.adjacency[c], a)
	}

	// North America
	border("Alaska", "Northwest Territory")
	border("Alaska", "Alberta")
	border("Alaska", "Kamchatka")
	border("Northwest Territory", "Alberta")
	border("Northwest Territory", "Ontario")
	border("Northwest Territory", "Greenland")
	border("Greenland", "Ontario")
	border("Greenland", "Quebec")
	border("Greenland", "Iceland")
	border("Alberta", "Ontario")
	border("Alberta", "Western United States")
	border("Ontario", "Quebec")
	border("Ontario", "Western United States")
	border("Ontario", "Eastern United States")
	border("Quebec", "Eastern United States")
	border("Western United States", "Eastern United States")
	border("Western United States", "Central America")
	border("Eastern United States", "Central America")
	border("Central America", "Venezuela")

	// South America
	border("Venezuela", "Brazil")
	border("Venezuela", "Peru")
	border("Brazil", "Peru")
	border("Brazil", "Argentina")
	border("Brazil", "North Africa")
	border("Peru", "Argentina")

	// Europe
	border("Iceland", "Great Britain")
	border("Iceland", "Scandinavia")
	border("Scandinavia", "Great Britain")
	border("Scandinavia", "Northern Europe")
	border("Scandinavia", "Ukraine")
	border("Great Britain", "Northern Europe")
	border("Great Britain", "Western Europe")
	border("Northern Europe", "Western Europe")
	border("Northern Europe", "Southern Europe")
	border("Northern Europe", "Ukraine")
	border("Western Europe", "Southern Europe")
	border("Western Europe", "North Africa")
	border("Southern Europe", "Ukraine")
	border("Southern Europe", "North Africa")
	border("Southern Europe", "Egypt")
	border("Southern Europe", "Middle East")
	border("Ukraine", "Ural")
	border("Ukraine", "Afghanistan")
	border("Ukraine", "Middle East")

	// Africa
	border("North Africa", "Egypt")
	border("North Africa", "East Africa")
	border("North Africa", "Congo")
	border("Egypt", "East Africa")
	border("Egypt", "Middle East")
	border("East Africa", "Congo")
	border("East Africa", "South Africa")
	border("East Africa", "Madagascar")
	border("East Africa", "Middle East")
	border("Congo", "South Africa")
	border("South Africa", "Madagascar")

	// Asia
	border("Ural", "Siberia")
	border("Ural", "Afghanistan")
	border("Ural", "China")
	border("Siberia", "Yakutsk")
	border("Siberia", "Irkutsk")
	border("Siberia", "Mongolia")
	border("Siberia", "China")
	border("Yakutsk", "Kamchatka")
	border("Yakutsk", "Irkutsk")
	border("Kamchatka", "Irkutsk")
	border("Kamchatka", "Mongolia")
	border("Kamchatka", "Japan")
	border("Irkutsk", "Mongolia")
	border("Mongolia", "Japan")
	border("Mongolia", "China")
	border("Afghanistan", "China")
	border("Afghanistan", "India")
	border("Afghanistan", "Middle East")
	border("China", "India")
	border("China", "Siam")
	border("Middle East", "India")
	border("India", "Siam")
	border("Siam", "Indonesia")

	// Australia
	border("Indonesia", "New Guinea")
	border("Indonesia", "Western Australia")
	border("New Guinea", "Western Australia")
	border("New Guinea", "Eastern Australia")
	border("Western Australia", "Eastern Australia")

	return b
}
