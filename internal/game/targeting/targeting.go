// Package targeting expands a declared target mode into a concrete set of combatants.
package targeting

import (
	"github.com/cory-johannsen/deckbattle/internal/game/dice"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
)

// Pool is the read-only view of the live roster that targeting needs.
// *roster.Roster satisfies it.
type Pool interface {
	Player() roster.Ref
	Allies() []roster.Ref
	Enemies() []roster.Ref
}

// Resolve expands mode and the session-acquired declared targets into the
// combatants an effect should land on.
//
// Precondition: pool and src must not be nil.
// Postcondition: Never panics on empty pools; random modes over an empty pool
// and single-target modes with no declared target yield an empty set.
func Resolve(mode Mode, declared roster.Set, pool Pool, src dice.Source) roster.Set {
	switch mode {
	case Enemy, Ally:
		return roster.NewSet(declared.Refs()...)
	case Self:
		if declared.Empty() {
			return roster.Set{}
		}
		return playerSide(pool)
	case AllSelf:
		return playerSide(pool)
	case All:
		s := playerSide(pool)
		for _, r := range pool.Enemies() {
			s.Add(r)
		}
		return s
	case AllEnemies:
		return roster.NewSet(pool.Enemies()...)
	case AllAllies:
		return roster.NewSet(pool.Allies()...)
	case Random:
		return pickOne(append(playerSide(pool).Refs(), pool.Enemies()...), src)
	case RandomEnemy:
		return pickOne(pool.Enemies(), src)
	case RandomAlly:
		return pickOne(pool.Allies(), src)
	case RandomSelf:
		return pickOne(playerSide(pool).Refs(), src)
	default:
		return roster.Set{}
	}
}

func playerSide(pool Pool) roster.Set {
	s := roster.NewSet(pool.Player())
	for _, r := range pool.Allies() {
		s.Add(r)
	}
	return s
}

func pickOne(candidates []roster.Ref, src dice.Source) roster.Set {
	if len(candidates) == 0 {
		return roster.Set{}
	}
	return roster.NewSet(candidates[src.Intn(len(candidates))])
}
