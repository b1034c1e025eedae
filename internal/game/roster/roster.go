// Package roster tracks who is participating in a battle.
package roster

import (
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// Ref is an opaque combatant identity.
type Ref string

// PlayerRef is the fixed reference of the player combatant.
const PlayerRef Ref = "player"

// DropZone is the collision reference of the open battlefield. Cards that do not
// pick a single combatant acquire it when released over the play area.
const DropZone Ref = "drop-zone"

// Side distinguishes the player's party from the enemy party.
type Side int

const (
	SidePlayer Side = iota
	SideAlly
	SideEnemy
)

// String returns a human-readable side label.
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideAlly:
		return "ally"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Combatant is anything with stats that can sit in a roster.
type Combatant interface {
	Ref() Ref
	Name() string
	Side() Side
	Stats() *stats.Stats
}

// Roster is the live, ordered set of battle participants.
//
// Invariant: enemy order is insertion order; a removed enemy never reappears.
// Not safe for concurrent use.
type Roster struct {
	player  Combatant
	allies  []Combatant
	enemies []Combatant
}

// New creates a Roster around the player combatant.
//
// Precondition: player must not be nil.
func New(player Combatant) *Roster {
	if player == nil {
		panic("roster.New: player must not be nil")
	}
	return &Roster{player: player}
}

// AddEnemy appends an enemy to the end of the turn order.
func (r *Roster) AddEnemy(c Combatant) {
	r.enemies = append(r.enemies, c)
}

// AddAlly appends an ally to the player's side.
func (r *Roster) AddAlly(c Combatant) {
	r.allies = append(r.allies, c)
}

// Remove drops the combatant with ref from the ally or enemy side.
// Removing the player or an unknown ref is a no-op.
//
// Postcondition: Returns true iff a combatant was removed.
func (r *Roster) Remove(ref Ref) bool {
	if i := indexOf(r.enemies, ref); i >= 0 {
		r.enemies = append(r.enemies[:i:i], r.enemies[i+1:]...)
		return true
	}
	if i := indexOf(r.allies, ref); i >= 0 {
		r.allies = append(r.allies[:i:i], r.allies[i+1:]...)
		return true
	}
	return false
}

// Player returns the player's reference.
func (r *Roster) Player() Ref { return r.player.Ref() }

// PlayerCombatant returns the player combatant.
func (r *Roster) PlayerCombatant() Combatant { return r.player }

// Allies returns a snapshot of ally references in roster order.
func (r *Roster) Allies() []Ref { return refs(r.allies) }

// Enemies returns a snapshot of enemy references in roster order.
func (r *Roster) Enemies() []Ref { return refs(r.enemies) }

// EnemyCombatants returns a snapshot of the enemy combatants in roster order.
func (r *Roster) EnemyCombatants() []Combatant {
	out := make([]Combatant, len(r.enemies))
	copy(out, r.enemies)
	return out
}

// EnemyCount returns how many enemies remain.
func (r *Roster) EnemyCount() int { return len(r.enemies) }

// Lookup returns the live combatant for ref.
//
// Postcondition: Returns (combatant, true) if ref is in the roster, or (nil, false).
func (r *Roster) Lookup(ref Ref) (Combatant, bool) {
	if ref == r.player.Ref() {
		return r.player, true
	}
	if i := indexOf(r.allies, ref); i >= 0 {
		return r.allies[i], true
	}
	if i := indexOf(r.enemies, ref); i >= 0 {
		return r.enemies[i], true
	}
	return nil, false
}

// LookupStats returns the stats of the live combatant for ref.
func (r *Roster) LookupStats(ref Ref) (*stats.Stats, bool) {
	c, ok := r.Lookup(ref)
	if !ok {
		return nil, false
	}
	return c.Stats(), true
}

func indexOf(cs []Combatant, ref Ref) int {
	for i, c := range cs {
		if c.Ref() == ref {
			return i
		}
	}
	return -1
}

func refs(cs []Combatant) []Ref {
	out := make([]Ref, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Ref())
	}
	return out
}
