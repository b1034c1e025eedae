// Package effect applies named effects (damage, block) to resolved combatants.
package effect

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// Kind identifies what an effect does to a target's stats.
type Kind int

const (
	Damage Kind = iota
	Block
)

// String returns the content name of the kind.
func (k Kind) String() string {
	switch k {
	case Damage:
		return "damage"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// UnmarshalYAML decodes "damage" or "block".
func (k *Kind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "damage":
		*k = Damage
	case "block":
		*k = Block
	default:
		return fmt.Errorf("unknown effect kind %q", s)
	}
	return nil
}

// Effect is one stat change applied to every resolved target.
// Hits repeats a damage effect; 0 is treated as a single hit.
type Effect struct {
	Kind   Kind   `yaml:"kind"`
	Amount int    `yaml:"amount"`
	Hits   int    `yaml:"hits"`
	Sound  string `yaml:"sound"`
}

// HitCount returns the number of times the effect lands on each target.
func (e Effect) HitCount() int {
	if e.Hits < 1 {
		return 1
	}
	return e.Hits
}

// Validate reports content errors in an effect definition.
func (e Effect) Validate() error {
	if e.Amount < 0 {
		return fmt.Errorf("effect %s: amount must be >= 0, got %d", e.Kind, e.Amount)
	}
	if e.Hits < 0 {
		return fmt.Errorf("effect %s: hits must be >= 0, got %d", e.Kind, e.Hits)
	}
	if e.Kind == Block && e.Hits > 1 {
		return fmt.Errorf("effect block: hits is only meaningful for damage")
	}
	return nil
}

// StatsLookup finds the live stats of a combatant. *roster.Roster satisfies it.
type StatsLookup interface {
	LookupStats(ref roster.Ref) (*stats.Stats, bool)
}

// Resolver lands effects on combatants and publishes an effect-applied event per landing.
type Resolver struct {
	lookup StatsLookup
	bus    *event.Bus
	logger *zap.Logger
	halted func() bool
}

// NewResolver creates a Resolver.
//
// Precondition: lookup, bus, and logger must not be nil.
func NewResolver(lookup StatsLookup, bus *event.Bus, logger *zap.Logger) *Resolver {
	if lookup == nil {
		panic("effect.NewResolver: lookup must not be nil")
	}
	if bus == nil {
		panic("effect.NewResolver: bus must not be nil")
	}
	if logger == nil {
		panic("effect.NewResolver: logger must not be nil")
	}
	return &Resolver{lookup: lookup, bus: bus, logger: logger}
}

// HaltWhen makes every later landing check halted first; once it reports
// true the remaining hits and effects are dropped.
func (r *Resolver) HaltWhen(halted func() bool) { r.halted = halted }

func (r *Resolver) stopped() bool { return r.halted != nil && r.halted() }

// Apply lands eff on every target, iterating targets in set order once per hit.
// A target missing from the roster, including one removed by an earlier hit,
// is skipped silently. effect_applied is published before the stats change so
// that it precedes any death or outcome the change causes.
//
// Postcondition: Returns how many times the effect landed.
func (r *Resolver) Apply(source roster.Ref, eff Effect, targets roster.Set) int {
	landed := 0
	for hit := 0; hit < eff.HitCount(); hit++ {
		for _, ref := range targets.Refs() {
			if r.stopped() {
				r.logger.Debug("resolver halted; dropping landing",
					zap.String("target", string(ref)),
					zap.Stringer("effect", eff.Kind),
				)
				return landed
			}
			st, ok := r.lookup.LookupStats(ref)
			if !ok {
				r.logger.Debug("effect target gone; skipping",
					zap.String("target", string(ref)),
					zap.Stringer("effect", eff.Kind),
				)
				continue
			}
			landed++
			r.bus.Publish(event.Event{
				Kind:   event.KindEffectApplied,
				Source: string(source),
				Target: string(ref),
				Amount: eff.Amount,
				Sound:  eff.Sound,
				Detail: eff.Kind.String(),
			})
			switch eff.Kind {
			case Damage:
				st.TakeDamage(eff.Amount)
			case Block:
				st.GrantBlock(eff.Amount)
			}
		}
	}
	return landed
}

// ApplyAll applies each effect in order.
//
// Postcondition: Returns the total number of landings.
func (r *Resolver) ApplyAll(source roster.Ref, effs []Effect, targets roster.Set) int {
	total := 0
	for _, eff := range effs {
		if r.stopped() {
			break
		}
		total += r.Apply(source, eff, targets)
	}
	return total
}
