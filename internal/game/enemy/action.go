package enemy

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// SelectionKind says how an action competes for selection.
type SelectionKind int

const (
	// Conditional actions are taken whenever their predicate holds, first match wins.
	Conditional SelectionKind = iota
	// ChanceBased actions are drawn by weight when no conditional action applies.
	ChanceBased
)

// String returns the content name of the kind.
func (k SelectionKind) String() string {
	switch k {
	case Conditional:
		return "conditional"
	case ChanceBased:
		return "chance_based"
	default:
		return fmt.Sprintf("selection(%d)", int(k))
	}
}

// UnmarshalYAML decodes "conditional" or "chance_based".
func (k *SelectionKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "conditional":
		*k = Conditional
	case "chance_based":
		*k = ChanceBased
	default:
		return fmt.Errorf("unknown selection kind %q", s)
	}
	return nil
}

// Intent is what the player is shown about an enemy's upcoming action.
type Intent struct {
	Icon   string `yaml:"icon"`
	Number int    `yaml:"number"`
}

// Self is the acting enemy's view of itself, handed to predicates.
type Self struct {
	Ref   roster.Ref
	Name  string
	Scope string
	Stats *stats.Stats
	Turn  int
}

// Predicate decides whether a conditional action is performable right now.
// Implementations may keep per-enemy state.
type Predicate interface {
	Performable(self Self) bool
}

// usable is implemented by predicates that change state once their action is performed.
type usable interface {
	markUsed()
}

// Action is one entry of an enemy's ordered action list.
// Each enemy instance owns its own Actions, so predicate state is never shared.
type Action struct {
	ID       string
	Intent   Intent
	Kind     SelectionKind
	Weight   float64
	Sound    string
	Behavior Behavior
	// Predicate is required for Conditional actions and ignored otherwise.
	Predicate Predicate

	cumulative float64
}

// CumulativeWeight returns the running weight total assigned by the Selector.
// Zero for conditional actions.
func (a *Action) CumulativeWeight() float64 { return a.cumulative }

// performable reports whether a conditional action's predicate currently holds.
func (a *Action) performable(self Self) bool {
	if a.Predicate == nil {
		return false
	}
	return a.Predicate.Performable(self)
}

// markPerformed lets one-shot predicates record that the action was used.
func (a *Action) markPerformed() {
	if u, ok := a.Predicate.(usable); ok {
		u.markUsed()
	}
}

// HealthAtOrBelow holds when the enemy's health is at or below Threshold.
// With Once set it stops holding after its action has been performed once.
type HealthAtOrBelow struct {
	Threshold int
	Once      bool
	used      bool
}

// Performable implements Predicate.
func (p *HealthAtOrBelow) Performable(self Self) bool {
	if p.Once && p.used {
		return false
	}
	return self.Stats != nil && self.Stats.Health() <= p.Threshold
}

func (p *HealthAtOrBelow) markUsed() { p.used = true }

// Hooks evaluates named predicate hooks. *scripting.Manager satisfies it through HookAdapter.
type Hooks interface {
	Evaluate(scope, hook string, self Self) bool
}

// LuaHook delegates the decision to a scripted predicate.
type LuaHook struct {
	Hook  string
	Once  bool
	hooks Hooks
	used  bool
}

// Performable implements Predicate.
func (p *LuaHook) Performable(self Self) bool {
	if p.Once && p.used {
		return false
	}
	if p.hooks == nil {
		return false
	}
	return p.hooks.Evaluate(self.Scope, p.Hook, self)
}

func (p *LuaHook) markUsed() { p.used = true }
