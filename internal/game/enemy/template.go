package enemy

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/deckbattle/internal/game/dice"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
	"github.com/cory-johannsen/deckbattle/internal/scripting"
)

// ErrUnknownEnemy is returned when an enemy template ID is not known.
var ErrUnknownEnemy = errors.New("unknown enemy")

// BehaviorDef is the YAML form of a Behavior.
type BehaviorDef struct {
	Type   string `yaml:"type"` // "attack" | "block"
	Amount int    `yaml:"amount"`
	Hits   int    `yaml:"hits"`
}

// ConditionDef is the YAML form of a Predicate.
type ConditionDef struct {
	Type      string `yaml:"type"` // "health_at_or_below" | "lua"
	Threshold int    `yaml:"threshold"`
	Hook      string `yaml:"hook"`
	Once      bool   `yaml:"once"`
}

// ActionDef is the YAML form of an Action.
type ActionDef struct {
	ID        string        `yaml:"id"`
	Kind      SelectionKind `yaml:"kind"`
	Weight    float64       `yaml:"weight"`
	Intent    Intent        `yaml:"intent"`
	Sound     string        `yaml:"sound"`
	Behavior  BehaviorDef   `yaml:"behavior"`
	Condition *ConditionDef `yaml:"condition"`
}

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	MaxHealth int         `yaml:"max_health"`
	MaxBlock  *int        `yaml:"max_block"`
	Actions   []ActionDef `yaml:"actions"`
}

// Validate checks that the template satisfies its invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field and action definition is valid.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if err := (stats.Template{MaxHealth: t.MaxHealth, MaxBlock: t.MaxBlock}).Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(t.Actions) == 0 {
		errs = append(errs, errors.New("actions must not be empty"))
	}
	seen := make(map[string]bool, len(t.Actions))
	for i, a := range t.Actions {
		if err := a.validate(); err != nil {
			errs = append(errs, fmt.Errorf("actions[%d]: %w", i, err))
		}
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("actions[%d]: duplicate id %q", i, a.ID))
		}
		seen[a.ID] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("enemy template %q validation failed: %v", t.ID, errs)
	}
	return nil
}

func (a ActionDef) validate() error {
	if a.ID == "" {
		return errors.New("id must not be empty")
	}
	switch a.Behavior.Type {
	case "attack", "block":
	default:
		return fmt.Errorf("action %q: behavior type must be attack or block, got %q", a.ID, a.Behavior.Type)
	}
	if a.Behavior.Amount < 0 || a.Behavior.Hits < 0 {
		return fmt.Errorf("action %q: behavior amount and hits must be >= 0", a.ID)
	}
	switch a.Kind {
	case Conditional:
		if a.Condition == nil {
			return fmt.Errorf("action %q: conditional action requires a condition", a.ID)
		}
		switch a.Condition.Type {
		case "health_at_or_below":
		case "lua":
			if a.Condition.Hook == "" {
				return fmt.Errorf("action %q: lua condition requires a hook", a.ID)
			}
		default:
			return fmt.Errorf("action %q: unknown condition type %q", a.ID, a.Condition.Type)
		}
	case ChanceBased:
		if a.Weight < 0 {
			return fmt.Errorf("action %q: weight must be >= 0", a.ID)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing enemy YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Catalog indexes enemy templates by ID.
type Catalog struct {
	templates map[string]*Template
}

// NewCatalog builds a Catalog from tmpls.
//
// Postcondition: Returns an error if two templates share an ID.
func NewCatalog(tmpls []*Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*Template, len(tmpls))}
	for _, t := range tmpls {
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate enemy id %q", t.ID)
		}
		c.templates[t.ID] = t
	}
	return c, nil
}

// Get returns the template for id.
//
// Postcondition: Returns an error wrapping ErrUnknownEnemy if id is not known.
func (c *Catalog) Get(id string) (*Template, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, fmt.Errorf("enemy %q: %w", id, ErrUnknownEnemy)
	}
	return t, nil
}

// Deps are the collaborators every spawned enemy shares with its battle.
type Deps struct {
	Bus    *event.Bus
	Src    dice.Source
	Hooks  Hooks
	Logger *zap.Logger
}

// Spawn creates a live enemy from tmpl with a unique ref, full health, fresh
// predicate state and its own selector. The enemy re-evaluates its held action
// after every change to its stats.
//
// Precondition: tmpl must be valid; deps.Bus, deps.Src and deps.Logger must not be nil.
func Spawn(tmpl *Template, deps Deps) *Enemy {
	if deps.Bus == nil || deps.Src == nil || deps.Logger == nil {
		panic("enemy.Spawn: bus, src and logger must not be nil")
	}
	ref := roster.Ref(tmpl.ID + "-" + uuid.New().String()[:8])
	actions := make([]*Action, 0, len(tmpl.Actions))
	for _, def := range tmpl.Actions {
		actions = append(actions, def.build(deps.Hooks))
	}
	e := &Enemy{
		ref:      ref,
		name:     tmpl.Name,
		scope:    tmpl.ID,
		stats:    stats.New(stats.Template{MaxHealth: tmpl.MaxHealth, MaxBlock: tmpl.MaxBlock}),
		selector: NewSelector(string(ref), actions, deps.Src, deps.Logger),
		bus:      deps.Bus,
		logger:   deps.Logger.With(zap.String("enemy", string(ref))),
	}
	e.stats.Subscribe(func(stats.Change) { e.RefreshCurrentAction() })
	return e
}

func (a ActionDef) build(hooks Hooks) *Action {
	act := &Action{
		ID:     a.ID,
		Intent: a.Intent,
		Kind:   a.Kind,
		Weight: a.Weight,
		Sound:  a.Sound,
	}
	switch a.Behavior.Type {
	case "attack":
		act.Behavior = Attack{Amount: a.Behavior.Amount, Hits: a.Behavior.Hits}
	case "block":
		act.Behavior = Block{Amount: a.Behavior.Amount}
	}
	if a.Condition != nil {
		switch a.Condition.Type {
		case "health_at_or_below":
			act.Predicate = &HealthAtOrBelow{Threshold: a.Condition.Threshold, Once: a.Condition.Once}
		case "lua":
			act.Predicate = &LuaHook{Hook: a.Condition.Hook, Once: a.Condition.Once, hooks: hooks}
		}
	}
	return act
}

// ScriptHooks evaluates predicate hooks in a scripting.Manager.
type ScriptHooks struct {
	Manager *scripting.Manager
}

// Evaluate implements Hooks.
func (h ScriptHooks) Evaluate(scope, hook string, self Self) bool {
	if h.Manager == nil {
		return false
	}
	info := scripting.CombatantInfo{
		Ref:  string(self.Ref),
		Name: self.Name,
		Turn: self.Turn,
	}
	if self.Stats != nil {
		info.Health = self.Stats.Health()
		info.MaxHealth = self.Stats.MaxHealth()
		info.Block = self.Stats.Block()
		info.MaxBlock = self.Stats.MaxBlock()
	}
	return h.Manager.CallPredicate(scope, hook, info)
}
