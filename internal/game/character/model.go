// Package character defines playable character templates and the deck a
// character brings into battle.
package character

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// Defaults applied to zero-valued template fields.
const (
	DefaultMaxMana      = 3
	DefaultCardsPerTurn = 5
)

// Template is an immutable playable character archetype loaded from YAML.
type Template struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	MaxHealth    int      `yaml:"max_health"`
	MaxBlock     *int     `yaml:"max_block"`
	MaxMana      int      `yaml:"max_mana"`
	CardsPerTurn int      `yaml:"cards_per_turn"`
	StartingDeck []string `yaml:"starting_deck"`
}

// Stats returns the stats template for a battle instance of the character.
func (t *Template) Stats() stats.Template {
	return stats.Template{MaxHealth: t.MaxHealth, MaxBlock: t.MaxBlock}
}

// applyDefaults fills zero-valued optional fields.
func (t *Template) applyDefaults() {
	if t.MaxMana == 0 {
		t.MaxMana = DefaultMaxMana
	}
	if t.CardsPerTurn == 0 {
		t.CardsPerTurn = DefaultCardsPerTurn
	}
}

// Validate checks that the template satisfies its invariants.
//
// Precondition: t is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if err := t.Stats().Validate(); err != nil {
		errs = append(errs, err)
	}
	if t.MaxMana < 0 {
		errs = append(errs, fmt.Errorf("max_mana must be >= 0, got %d", t.MaxMana))
	}
	if t.CardsPerTurn < 0 {
		errs = append(errs, fmt.Errorf("cards_per_turn must be >= 0, got %d", t.CardsPerTurn))
	}
	if len(t.StartingDeck) == 0 {
		errs = append(errs, errors.New("starting_deck must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("character %q validation failed: %v", t.ID, errs)
	}
	return nil
}

// LoadTemplateFromBytes parses a single character template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template with defaults applied, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing character YAML: %w", err)
	}
	tmpl.applyDefaults()
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
		return nil, fmt.Errorf("reading character dir %q: %w", dir, err)
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
