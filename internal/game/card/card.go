// Package card defines immutable card templates, the registry they are loaded
// into, and the piles (draw, discard, removed) that hold them during a battle.
package card

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/targeting"
)

// Type is the card's category.
type Type string

const (
	TypeAttack Type = "attack"
	TypePower  Type = "power"
	TypeSkill  Type = "skill"
	TypeState  Type = "state"
	TypeCurse  Type = "curse"
)

// validTypes is the set of valid card types.
var validTypes = map[Type]bool{
	TypeAttack: true,
	TypePower:  true,
	TypeSkill:  true,
	TypeState:  true,
	TypeCurse:  true,
}

// Card is an immutable card template. Playing a card never mutates it.
type Card struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Type        Type            `yaml:"type"`
	Target      targeting.Mode  `yaml:"target"`
	Cost        int             `yaml:"cost"`
	Effects     []effect.Effect `yaml:"effects"`
	Sound       string          `yaml:"sound"`
}

// Validate checks that the card satisfies its invariants.
//
// Precondition: c is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (c *Card) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validTypes[c.Type] {
		errs = append(errs, fmt.Errorf("type must be one of attack, power, skill, state, curse; got %q", c.Type))
	}
	if c.Cost < 0 {
		errs = append(errs, fmt.Errorf("cost must be >= 0, got %d", c.Cost))
	}
	for i, e := range c.Effects {
		if err := e.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("effects[%d]: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("card %q validation failed: %v", c.ID, errs)
	}
	return nil
}

// IsSingleTargeted reports whether the card needs one acquired target before it can be played.
func (c *Card) IsSingleTargeted() bool {
	return c.Target.IsSingleTargeted()
}

// LoadCardFromBytes parses and validates a single card from YAML.
// Unknown fields are rejected.
//
// Postcondition: Returns a validated *Card, or an error.
func LoadCardFromBytes(data []byte) (*Card, error) {
	var c Card
	if err := decodeStrict(data, &c); err != nil {
		return nil, fmt.Errorf("parsing card YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
