package card

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownCard is returned when a card ID is not in the registry.
var ErrUnknownCard = errors.New("unknown card")

// Registry holds all known cards keyed by ID.
type Registry struct {
	cards map[string]*Card
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cards: make(map[string]*Card)}
}

// Register adds c to the registry.
//
// Precondition: c must not be nil.
// Postcondition: Returns an error if a card with the same ID is already registered.
func (r *Registry) Register(c *Card) error {
	if _, dup := r.cards[c.ID]; dup {
		return fmt.Errorf("duplicate card id %q", c.ID)
	}
	r.cards[c.ID] = c
	return nil
}

// Get returns the card for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Card, bool) {
	c, ok := r.cards[id]
	return c, ok
}

// Resolve maps a list of card IDs to their templates, preserving order and duplicates.
//
// Postcondition: Returns an error wrapping ErrUnknownCard on the first missing ID.
func (r *Registry) Resolve(ids []string) ([]*Card, error) {
	out := make([]*Card, 0, len(ids))
	for _, id := range ids {
		c, ok := r.cards[id]
		if !ok {
			return nil, fmt.Errorf("card %q: %w", id, ErrUnknownCard)
		}
		out = append(out, c)
	}
	return out, nil
}

// All returns every registered card sorted by ID.
func (r *Registry) All() []*Card {
	out := make([]*Card, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Card,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading card dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		c, err := LoadCardFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
