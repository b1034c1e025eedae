package battle

import (
	"fmt"

	"github.com/cory-johannsen/deckbattle/internal/config"
	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/character"
	"github.com/cory-johannsen/deckbattle/internal/game/enemy"
)

// Content is the immutable template data every battle is built from.
type Content struct {
	Cards      *card.Registry
	Characters map[string]*character.Template
	Enemies    *enemy.Catalog
	Encounters map[string]*Encounter
	// ScriptsDir holds global Lua predicates and one subdirectory per enemy
	// template. Empty disables scripting.
	ScriptsDir string
}

// LoadContent reads every content directory named by cfg and cross-checks
// the references between them.
//
// Postcondition: Returns fully resolved Content, or an error naming the first
// broken file or reference.
func LoadContent(cfg config.ContentConfig) (*Content, error) {
	cards, err := card.LoadDirectory(cfg.CardsDir)
	if err != nil {
		return nil, fmt.Errorf("loading cards: %w", err)
	}
	chars, err := character.LoadTemplates(cfg.CharactersDir)
	if err != nil {
		return nil, fmt.Errorf("loading characters: %w", err)
	}
	enemyTmpls, err := enemy.LoadTemplates(cfg.EnemiesDir)
	if err != nil {
		return nil, fmt.Errorf("loading enemies: %w", err)
	}
	catalog, err := enemy.NewCatalog(enemyTmpls)
	if err != nil {
		return nil, fmt.Errorf("indexing enemies: %w", err)
	}
	encounters, err := LoadEncounters(cfg.EncountersDir)
	if err != nil {
		return nil, fmt.Errorf("loading encounters: %w", err)
	}

	c := &Content{
		Cards:      cards,
		Characters: make(map[string]*character.Template, len(chars)),
		Enemies:    catalog,
		Encounters: encounters,
		ScriptsDir: cfg.ScriptsDir,
	}
	for _, t := range chars {
		if _, dup := c.Characters[t.ID]; dup {
			return nil, fmt.Errorf("duplicate character id %q", t.ID)
		}
		if _, err := character.BuildDeck(t, cards); err != nil {
			return nil, err
		}
		c.Characters[t.ID] = t
	}
	for _, enc := range encounters {
		if _, ok := c.Characters[enc.Character]; !ok {
			return nil, fmt.Errorf("encounter %q: unknown character %q", enc.ID, enc.Character)
		}
		for _, id := range enc.Enemies {
			if _, err := catalog.Get(id); err != nil {
				return nil, fmt.Errorf("encounter %q: %w", enc.ID, err)
			}
		}
	}
	return c, nil
}

// Encounter returns the encounter with the given ID.
//
// Postcondition: Returns an error wrapping ErrUnknownEncounter if id is not known.
func (c *Content) Encounter(id string) (*Encounter, error) {
	enc, ok := c.Encounters[id]
	if !ok {
		return nil, fmt.Errorf("encounter %q: %w", id, ErrUnknownEncounter)
	}
	return enc, nil
}
