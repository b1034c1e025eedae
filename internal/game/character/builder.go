package character

import (
	"fmt"

	"github.com/cory-johannsen/deckbattle/internal/game/card"
)

// CardSource resolves card IDs to templates. *card.Registry satisfies it.
type CardSource interface {
	Resolve(ids []string) ([]*card.Card, error)
}

// BuildDeck resolves the template's starting deck into card templates, in declaration order.
//
// Precondition: t and cards must not be nil.
// Postcondition: Returns one entry per StartingDeck ID, or an error wrapping
// card.ErrUnknownCard when an ID is not known.
func BuildDeck(t *Template, cards CardSource) ([]*card.Card, error) {
	deck, err := cards.Resolve(t.StartingDeck)
	if err != nil {
		return nil, fmt.Errorf("building deck for %q: %w", t.ID, err)
	}
	return deck, nil
}
