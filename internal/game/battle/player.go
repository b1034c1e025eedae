package battle

import (
	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/character"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// Pile names used in pile_size_changed events.
const (
	PileDraw    = "draw"
	PileDiscard = "discard"
	PileRemoved = "removed"
)

// Player is the player's combatant for one battle: a stats instance copied
// from the character template plus mana and the three battle piles.
// It implements roster.Combatant.
type Player struct {
	name         string
	stats        *stats.Stats
	mana         int
	maxMana      int
	cardsPerTurn int

	draw    *card.Pile
	discard *card.Pile
	removed *card.Pile
}

// NewPlayer creates a battle instance of tmpl holding deck in its draw pile.
// The deck is copied; the caller's slice is never modified.
//
// Precondition: tmpl must be valid.
// Postcondition: Mana() == MaxMana(); discard and removed piles are empty.
func NewPlayer(tmpl *character.Template, deck []*card.Card) *Player {
	p := &Player{
		name:         tmpl.Name,
		stats:        stats.New(tmpl.Stats()),
		maxMana:      tmpl.MaxMana,
		mana:         tmpl.MaxMana,
		cardsPerTurn: tmpl.CardsPerTurn,
		draw:         card.NewPile(PileDraw),
		discard:      card.NewPile(PileDiscard),
		removed:      card.NewPile(PileRemoved),
	}
	p.draw.AddAll(deck)
	return p
}

// Ref implements roster.Combatant.
func (p *Player) Ref() roster.Ref { return roster.PlayerRef }

// Name implements roster.Combatant.
func (p *Player) Name() string { return p.name }

// Side implements roster.Combatant.
func (p *Player) Side() roster.Side { return roster.SidePlayer }

// Stats implements roster.Combatant.
func (p *Player) Stats() *stats.Stats { return p.stats }

// Mana returns the mana left this turn.
func (p *Player) Mana() int { return p.mana }

// MaxMana returns the mana restored at the start of each turn.
func (p *Player) MaxMana() int { return p.maxMana }

// CardsPerTurn returns how many cards are drawn each turn.
func (p *Player) CardsPerTurn() int { return p.cardsPerTurn }

// DrawPile returns the draw pile.
func (p *Player) DrawPile() *card.Pile { return p.draw }

// DiscardPile returns the discard pile.
func (p *Player) DiscardPile() *card.Pile { return p.discard }

// RemovedPile returns the pile of cards removed for the rest of the battle.
func (p *Player) RemovedPile() *card.Pile { return p.removed }

// CanPlay reports whether enough mana remains for c.
func (p *Player) CanPlay(c *card.Card) bool { return p.mana >= c.Cost }

// spendMana deducts c's cost.
//
// Precondition: CanPlay(c).
func (p *Player) spendMana(c *card.Card) {
	p.mana -= c.Cost
	if p.mana < 0 {
		p.mana = 0
	}
}

func (p *Player) resetMana() { p.mana = p.maxMana }
