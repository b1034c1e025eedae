package card

import "github.com/cory-johannsen/deckbattle/internal/game/dice"

// Pile is an ordered stack of cards. Index 0 is the top.
// The same template may appear more than once.
//
// Not safe for concurrent use.
type Pile struct {
	name     string
	cards    []*Card
	onResize func(name string, size int)
}

// NewPile creates an empty named pile.
func NewPile(name string) *Pile {
	return &Pile{name: name}
}

// Name returns the pile's name (e.g. "draw", "discard").
func (p *Pile) Name() string { return p.name }

// OnResize registers fn to be called after every change in pile size.
// A later registration replaces an earlier one.
func (p *Pile) OnResize(fn func(name string, size int)) {
	p.onResize = fn
}

// Len returns the number of cards in the pile.
func (p *Pile) Len() int { return len(p.cards) }

// Empty reports whether the pile holds no cards.
func (p *Pile) Empty() bool { return len(p.cards) == 0 }

// Cards returns a snapshot of the pile, top first.
func (p *Pile) Cards() []*Card {
	out := make([]*Card, len(p.cards))
	copy(out, p.cards)
	return out
}

// Add places c at the bottom of the pile.
func (p *Pile) Add(c *Card) {
	p.cards = append(p.cards, c)
	p.resized()
}

// AddAll places cs at the bottom of the pile, in order.
func (p *Pile) AddAll(cs []*Card) {
	if len(cs) == 0 {
		return
	}
	p.cards = append(p.cards, cs...)
	p.resized()
}

// Draw removes and returns the top card.
//
// Postcondition: Returns (nil, false) iff the pile was empty.
func (p *Pile) Draw() (*Card, bool) {
	if len(p.cards) == 0 {
		return nil, false
	}
	c := p.cards[0]
	p.cards = p.cards[1:]
	p.resized()
	return c, true
}

// TakeAll empties the pile and returns its former contents, top first.
func (p *Pile) TakeAll() []*Card {
	out := p.cards
	p.cards = nil
	if len(out) > 0 {
		p.resized()
	}
	return out
}

// Clear removes every card.
func (p *Pile) Clear() {
	p.TakeAll()
}

// Shuffle permutes the pile in place using src.
func (p *Pile) Shuffle(src dice.Source) {
	dice.Shuffle(src, len(p.cards), func(i, j int) {
		p.cards[i], p.cards[j] = p.cards[j], p.cards[i]
	})
}

func (p *Pile) resized() {
	if p.onResize != nil {
		p.onResize(p.name, len(p.cards))
	}
}
