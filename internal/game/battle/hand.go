package battle

import "github.com/cory-johannsen/deckbattle/internal/game/interaction"

// Hand lays out the sessions of the cards the player currently holds.
type Hand struct {
	origin   interaction.Vec2
	spacing  float64
	sessions []*interaction.Session
}

// NewHand creates an empty hand whose first card rests at origin, with each
// following card spacing pixels to the right.
func NewHand(origin interaction.Vec2, spacing float64) *Hand {
	return &Hand{origin: origin, spacing: spacing}
}

// Len returns the number of cards in hand.
func (h *Hand) Len() int { return len(h.sessions) }

// Sessions returns the sessions in hand order. The slice is a copy.
func (h *Hand) Sessions() []*interaction.Session {
	out := make([]*interaction.Session, len(h.sessions))
	copy(out, h.sessions)
	return out
}

// Add appends s and re-lays the hand.
func (h *Hand) Add(s *interaction.Session) {
	h.sessions = append(h.sessions, s)
	h.layout()
}

// Remove takes s out of the hand.
//
// Postcondition: Returns true iff s was held.
func (h *Hand) Remove(s *interaction.Session) bool {
	for i, held := range h.sessions {
		if held == s {
			h.sessions = append(h.sessions[:i], h.sessions[i+1:]...)
			h.layout()
			return true
		}
	}
	return false
}

// Find returns the session with the given id.
func (h *Hand) Find(id string) (*interaction.Session, bool) {
	for _, s := range h.sessions {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// PopFront removes and returns the leftmost session.
func (h *Hand) PopFront() (*interaction.Session, bool) {
	if len(h.sessions) == 0 {
		return nil, false
	}
	s := h.sessions[0]
	h.sessions = h.sessions[1:]
	h.layout()
	return s, true
}

func (h *Hand) layout() {
	for i, s := range h.sessions {
		s.SetHome(interaction.Vec2{X: h.origin.X + float64(i)*h.spacing, Y: h.origin.Y})
	}
}
