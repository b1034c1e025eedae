package enemy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/dice"
)

// Selector picks an enemy's next action from its ordered action list.
//
// Conditional actions are scanned in declaration order and the first performable
// one wins. Otherwise a roll in [0, total weight) is mapped onto the cumulative
// weights of the ChanceBased actions, again in declaration order.
type Selector struct {
	owner       string
	conditional []*Action
	chance      []*Action
	total       float64
	src         dice.Source
	logger      *zap.Logger
}

// NewSelector partitions actions by kind and assigns cumulative weights once.
//
// Precondition: src and logger must not be nil.
// Postcondition: the i-th ChanceBased action's CumulativeWeight equals the sum of
// the weights of ChanceBased actions 0..i in declaration order.
func NewSelector(owner string, actions []*Action, src dice.Source, logger *zap.Logger) *Selector {
	if src == nil {
		panic("enemy.NewSelector: src must not be nil")
	}
	if logger == nil {
		panic("enemy.NewSelector: logger must not be nil")
	}
	s := &Selector{owner: owner, src: src, logger: logger}
	for _, a := range actions {
		switch a.Kind {
		case Conditional:
			s.conditional = append(s.conditional, a)
		case ChanceBased:
			if a.Weight > 0 {
				s.total += a.Weight
			}
			a.cumulative = s.total
			s.chance = append(s.chance, a)
		}
	}
	return s
}

// TotalWeight returns the sum of all ChanceBased weights.
func (s *Selector) TotalWeight() float64 { return s.total }

// FirstConditional returns the first performable conditional action in declaration order.
func (s *Selector) FirstConditional(self Self) (*Action, bool) {
	for _, a := range s.conditional {
		if a.performable(self) {
			return a, true
		}
	}
	return nil, false
}

// ChanceBasedFor maps roll onto the cumulative weights.
//
// Postcondition: Returns the first ChanceBased action whose cumulative weight
// exceeds roll, or (nil, false) if none does.
func (s *Selector) ChanceBasedFor(roll float64) (*Action, bool) {
	for _, a := range s.chance {
		if a.cumulative > roll {
			return a, true
		}
	}
	return nil, false
}

// Pick chooses the next action.
//
// Postcondition: Returns (nil, false) and logs a selection failure when no
// conditional action applies and the ChanceBased weights sum to zero.
func (s *Selector) Pick(self Self) (*Action, bool) {
	if a, ok := s.FirstConditional(self); ok {
		return a, true
	}
	if s.total <= 0 {
		s.logger.Warn("enemy action selection failed",
			zap.String("enemy", s.owner),
			zap.Int("chance_actions", len(s.chance)),
			zap.Float64("total_weight", s.total),
		)
		return nil, false
	}
	roll := s.src.Float64() * s.total
	a, ok := s.ChanceBasedFor(roll)
	if !ok {
		s.logger.Warn("enemy action selection failed",
			zap.String("enemy", s.owner),
			zap.Float64("roll", roll),
			zap.Float64("total_weight", s.total),
		)
	}
	return a, ok
}
