// Package sim plays battles headlessly. The autopilot drives every card
// through the same pointer input a player would produce, on a manual clock.
package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/battle"
	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/enemy"
	"github.com/cory-johannsen/deckbattle/internal/game/interaction"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/targeting"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

// ErrTurnLimit is returned when a battle is still undecided after MaxTurns.
var ErrTurnLimit = errors.New("turn limit reached")

// idleLimit bounds the callbacks run between two player decisions.
const idleLimit = 10000

// Options tune an Autopilot.
type Options struct {
	// MinDragDuration must match the battle's card configuration so that
	// drop-zone plays are confirmed.
	MinDragDuration time.Duration
	// MaxTurns stops a battle that cannot resolve. Zero means no limit.
	MaxTurns int
	Logger   *zap.Logger
}

// Result summarizes one autopiloted battle.
type Result struct {
	BattleID uuid.UUID
	Outcome  battle.Outcome
	Turns    int
	Plays    int
	Events   int
}

// Autopilot plays one battle to its end with a greedy policy: each turn it
// plays the most valuable affordable card until none is left, then ends the
// turn.
type Autopilot struct {
	b      *battle.Battle
	clock  *timer.Manual
	opts   Options
	logger *zap.Logger
	plays  int
}

// New creates an Autopilot for b, which must have been built on clock.
//
// Precondition: b, clock and opts.Logger must not be nil.
func New(b *battle.Battle, clock *timer.Manual, opts Options) *Autopilot {
	if b == nil || clock == nil || opts.Logger == nil {
		panic("sim.New: battle, clock and logger must not be nil")
	}
	return &Autopilot{
		b:      b,
		clock:  clock,
		opts:   opts,
		logger: opts.Logger.With(zap.String("battle", b.ID().String())),
	}
}

// Run starts the battle and plays it until it resolves.
//
// Postcondition: Returns the result so far together with ctx.Err(),
// ErrTurnLimit, or an error when the battle stalls outside the player's turn.
func (a *Autopilot) Run(ctx context.Context) (Result, error) {
	orch := a.b.Orchestrator()
	orch.Start()
	for {
		a.clock.RunUntilIdle(idleLimit)
		if orch.Phase() == battle.Resolved {
			break
		}
		if err := ctx.Err(); err != nil {
			return a.result(), err
		}
		if orch.Phase() != battle.PlayerActing {
			return a.result(), fmt.Errorf("battle stalled in phase %s", orch.Phase())
		}
		if a.opts.MaxTurns > 0 && orch.Turn() > a.opts.MaxTurns {
			return a.result(), fmt.Errorf("after %d turns: %w", a.opts.MaxTurns, ErrTurnLimit)
		}
		a.playTurn()
		if orch.Phase() == battle.Resolved {
			break
		}
		orch.EndTurn()
	}
	res := a.result()
	a.logger.Info("autopilot finished",
		zap.Stringer("outcome", res.Outcome),
		zap.Int("turns", res.Turns),
		zap.Int("plays", res.Plays),
	)
	return res, nil
}

func (a *Autopilot) result() Result {
	orch := a.b.Orchestrator()
	return Result{
		BattleID: a.b.ID(),
		Outcome:  orch.Outcome(),
		Turns:    orch.Turn(),
		Plays:    a.plays,
		Events:   len(a.b.Events()),
	}
}

func (a *Autopilot) playTurn() {
	orch := a.b.Orchestrator()
	for orch.Phase() == battle.PlayerActing {
		s, target, ok := a.choose()
		if !ok {
			return
		}
		if !a.play(s, target) {
			a.logger.Debug("autopilot play refused", zap.String("card", s.Card().ID))
			return
		}
		a.plays++
	}
}

// choose picks the affordable card with the highest value and its target.
func (a *Autopilot) choose() (*interaction.Session, roster.Ref, bool) {
	orch := a.b.Orchestrator()
	enemies := orch.Enemies()
	if len(enemies) == 0 {
		return nil, "", false
	}
	weakest := enemies[0]
	for _, e := range enemies[1:] {
		if e.Stats().Health() < weakest.Stats().Health() {
			weakest = e
		}
	}
	threat := incoming(enemies) - orch.Player().Stats().Block()

	var (
		best      *interaction.Session
		bestValue int
	)
	for _, s := range orch.Hand().Sessions() {
		if s.Disabled() || !orch.Playable(s) {
			continue
		}
		v := value(s.Card(), len(enemies), threat)
		if v > bestValue {
			best, bestValue = s, v
		}
	}
	if best == nil {
		return nil, "", false
	}
	switch best.Card().Target {
	case targeting.Enemy:
		return best, weakest.Ref(), true
	default:
		return best, roster.PlayerRef, true
	}
}

// play feeds s the pointer input of a complete play and reports whether the
// card was committed. A refused play is returned to the hand.
func (a *Autopilot) play(s *interaction.Session, target roster.Ref) bool {
	pos := s.Position()
	lift := interaction.Vec2{X: pos.X, Y: pos.Y - 40}
	s.Handle(interaction.Down(interaction.Primary, pos))
	s.Handle(interaction.Move(lift))
	if s.Card().IsSingleTargeted() {
		aim := interaction.Vec2{X: pos.X, Y: 0}
		s.Handle(interaction.Entered(target))
		s.Handle(interaction.Move(aim))
		s.Handle(interaction.Down(interaction.Primary, aim))
	} else {
		s.Handle(interaction.Entered(roster.DropZone))
		a.clock.Advance(a.opts.MinDragDuration)
		s.Handle(interaction.Up(interaction.Primary, lift))
	}
	if s.Played() {
		return true
	}
	if s.State() != interaction.Idle {
		s.Handle(interaction.Move(pos))
	}
	return false
}

// incoming is the damage the enemies' shown intents announce.
func incoming(enemies []*enemy.Enemy) int {
	total := 0
	for _, e := range enemies {
		if a := e.CurrentAction(); a != nil && a.Intent.Icon == "attack" {
			total += a.Intent.Number
		}
	}
	return total
}

// value scores a card: damage dealt across its targets, plus block while
// it still absorbs announced damage.
func value(c *card.Card, enemies, threat int) int {
	targets := 1
	switch c.Target {
	case targeting.AllEnemies, targeting.All:
		targets = enemies
	}
	v := 0
	for _, eff := range c.Effects {
		switch eff.Kind {
		case effect.Damage:
			v += eff.Amount * eff.HitCount() * targets
		case effect.Block:
			if threat > 0 {
				v += min(eff.Amount, threat)
			}
		}
	}
	return v
}
