package enemy

import (
	"time"

	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

// Pacing controls the cooperative waits inside an enemy action.
type Pacing struct {
	// HitInterval separates consecutive hits of a multi-hit attack.
	HitInterval time.Duration
	// CompletionDelay elapses between the last effect and the completion signal.
	CompletionDelay time.Duration
}

// ActionContext is everything a behavior may touch while performing.
type ActionContext struct {
	Self      *Enemy
	Player    roster.Ref
	Effects   *effect.Resolver
	Scheduler timer.Scheduler
	Pacing    Pacing
	Sound     string
}

// Behavior is what an action does when performed. It must call done exactly
// once, after its last effect, without blocking.
type Behavior interface {
	Perform(ctx ActionContext, done func())
}

// Attack damages the player Hits times, HitInterval apart.
type Attack struct {
	Amount int
	Hits   int
}

// Perform implements Behavior.
func (a Attack) Perform(ctx ActionContext, done func()) {
	hits := a.Hits
	if hits < 1 {
		hits = 1
	}
	eff := effect.Effect{Kind: effect.Damage, Amount: a.Amount, Sound: ctx.Sound}
	targets := roster.NewSet(ctx.Player)
	var hit func(n int)
	hit = func(n int) {
		ctx.Effects.Apply(ctx.Self.Ref(), eff, targets)
		if n+1 < hits {
			ctx.Scheduler.After(ctx.Pacing.HitInterval, func() { hit(n + 1) })
			return
		}
		ctx.Scheduler.After(ctx.Pacing.CompletionDelay, done)
	}
	hit(0)
}

// Block grants the acting enemy Amount block.
type Block struct {
	Amount int
}

// Perform implements Behavior.
func (b Block) Perform(ctx ActionContext, done func()) {
	eff := effect.Effect{Kind: effect.Block, Amount: b.Amount, Sound: ctx.Sound}
	ctx.Effects.Apply(ctx.Self.Ref(), eff, roster.NewSet(ctx.Self.Ref()))
	ctx.Scheduler.After(ctx.Pacing.CompletionDelay, done)
}
