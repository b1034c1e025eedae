// Package enemy provides enemy combatants, their ordered action lists and the
// selector that picks what each enemy does next.
package enemy

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
)

// Enemy is a live enemy combatant. It implements roster.Combatant.
//
// Not safe for concurrent use; the battle loop serializes access.
type Enemy struct {
	ref      roster.Ref
	name     string
	scope    string
	stats    *stats.Stats
	selector *Selector
	bus      *event.Bus
	logger   *zap.Logger

	current *Action
	acting  bool
	turn    int
}

// Ref implements roster.Combatant.
func (e *Enemy) Ref() roster.Ref { return e.ref }

// Name implements roster.Combatant.
func (e *Enemy) Name() string { return e.name }

// Side implements roster.Combatant.
func (e *Enemy) Side() roster.Side { return roster.SideEnemy }

// Stats implements roster.Combatant.
func (e *Enemy) Stats() *stats.Stats { return e.stats }

// TemplateID returns the ID of the template the enemy was spawned from.
func (e *Enemy) TemplateID() string { return e.scope }

// CurrentAction returns the held action, or nil.
func (e *Enemy) CurrentAction() *Action { return e.current }

// Acting reports whether the enemy is in the middle of performing its action.
func (e *Enemy) Acting() bool { return e.acting }

// Selector exposes the enemy's action selector.
func (e *Enemy) Selector() *Selector { return e.selector }

func (e *Enemy) self() Self {
	return Self{Ref: e.ref, Name: e.name, Scope: e.scope, Stats: e.stats, Turn: e.turn}
}

// ChooseIntent drops the held action and picks a fresh one for turn.
// Called at the start of every player turn so the player sees what is coming.
func (e *Enemy) ChooseIntent(turn int) {
	e.turn = turn
	e.current = nil
	e.RefreshCurrentAction()
}

// RefreshCurrentAction re-evaluates the held action after a state change.
//
// With no held action a full pick is made. With one held, only conditional
// actions are rescanned and a different performable one replaces it; a
// chance-based pick is never rerolled. Suppressed while the enemy is acting
// or dead.
func (e *Enemy) RefreshCurrentAction() {
	if e.acting || e.stats.IsDead() {
		return
	}
	if e.current == nil {
		if a, ok := e.selector.Pick(e.self()); ok {
			e.setCurrent(a)
		} else {
			e.bus.Publish(event.Event{Kind: event.KindSelectionFailed, Source: string(e.ref)})
		}
		return
	}
	if a, ok := e.selector.FirstConditional(e.self()); ok && a != e.current {
		e.setCurrent(a)
	}
}

func (e *Enemy) setCurrent(a *Action) {
	e.current = a
	e.logger.Debug("enemy intent changed",
		zap.String("enemy", string(e.ref)),
		zap.String("action", a.ID),
	)
	e.bus.Publish(event.Event{
		Kind:   event.KindIntentChanged,
		Source: string(e.ref),
		Detail: a.ID,
		State:  a.Intent.Icon,
		Amount: a.Intent.Number,
	})
}

// Act performs the held action, resetting the enemy's block first.
// done is invoked once the behavior signals completion.
//
// Postcondition: Returns false without calling done when there is no action to
// perform; the caller treats that as a skipped turn.
func (e *Enemy) Act(ctx ActionContext, done func()) bool {
	if e.stats.IsDead() {
		return false
	}
	// Block lasts until the enemy's next turn, performed or skipped.
	e.acting = true
	e.stats.ResetBlockForNewTurn()
	a := e.current
	if a == nil || a.Behavior == nil {
		e.acting = false
		e.logger.Info("enemy has no action; skipping",
			zap.String("enemy", string(e.ref)),
		)
		return false
	}
	a.markPerformed()
	e.bus.Publish(event.Event{
		Kind:   event.KindEnemyActionStarted,
		Source: string(e.ref),
		Detail: a.ID,
	})
	ctx.Self = e
	ctx.Sound = a.Sound
	a.Behavior.Perform(ctx, func() {
		e.acting = false
		e.bus.Publish(event.Event{
			Kind:   event.KindEnemyActionCompleted,
			Source: string(e.ref),
			Detail: a.ID,
		})
		done()
	})
	return true
}
