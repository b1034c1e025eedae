// Package battle sequences a card battle: the player's draw, play and discard
// phases, the enemies' turn, and detection of the battle's outcome.
package battle

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/dice"
	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/enemy"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/interaction"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/stats"
	"github.com/cory-johannsen/deckbattle/internal/game/targeting"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

// Pacing holds the cooperative waits between battle steps.
type Pacing struct {
	DrawInterval    time.Duration
	DiscardInterval time.Duration
	Enemy           enemy.Pacing
}

// Layout positions the hand on screen.
type Layout struct {
	HandOrigin  interaction.Vec2
	CardSpacing float64
}

// Params are the collaborators of an Orchestrator.
type Params struct {
	Bus       *event.Bus
	Player    *Player
	Enemies   []*enemy.Enemy
	Scheduler timer.Scheduler
	Src       dice.Source
	Pacing    Pacing
	Cards     interaction.Config
	Layout    Layout
	Logger    *zap.Logger
}

// Orchestrator is the battle-level phase machine. It owns the roster, the
// hand and every pending step of the current phase.
//
// Not safe for concurrent use; every entry point must run on the battle loop.
type Orchestrator struct {
	bus     *event.Bus
	roster  *roster.Roster
	player  *Player
	enemies map[roster.Ref]*enemy.Enemy
	effects *effect.Resolver
	sched   timer.Scheduler
	src     dice.Source
	pacing  Pacing
	cards   interaction.Config
	hand    *Hand
	logger  *zap.Logger

	phase   Phase
	outcome Outcome
	turn    int
	started bool

	order   []roster.Ref
	next    int
	current *enemy.Enemy
}

// NewOrchestrator wires a battle between p.Player and p.Enemies, in the given
// enemy order. Nothing happens until Start.
//
// Precondition: p.Bus, p.Player, p.Scheduler, p.Src and p.Logger must not be nil;
// every enemy must publish on p.Bus.
func NewOrchestrator(p Params) *Orchestrator {
	if p.Bus == nil || p.Player == nil || p.Scheduler == nil || p.Src == nil || p.Logger == nil {
		panic("battle.NewOrchestrator: bus, player, scheduler, src and logger must not be nil")
	}
	o := &Orchestrator{
		bus:     p.Bus,
		roster:  roster.New(p.Player),
		player:  p.Player,
		enemies: make(map[roster.Ref]*enemy.Enemy, len(p.Enemies)),
		sched:   p.Scheduler,
		src:     p.Src,
		pacing:  p.Pacing,
		cards:   p.Cards,
		hand:    NewHand(p.Layout.HandOrigin, p.Layout.CardSpacing),
		logger:  p.Logger,
	}
	o.effects = effect.NewResolver(o.roster, o.bus, o.logger)
	o.effects.HaltWhen(func() bool { return o.phase == Resolved })

	o.player.stats.Subscribe(func(ch stats.Change) {
		o.publishStats(roster.PlayerRef, ch)
		if o.player.stats.IsDead() {
			o.resolve(Lose)
		}
	})
	for _, e := range p.Enemies {
		o.roster.AddEnemy(e)
		o.enemies[e.Ref()] = e
		e.Stats().Subscribe(func(ch stats.Change) {
			o.publishStats(e.Ref(), ch)
			if e.Stats().IsDead() {
				o.enemyDied(e)
			}
		})
	}
	for _, pile := range []*card.Pile{o.player.draw, o.player.discard, o.player.removed} {
		pile.OnResize(func(name string, size int) {
			o.bus.Publish(event.Event{Kind: event.KindPileSizeChanged, Detail: name, Amount: size})
		})
	}
	return o
}

// Phase returns the live phase.
func (o *Orchestrator) Phase() Phase { return o.phase }

// Outcome returns how the battle ended, or Undecided.
func (o *Orchestrator) Outcome() Outcome { return o.outcome }

// Turn returns the 1-based number of the current player turn.
func (o *Orchestrator) Turn() int { return o.turn }

// Player returns the player's combatant.
func (o *Orchestrator) Player() *Player { return o.player }

// Roster returns the live roster.
func (o *Orchestrator) Roster() *roster.Roster { return o.roster }

// Hand returns the player's hand.
func (o *Orchestrator) Hand() *Hand { return o.hand }

// Effects returns the battle's effect resolver.
func (o *Orchestrator) Effects() *effect.Resolver { return o.effects }

// CurrentEnemy returns the enemy whose action is in progress, or nil.
func (o *Orchestrator) CurrentEnemy() *enemy.Enemy { return o.current }

// Enemies returns the living enemies in roster order.
func (o *Orchestrator) Enemies() []*enemy.Enemy {
	out := make([]*enemy.Enemy, 0, len(o.enemies))
	for _, ref := range o.roster.Enemies() {
		out = append(out, o.enemies[ref])
	}
	return out
}

// Start shuffles the draw pile and begins the first player turn.
// Calling Start twice has no effect.
func (o *Orchestrator) Start() {
	if o.started {
		return
	}
	o.started = true
	o.player.draw.Shuffle(o.src)
	o.logger.Info("battle started",
		zap.Int("enemies", o.roster.EnemyCount()),
		zap.Int("deck", o.player.draw.Len()),
	)
	if o.roster.EnemyCount() == 0 {
		o.resolve(Win)
		return
	}
	o.beginPlayerTurn()
}

// Playable implements interaction.Host.
func (o *Orchestrator) Playable(s *interaction.Session) bool {
	return o.phase == PlayerActing && o.player.CanPlay(s.Card())
}

// Commit implements interaction.Host. The card's targets are expanded by its
// target mode; combatants that left the battle since they were acquired are
// dropped. A play whose expansion is empty is refused.
func (o *Orchestrator) Commit(s *interaction.Session) bool {
	if o.phase != PlayerActing {
		o.ignore("card commit")
		return false
	}
	c := s.Card()
	if !o.player.CanPlay(c) {
		o.logger.Debug("card commit refused: not enough mana",
			zap.String("card", c.ID),
			zap.Int("mana", o.player.mana),
		)
		return false
	}
	targets := o.liveTargets(targeting.Resolve(c.Target, s.Targets(), o.roster, o.src))
	if targets.Empty() {
		o.logger.Debug("card commit refused: no live targets", zap.String("card", c.ID))
		return false
	}

	o.player.spendMana(c)
	o.publishMana()
	o.hand.Remove(s)
	s.Close()
	o.player.discard.Add(c)
	o.bus.Publish(event.Event{
		Kind:   event.KindCardPlayed,
		Source: s.ID(),
		Card:   c.ID,
		Amount: c.Cost,
		Sound:  c.Sound,
		Detail: joinRefs(targets.Refs()),
	})
	o.effects.ApplyAll(roster.PlayerRef, cardEffects(c), targets)
	return true
}

// EndTurn ends the player's turn. Ignored outside PlayerActing.
//
// Postcondition: Returns true iff the discard phase began.
func (o *Orchestrator) EndTurn() bool {
	if o.phase != PlayerActing {
		o.ignore("end turn")
		return false
	}
	o.setPhase(PlayerDiscarding)
	for _, s := range o.hand.Sessions() {
		s.Disable()
	}
	o.discardStep()
	return true
}

func (o *Orchestrator) beginPlayerTurn() {
	o.turn++
	o.setPhase(PlayerDrawing)
	o.player.stats.ResetBlockForNewTurn()
	o.player.resetMana()
	o.publishMana()
	for _, e := range o.Enemies() {
		e.ChooseIntent(o.turn)
	}
	o.drawStep(o.player.cardsPerTurn)
}

// drawStep draws one card then waits DrawInterval; the hand is complete one
// interval after the last draw.
func (o *Orchestrator) drawStep(remaining int) {
	if o.phase != PlayerDrawing {
		return
	}
	if remaining <= 0 {
		o.bus.Publish(event.Event{Kind: event.KindHandDrawn, Amount: o.hand.Len()})
		o.setPhase(PlayerActing)
		return
	}
	o.drawCard()
	o.after(o.pacing.DrawInterval, func() { o.drawStep(remaining - 1) })
}

// drawCard moves the top card of the draw pile into the hand, first
// reshuffling the discard pile into an empty draw pile.
//
// Postcondition: Returns false when both piles were empty.
func (o *Orchestrator) drawCard() bool {
	p := o.player
	if p.draw.Empty() {
		if p.discard.Empty() {
			o.logger.Debug("draw skipped: draw and discard piles empty")
			return false
		}
		p.draw.AddAll(p.discard.TakeAll())
		p.draw.Shuffle(o.src)
		o.bus.Publish(event.Event{Kind: event.KindPileReshuffled, Detail: PileDraw, Amount: p.draw.Len()})
	}
	c, _ := p.draw.Draw()
	s := interaction.New(c, o.cards, o, o.sched, o.bus, o.logger)
	o.hand.Add(s)
	o.bus.Publish(event.Event{Kind: event.KindCardDrawn, Source: s.ID(), Card: c.ID})
	return true
}

func (o *Orchestrator) discardStep() {
	if o.phase != PlayerDiscarding {
		return
	}
	s, ok := o.hand.PopFront()
	if !ok {
		o.bus.Publish(event.Event{Kind: event.KindHandDiscarded})
		o.startEnemyPhase()
		return
	}
	s.Close()
	o.player.discard.Add(s.Card())
	o.bus.Publish(event.Event{Kind: event.KindCardDiscarded, Source: s.ID(), Card: s.Card().ID})
	o.after(o.pacing.DiscardInterval, o.discardStep)
}

func (o *Orchestrator) startEnemyPhase() {
	o.setPhase(EnemyActing)
	o.order = o.roster.Enemies()
	o.next = 0
	o.advanceEnemy()
}

// advanceEnemy starts the next living enemy's action. Enemies without an
// action are skipped; after the last one the next player turn begins.
func (o *Orchestrator) advanceEnemy() {
	for o.next < len(o.order) {
		if o.phase != EnemyActing {
			return
		}
		ref := o.order[o.next]
		o.next++
		e, alive := o.enemies[ref]
		if !alive {
			continue
		}
		o.current = e
		if e.Act(o.actionContext(), func() { o.enemyCompleted(e) }) {
			return
		}
		o.current = nil
		o.bus.Publish(event.Event{Kind: event.KindEnemyTurnSkipped, Source: string(ref)})
	}
	if o.phase != EnemyActing {
		return
	}
	o.current = nil
	o.bus.Publish(event.Event{Kind: event.KindEnemyTurnEnded, Amount: o.turn})
	o.beginPlayerTurn()
}

// enemyCompleted accepts a completion only from the enemy whose action is in
// progress.
func (o *Orchestrator) enemyCompleted(e *enemy.Enemy) {
	if o.phase == Resolved {
		o.ignore("enemy action completed")
		return
	}
	if o.phase != EnemyActing || e != o.current {
		o.logger.Debug("stale enemy completion ignored",
			zap.String("enemy", string(e.Ref())),
			zap.Stringer("phase", o.phase),
		)
		return
	}
	o.current = nil
	o.advanceEnemy()
}

func (o *Orchestrator) actionContext() enemy.ActionContext {
	return enemy.ActionContext{
		Player:    roster.PlayerRef,
		Effects:   o.effects,
		Scheduler: gate{o},
		Pacing:    o.pacing.Enemy,
	}
}

func (o *Orchestrator) enemyDied(e *enemy.Enemy) {
	ref := e.Ref()
	if _, ok := o.enemies[ref]; !ok {
		return
	}
	delete(o.enemies, ref)
	o.roster.Remove(ref)
	o.logger.Info("enemy died", zap.String("enemy", string(ref)))
	o.bus.Publish(event.Event{Kind: event.KindEnemyDied, Source: string(ref)})
	if o.roster.EnemyCount() == 0 {
		o.resolve(Win)
	}
}

// resolve ends the battle. Only the first outcome counts.
func (o *Orchestrator) resolve(out Outcome) {
	if o.phase == Resolved {
		return
	}
	o.outcome = out
	o.current = nil
	o.setPhase(Resolved)
	for _, s := range o.hand.Sessions() {
		s.Disable()
	}
	kind := event.KindBattleWon
	if out == Lose {
		kind = event.KindBattleLost
	}
	o.logger.Info("battle resolved",
		zap.Stringer("outcome", out),
		zap.Int("turn", o.turn),
	)
	o.bus.Publish(event.Event{Kind: kind, Detail: out.String(), Amount: o.turn})
}

func (o *Orchestrator) setPhase(p Phase) {
	o.phase = p
	o.logger.Info("phase changed",
		zap.Stringer("phase", p),
		zap.Int("turn", o.turn),
	)
	o.bus.Publish(event.Event{Kind: event.KindPhaseChanged, Phase: p.String(), Amount: o.turn})
}

// ignore drops a phase-mutating request that arrived in the wrong phase.
func (o *Orchestrator) ignore(what string) {
	o.logger.Debug("request ignored",
		zap.String("request", what),
		zap.Stringer("phase", o.phase),
	)
	if o.phase == Resolved {
		o.bus.Publish(event.Event{Kind: event.KindEventAfterResolution, Detail: what})
	}
}

func (o *Orchestrator) publishMana() {
	o.bus.Publish(event.Event{Kind: event.KindManaChanged, Source: string(roster.PlayerRef), Amount: o.player.mana})
}

func (o *Orchestrator) publishStats(ref roster.Ref, ch stats.Change) {
	o.bus.Publish(event.Event{
		Kind:   event.KindStatsChanged,
		Source: string(ref),
		Amount: ch.HealthAfter,
		Detail: "block=" + strconv.Itoa(ch.BlockAfter),
	})
}

func (o *Orchestrator) liveTargets(in roster.Set) roster.Set {
	var out roster.Set
	for _, ref := range in.Refs() {
		if _, ok := o.roster.Lookup(ref); ok {
			out.Add(ref)
		}
	}
	return out
}

func (o *Orchestrator) after(d time.Duration, fn func()) {
	gate{o}.After(d, fn)
}

// gate drops callbacks that fall due after the battle resolved.
type gate struct{ o *Orchestrator }

func (g gate) After(d time.Duration, fn func()) timer.Handle {
	return g.o.sched.After(d, func() {
		if g.o.phase == Resolved {
			g.o.ignore("timer")
			return
		}
		fn()
	})
}

// cardEffects returns c's effects with the card's sound filled in where an
// effect has none of its own.
func cardEffects(c *card.Card) []effect.Effect {
	out := make([]effect.Effect, len(c.Effects))
	for i, eff := range c.Effects {
		if eff.Sound == "" {
			eff.Sound = c.Sound
		}
		out[i] = eff
	}
	return out
}

func joinRefs(refs []roster.Ref) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}
