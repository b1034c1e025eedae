package battle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/deckbattle/internal/game/battle"
	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/character"
	"github.com/cory-johannsen/deckbattle/internal/game/dice"
	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/enemy"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/interaction"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/targeting"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

var (
	strike = &card.Card{ID: "strike", Name: "Strike", Type: card.TypeAttack, Target: targeting.Enemy, Cost: 1, Sound: "slash",
		Effects: []effect.Effect{{Kind: effect.Damage, Amount: 6}}}
	defend = &card.Card{ID: "defend", Name: "Defend", Type: card.TypeSkill, Target: targeting.Self, Cost: 1,
		Effects: []effect.Effect{{Kind: effect.Block, Amount: 5}}}
	cleave = &card.Card{ID: "cleave", Name: "Cleave", Type: card.TypeAttack, Target: targeting.AllEnemies, Cost: 1,
		Effects: []effect.Effect{{Kind: effect.Damage, Amount: 4}}}
)

const (
	wardenYAML = `
id: warden
name: Warden
max_health: 30
actions:
  - {id: guard, kind: chance_based, weight: 1, intent: {icon: block, number: 5}, behavior: {type: block, amount: 5}}
`
	dummyYAML = `
id: dummy
name: Dummy
max_health: 6
actions:
  - {id: guard, kind: chance_based, weight: 1, behavior: {type: block, amount: 5}}
`
	bruteYAML = `
id: brute
name: Brute
max_health: 40
actions:
  - {id: smash, kind: chance_based, weight: 1, sound: thud, behavior: {type: attack, amount: 60}}
`
	pincherYAML = `
id: pincher
name: Pincher
max_health: 30
actions:
  - {id: pinch, kind: chance_based, weight: 1, behavior: {type: attack, amount: 3}}
`
	batYAML = `
id: bat
name: Bat
max_health: 12
actions:
  - {id: double_bite, kind: chance_based, weight: 1, behavior: {type: attack, amount: 4, hits: 2}}
`
	idlerYAML = `
id: idler
name: Idler
max_health: 10
actions:
  - id: last_stand
    kind: conditional
    behavior: {type: block, amount: 1}
    condition: {type: health_at_or_below, threshold: 0}
`
	turtleYAML = `
id: turtle
name: Turtle
max_health: 30
actions:
  - id: shell
    kind: conditional
    behavior: {type: block, amount: 10}
    condition: {type: health_at_or_below, threshold: 30, once: true}
`
)

var (
	pacing = battle.Pacing{
		DrawInterval:    250 * time.Millisecond,
		DiscardInterval: 250 * time.Millisecond,
		Enemy:           enemy.Pacing{HitInterval: 350 * time.Millisecond, CompletionDelay: 600 * time.Millisecond},
	}
	cards = interaction.Config{
		MinDragDuration: 50 * time.Millisecond,
		AimAnchor:       interaction.Vec2{X: 512, Y: 100},
		SnapBackY:       138,
	}
	layout = battle.Layout{HandOrigin: interaction.Vec2{X: 256, Y: 520}, CardSpacing: 96}
)

type fixture struct {
	bus   *event.Bus
	rec   *event.Recorder
	clock *timer.Manual
	orch  *battle.Orchestrator
}

func deckOf(c *card.Card, n int) []*card.Card {
	deck := make([]*card.Card, n)
	for i := range deck {
		deck[i] = c
	}
	return deck
}

func newFixture(t require.TestingT, logger *zap.Logger, deck []*card.Card, enemyYAML ...string) *fixture {
	f := &fixture{bus: event.NewBus(), rec: &event.Recorder{}, clock: timer.NewManual()}
	f.rec.Attach(f.bus)
	src := dice.NewSeededSource(1)

	enemies := make([]*enemy.Enemy, 0, len(enemyYAML))
	for _, y := range enemyYAML {
		tmpl, err := enemy.LoadTemplateFromBytes([]byte(y))
		require.NoError(t, err)
		enemies = append(enemies, enemy.Spawn(tmpl, enemy.Deps{Bus: f.bus, Src: src, Logger: logger}))
	}
	tmpl := &character.Template{ID: "warrior", Name: "Warrior", MaxHealth: 50, MaxMana: 3, CardsPerTurn: 5}
	f.orch = battle.NewOrchestrator(battle.Params{
		Bus:       f.bus,
		Player:    battle.NewPlayer(tmpl, deck),
		Enemies:   enemies,
		Scheduler: f.clock,
		Src:       src,
		Pacing:    pacing,
		Cards:     cards,
		Layout:    layout,
		Logger:    logger,
	})
	return f
}

// startTurn starts the battle and runs every draw step.
func (f *fixture) startTurn() {
	f.orch.Start()
	f.clock.RunUntilIdle(1000)
}

// nextTurn ends the player turn and runs the discard and enemy phases.
func (f *fixture) nextTurn() bool {
	ok := f.orch.EndTurn()
	f.clock.RunUntilIdle(1000)
	return ok
}

// play drives s through pointer input the way a player would.
func (f *fixture) play(s *interaction.Session, target roster.Ref) {
	pos := s.Position()
	s.Handle(interaction.Down(interaction.Primary, pos))
	s.Handle(interaction.Move(interaction.Vec2{X: pos.X, Y: pos.Y - 40}))
	if s.Card().IsSingleTargeted() {
		aim := interaction.Vec2{X: pos.X, Y: 90}
		s.Handle(interaction.Entered(target))
		s.Handle(interaction.Move(aim))
		s.Handle(interaction.Down(interaction.Primary, aim))
		return
	}
	s.Handle(interaction.Entered(roster.DropZone))
	f.clock.Advance(cards.MinDragDuration)
	s.Handle(interaction.Up(interaction.Primary, pos))
}

func (f *fixture) first(id string) *interaction.Session {
	for _, s := range f.orch.Hand().Sessions() {
		if s.Card().ID == id {
			return s
		}
	}
	return nil
}

func (f *fixture) phases() []string {
	var out []string
	for _, e := range f.rec.OfKind(event.KindPhaseChanged) {
		out = append(out, e.Phase)
	}
	return out
}

func TestNewOrchestrator_PanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() { battle.NewOrchestrator(battle.Params{}) })
}

func TestOrchestrator_StartDrawsPacedHand(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 8), wardenYAML)
	f.orch.Start()

	assert.Equal(t, battle.PlayerDrawing, f.orch.Phase())
	assert.Equal(t, 1, f.orch.Turn())
	assert.Equal(t, 1, f.orch.Hand().Len(), "first card is drawn immediately")

	f.clock.Advance(749 * time.Millisecond)
	assert.Equal(t, 3, f.orch.Hand().Len())

	f.clock.Advance(251 * time.Millisecond)
	assert.Equal(t, 5, f.orch.Hand().Len())
	assert.Equal(t, battle.PlayerDrawing, f.orch.Phase(), "hand completes one interval after the last draw")

	f.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, battle.PlayerActing, f.orch.Phase())
	assert.Equal(t, 3, f.orch.Player().DrawPile().Len())
	assert.Equal(t, 5, f.rec.Count(event.KindCardDrawn))
	require.Equal(t, 1, f.rec.Count(event.KindHandDrawn))
	assert.Equal(t, 5, f.rec.OfKind(event.KindHandDrawn)[0].Amount)
	assert.Equal(t, []string{"player_drawing", "player_acting"}, f.phases())

	f.orch.Start()
	assert.Equal(t, 1, f.orch.Turn(), "second Start is a no-op")
}

func TestOrchestrator_HandLayout(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5), wardenYAML)
	f.startTurn()

	for i, s := range f.orch.Hand().Sessions() {
		assert.Equal(t, interaction.Vec2{X: 256 + float64(i)*96, Y: 520}, s.Position())
	}
	f.play(f.orch.Hand().Sessions()[0], f.orch.Enemies()[0].Ref())
	require.Equal(t, 4, f.orch.Hand().Len())
	assert.Equal(t, interaction.Vec2{X: 256, Y: 520}, f.orch.Hand().Sessions()[0].Position(), "hand closes the gap")
}

func TestOrchestrator_StartWithoutEnemiesWins(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5))
	f.orch.Start()
	assert.Equal(t, battle.Resolved, f.orch.Phase())
	assert.Equal(t, battle.Win, f.orch.Outcome())
	assert.Equal(t, 1, f.rec.Count(event.KindBattleWon))
}

func TestOrchestrator_StrikeSpendsManaAndDamages(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5), wardenYAML)
	f.startTurn()
	warden := f.orch.Enemies()[0]

	f.play(f.first("strike"), warden.Ref())

	assert.Equal(t, 24, warden.Stats().Health())
	assert.Equal(t, 2, f.orch.Player().Mana())
	assert.Equal(t, 4, f.orch.Hand().Len())
	assert.Equal(t, 1, f.orch.Player().DiscardPile().Len())
	played := f.rec.OfKind(event.KindCardPlayed)
	require.Len(t, played, 1)
	assert.Equal(t, "strike", played[0].Card)
	assert.Equal(t, string(warden.Ref()), played[0].Detail)
	applied := f.rec.OfKind(event.KindEffectApplied)
	require.Len(t, applied, 1)
	assert.Equal(t, "slash", applied[0].Sound, "card sound fills in for the effect")
}

func TestOrchestrator_InsufficientManaBlocksPlay(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5), wardenYAML)
	f.startTurn()
	warden := f.orch.Enemies()[0]

	for i := 0; i < 3; i++ {
		f.play(f.first("strike"), warden.Ref())
	}
	require.Equal(t, 0, f.orch.Player().Mana())
	require.Equal(t, 12, warden.Stats().Health())

	s := f.first("strike")
	assert.False(t, f.orch.Playable(s))
	s.Handle(interaction.Down(interaction.Primary, s.Position()))
	assert.Equal(t, interaction.Idle, s.State())
	assert.Equal(t, 2, f.orch.Hand().Len())
	assert.Equal(t, 3, f.rec.Count(event.KindCardPlayed))
}

func TestOrchestrator_DefendBlocksThenResetsNextTurn(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 5), pincherYAML)
	f.startTurn()
	p := f.orch.Player()

	f.play(f.first("defend"), roster.PlayerRef)
	require.Equal(t, 5, p.Stats().Block())

	require.True(t, f.nextTurn())
	assert.Equal(t, 50, p.Stats().Health(), "block absorbed the pinch")
	assert.Equal(t, 0, p.Stats().Block(), "block resets at the start of the player turn")
	var sawAbsorb bool
	for _, e := range f.rec.OfKind(event.KindStatsChanged) {
		if e.Source == string(roster.PlayerRef) && e.Detail == "block=2" {
			sawAbsorb = true
		}
	}
	assert.True(t, sawAbsorb)
	assert.Equal(t, 3, p.Mana(), "mana refills")
}

func TestOrchestrator_CleaveHitsEveryEnemy(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(cleave, 5), wardenYAML, wardenYAML)
	f.startTurn()

	f.play(f.first("cleave"), "")

	for _, e := range f.orch.Enemies() {
		assert.Equal(t, 26, e.Stats().Health())
	}
	assert.Equal(t, 2, f.rec.Count(event.KindEffectApplied))
}

func TestOrchestrator_ReshufflesDiscardWhenDrawEmpty(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 5), wardenYAML)
	f.startTurn()
	p := f.orch.Player()
	require.Equal(t, 0, p.DrawPile().Len())

	require.True(t, f.orch.EndTurn())
	f.clock.Advance(1850 * time.Millisecond)

	assert.Equal(t, battle.PlayerDrawing, f.orch.Phase())
	assert.Equal(t, 4, p.DrawPile().Len())
	assert.Equal(t, 0, p.DiscardPile().Len())
	assert.Equal(t, 1, f.orch.Hand().Len())
	reshuffles := f.rec.OfKind(event.KindPileReshuffled)
	require.Len(t, reshuffles, 1)
	assert.Equal(t, 5, reshuffles[0].Amount)
}

func TestOrchestrator_DiscardIsPaced(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), wardenYAML)
	f.startTurn()

	require.True(t, f.orch.EndTurn())
	assert.Equal(t, battle.PlayerDiscarding, f.orch.Phase())
	assert.Equal(t, 4, f.orch.Hand().Len())
	for _, s := range f.orch.Hand().Sessions() {
		assert.True(t, s.Disabled())
	}

	f.clock.Advance(1000 * time.Millisecond)
	assert.Equal(t, 0, f.orch.Hand().Len())
	assert.Equal(t, battle.PlayerDiscarding, f.orch.Phase())

	f.clock.Advance(250 * time.Millisecond)
	assert.Equal(t, battle.EnemyActing, f.orch.Phase())
	assert.Equal(t, 1, f.rec.Count(event.KindHandDiscarded))
	assert.Equal(t, 5, f.rec.Count(event.KindCardDiscarded))

	assert.False(t, f.orch.EndTurn(), "end turn outside the acting phase is ignored")
}

func TestOrchestrator_ThreeEnemiesAdvanceOnce(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), wardenYAML, wardenYAML, wardenYAML)
	f.startTurn()

	require.True(t, f.nextTurn())

	assert.Equal(t, 3, f.rec.Count(event.KindEnemyActionStarted))
	assert.Equal(t, 3, f.rec.Count(event.KindEnemyActionCompleted))
	assert.Equal(t, 1, f.rec.Count(event.KindEnemyTurnEnded))
	assert.Equal(t, 2, f.orch.Turn())
	assert.Equal(t, []string{
		"player_drawing", "player_acting", "player_discarding", "enemy_acting",
		"player_drawing", "player_acting",
	}, f.phases())
	for _, e := range f.orch.Enemies() {
		assert.Equal(t, 5, e.Stats().Block())
	}
}

func TestOrchestrator_EnemiesActInRosterOrder(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), wardenYAML, pincherYAML)
	f.startTurn()
	want := []string{string(f.orch.Enemies()[0].Ref()), string(f.orch.Enemies()[1].Ref())}

	f.nextTurn()

	var got []string
	for _, e := range f.rec.OfKind(event.KindEnemyActionStarted) {
		got = append(got, e.Source)
	}
	assert.Equal(t, want, got)
}

func TestOrchestrator_MultiHitAttackIsPaced(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), batYAML)
	f.startTurn()

	require.True(t, f.orch.EndTurn())
	f.clock.Advance(1250 * time.Millisecond)
	assert.Equal(t, 46, f.orch.Player().Stats().Health())

	f.clock.Advance(350 * time.Millisecond)
	assert.Equal(t, 42, f.orch.Player().Stats().Health())
	assert.Equal(t, battle.EnemyActing, f.orch.Phase())

	f.clock.Advance(600 * time.Millisecond)
	assert.Equal(t, battle.PlayerDrawing, f.orch.Phase())
}

func TestOrchestrator_EnemyWithoutActionIsSkipped(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), idlerYAML, wardenYAML)
	f.startTurn()
	idler := f.orch.Enemies()[0]
	assert.Nil(t, idler.CurrentAction())
	assert.GreaterOrEqual(t, f.rec.Count(event.KindSelectionFailed), 1)

	f.nextTurn()

	skipped := f.rec.OfKind(event.KindEnemyTurnSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, string(idler.Ref()), skipped[0].Source)
	assert.Equal(t, 1, f.rec.Count(event.KindEnemyActionStarted))
	assert.Equal(t, 2, f.orch.Turn())
}

func TestOrchestrator_SkippedEnemyStillLosesBlock(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), turtleYAML)
	f.startTurn()
	turtle := f.orch.Enemies()[0]

	f.nextTurn()
	require.Equal(t, 10, turtle.Stats().Block(), "shell performed on the first enemy turn")
	assert.Nil(t, turtle.CurrentAction(), "shell is spent")

	f.nextTurn()
	require.Len(t, f.rec.OfKind(event.KindEnemyTurnSkipped), 1)
	assert.Zero(t, turtle.Stats().Block(), "a skipped turn is still the enemy's own turn")

	f.nextTurn()
	assert.Len(t, f.rec.OfKind(event.KindEnemyTurnSkipped), 2)
	assert.Zero(t, turtle.Stats().Block())
}

func TestOrchestrator_IntentsChosenEveryTurn(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), wardenYAML, pincherYAML)
	f.startTurn()
	assert.Equal(t, 2, f.rec.Count(event.KindIntentChanged))

	f.nextTurn()
	assert.Equal(t, 4, f.rec.Count(event.KindIntentChanged))
	for _, e := range f.orch.Enemies() {
		assert.NotNil(t, e.CurrentAction())
	}
}

func TestOrchestrator_DeadEnemyLeavesRosterAndDoesNotAct(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5), dummyYAML, wardenYAML)
	f.startTurn()
	dummy, warden := f.orch.Enemies()[0], f.orch.Enemies()[1]

	f.play(f.first("strike"), dummy.Ref())

	assert.True(t, dummy.Stats().IsDead())
	assert.Equal(t, 1, f.orch.Roster().EnemyCount())
	died := f.rec.OfKind(event.KindEnemyDied)
	require.Len(t, died, 1)
	assert.Equal(t, string(dummy.Ref()), died[0].Source)
	assert.Equal(t, battle.PlayerActing, f.orch.Phase())

	f.nextTurn()
	started := f.rec.OfKind(event.KindEnemyActionStarted)
	require.Len(t, started, 1)
	assert.Equal(t, string(warden.Ref()), started[0].Source)
}

func TestOrchestrator_CommitDropsTargetsThatLeftTheBattle(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(strike, 5), dummyYAML, wardenYAML)
	f.startTurn()
	dummy := f.orch.Enemies()[0]
	hand := f.orch.Hand().Sessions()
	late, killer := hand[0], hand[1]

	pos := late.Position()
	late.Handle(interaction.Down(interaction.Primary, pos))
	late.Handle(interaction.Move(interaction.Vec2{X: pos.X, Y: 300}))
	late.Handle(interaction.Entered(dummy.Ref()))
	late.Handle(interaction.Move(interaction.Vec2{X: pos.X, Y: 90}))
	require.Equal(t, interaction.Aiming, late.State())

	f.play(killer, dummy.Ref())
	require.True(t, dummy.Stats().IsDead())

	late.Handle(interaction.Down(interaction.Primary, interaction.Vec2{X: pos.X, Y: 90}))
	assert.Equal(t, interaction.Released, late.State())
	assert.False(t, late.Played())
	assert.Equal(t, 2, f.orch.Player().Mana(), "refused play costs nothing")

	late.Handle(interaction.Move(pos))
	assert.Equal(t, interaction.Idle, late.State())
}

func TestOrchestrator_WinIgnoresLaterRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newFixture(t, zap.New(core), deckOf(strike, 5), dummyYAML)
	f.startTurn()

	f.play(f.first("strike"), f.orch.Enemies()[0].Ref())

	assert.Equal(t, battle.Resolved, f.orch.Phase())
	assert.Equal(t, battle.Win, f.orch.Outcome())
	require.Equal(t, 1, f.rec.Count(event.KindBattleWon))
	assert.Less(t, f.rec.OfKind(event.KindEffectApplied)[0].Seq, f.rec.OfKind(event.KindBattleWon)[0].Seq)
	for _, s := range f.orch.Hand().Sessions() {
		assert.True(t, s.Disabled())
	}
	assert.Equal(t, 1, logs.FilterMessage("battle resolved").Len())

	assert.False(t, f.orch.EndTurn())
	after := f.rec.OfKind(event.KindEventAfterResolution)
	require.Len(t, after, 1)
	assert.Equal(t, "end turn", after[0].Detail)
	assert.Equal(t, 1, f.rec.Count(event.KindBattleWon), "outcome is published once")
}

func TestOrchestrator_ResolutionHaltsRemainingEffects(t *testing.T) {
	nova := &card.Card{ID: "nova", Name: "Nova", Type: card.TypeAttack, Target: targeting.All, Cost: 1,
		Effects: []effect.Effect{{Kind: effect.Damage, Amount: 60}, {Kind: effect.Block, Amount: 5}}}
	f := newFixture(t, zap.NewNop(), deckOf(nova, 5), wardenYAML)
	f.startTurn()
	warden := f.orch.Enemies()[0]

	f.play(f.first("nova"), "")

	require.Equal(t, battle.Lose, f.orch.Outcome())
	assert.Equal(t, 30, warden.Stats().Health(), "the player fell first; the warden is never hit")
	assert.Zero(t, f.orch.Player().Stats().Block())
	applied := f.rec.OfKind(event.KindEffectApplied)
	require.Len(t, applied, 1)
	assert.Equal(t, string(roster.PlayerRef), applied[0].Target)
	lost := f.rec.OfKind(event.KindBattleLost)
	require.Len(t, lost, 1)
	assert.Less(t, applied[0].Seq, lost[0].Seq, "the landing is journaled before the outcome")
}

func TestOrchestrator_LoseDropsPendingTimers(t *testing.T) {
	f := newFixture(t, zap.NewNop(), deckOf(defend, 10), bruteYAML, wardenYAML)
	f.startTurn()

	f.nextTurn()

	assert.Equal(t, battle.Resolved, f.orch.Phase())
	assert.Equal(t, battle.Lose, f.orch.Outcome())
	assert.Equal(t, 1, f.rec.Count(event.KindBattleLost))
	assert.Equal(t, 0, f.rec.Count(event.KindEnemyActionCompleted), "completion after resolution is dropped")
	assert.Equal(t, 1, f.rec.Count(event.KindEnemyActionStarted), "later enemies never act")
	after := f.rec.OfKind(event.KindEventAfterResolution)
	require.Len(t, after, 1)
	assert.Equal(t, "timer", after[0].Detail)
	assert.Equal(t, 0, f.clock.Pending())
}

func TestOrchestrator_PhaseOrderProperty(t *testing.T) {
	legal := map[string]string{
		"player_drawing":    "player_acting",
		"player_acting":     "player_discarding",
		"player_discarding": "enemy_acting",
		"enemy_acting":      "player_drawing",
	}
	deck := append(append(deckOf(strike, 4), deckOf(defend, 4)...), deckOf(cleave, 2)...)

	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt, zap.NewNop(), deck, wardenYAML, pincherYAML, batYAML)
		f.startTurn()

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps && f.orch.Phase() != battle.Resolved; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				f.orch.EndTurn()
			case 1:
				hand := f.orch.Hand().Sessions()
				enemies := f.orch.Enemies()
				if len(hand) == 0 || len(enemies) == 0 {
					continue
				}
				s := hand[rapid.IntRange(0, len(hand)-1).Draw(rt, "card")]
				target := roster.PlayerRef
				if s.Card().Target == targeting.Enemy {
					target = enemies[rapid.IntRange(0, len(enemies)-1).Draw(rt, "target")].Ref()
				}
				f.play(s, target)
			case 2:
				f.clock.Advance(time.Duration(rapid.IntRange(0, 2000).Draw(rt, "ms")) * time.Millisecond)
			}
		}

		phases := f.phases()
		if len(phases) == 0 || phases[0] != "player_drawing" {
			rt.Fatalf("first phase %v", phases)
		}
		for i := 1; i < len(phases); i++ {
			prev, next := phases[i-1], phases[i]
			if prev == "resolved" {
				rt.Fatalf("phase %q after resolution", next)
			}
			if next != "resolved" && legal[prev] != next {
				rt.Fatalf("illegal transition %q -> %q", prev, next)
			}
		}

		p := f.orch.Player()
		total := p.DrawPile().Len() + p.DiscardPile().Len() + p.RemovedPile().Len() + f.orch.Hand().Len()
		if total != len(deck) {
			rt.Fatalf("cards not conserved: %d of %d", total, len(deck))
		}
		if p.Mana() < 0 || p.Mana() > p.MaxMana() {
			rt.Fatalf("mana %d out of range", p.Mana())
		}
	})
}
