package interaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/effect"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/interaction"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/targeting"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

type host struct {
	playable bool
	refuse   bool
	commits  []roster.Set
}

func (h *host) Playable(*interaction.Session) bool { return h.playable }

func (h *host) Commit(s *interaction.Session) bool {
	if h.refuse {
		return false
	}
	h.commits = append(h.commits, s.Targets())
	return true
}

var (
	strike = &card.Card{ID: "strike", Name: "Strike", Type: card.TypeAttack, Target: targeting.Enemy, Cost: 1,
		Effects: []effect.Effect{{Kind: effect.Damage, Amount: 6}}}
	cleave = &card.Card{ID: "cleave", Name: "Cleave", Type: card.TypeAttack, Target: targeting.AllEnemies, Cost: 1,
		Effects: []effect.Effect{{Kind: effect.Damage, Amount: 4}}}
)

var cfg = interaction.Config{
	MinDragDuration: 50 * time.Millisecond,
	AimAnchor:       interaction.Vec2{X: 512, Y: 100},
	SnapBackY:       138,
}

type fixture struct {
	h     *host
	clock *timer.Manual
	bus   *event.Bus
	rec   *event.Recorder
	s     *interaction.Session
}

func newFixture(c *card.Card, logger *zap.Logger) *fixture {
	f := &fixture{h: &host{playable: true}, clock: timer.NewManual(), bus: event.NewBus(), rec: &event.Recorder{}}
	f.rec.Attach(f.bus)
	f.s = interaction.New(c, cfg, f.h, f.clock, f.bus, logger)
	f.s.SetHome(interaction.Vec2{X: 400, Y: 500})
	return f
}

// pickUp clicks the card and drags it past the minimum drag duration.
func (f *fixture) pickUp(t *testing.T) {
	t.Helper()
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{X: 410, Y: 520}))
	require.Equal(t, interaction.Selected, f.s.State())
	f.s.Handle(interaction.Move(interaction.Vec2{X: 420, Y: 480}))
	require.Equal(t, interaction.Dragging, f.s.State())
	f.clock.Advance(cfg.MinDragDuration)
}

func TestNew_StartsIdle(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	assert.Equal(t, interaction.Idle, f.s.State())
	assert.NotEmpty(t, f.s.ID())
	assert.Equal(t, interaction.Vec2{X: 400, Y: 500}, f.s.Position())
}

func TestNew_PanicsOnNilDeps(t *testing.T) {
	assert.Panics(t, func() {
		interaction.New(strike, cfg, nil, timer.NewManual(), event.NewBus(), zap.NewNop())
	})
}

func TestIdle_ClickCapturesPivot(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{X: 410, Y: 520}))
	assert.Equal(t, interaction.Selected, f.s.State())
	assert.Equal(t, interaction.Vec2{X: 10, Y: 20}, f.s.Pivot())
	assert.True(t, f.s.Detecting())
}

func TestIdle_UnplayableOrDisabledIgnoresClick(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.h.playable = false
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())

	f.h.playable = true
	f.s.Disable()
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())

	f.s.Enable()
	f.s.Handle(interaction.Down(interaction.Secondary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())
}

func TestIdle_HoverDoesNotChangeState(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.s.Handle(interaction.Input{Kind: interaction.PointerEnter})
	f.s.Handle(interaction.Input{Kind: interaction.PointerExit})
	assert.Equal(t, interaction.Idle, f.s.State())
	hovers := f.rec.OfKind(event.KindCardHover)
	require.Len(t, hovers, 2)
	assert.Equal(t, "enter", hovers[0].Detail)
	assert.Equal(t, "exit", hovers[1].Detail)
}

func TestDragging_FollowsPointer(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Move(interaction.Vec2{X: 300, Y: 300}))
	assert.Equal(t, interaction.Vec2{X: 290, Y: 280}, f.s.Position())
}

func TestDragging_ConfirmNeedsMinimumDuration(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{X: 410, Y: 520}))
	f.s.Handle(interaction.Move(interaction.Vec2{X: 420, Y: 480}))
	f.s.Handle(interaction.Entered(roster.DropZone))

	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Dragging, f.s.State(), "a fast click-release is not a confirm")

	f.clock.Advance(cfg.MinDragDuration - time.Millisecond)
	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Dragging, f.s.State())

	f.clock.Advance(time.Millisecond)
	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Released, f.s.State())
	require.Len(t, f.h.commits, 1)
	assert.Equal(t, []roster.Ref{roster.DropZone}, f.h.commits[0].Refs())
}

func TestDragging_CancelReturnsToHand(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Entered(roster.DropZone))
	f.s.Handle(interaction.Move(interaction.Vec2{X: 10, Y: 10}))
	f.s.Handle(interaction.Down(interaction.Secondary, interaction.Vec2{}))

	assert.Equal(t, interaction.Idle, f.s.State())
	assert.True(t, f.s.Targets().Empty())
	assert.Equal(t, interaction.Vec2{}, f.s.Pivot())
	assert.Equal(t, interaction.Vec2{X: 400, Y: 500}, f.s.Position())
	reparents := f.rec.OfKind(event.KindCardReparented)
	assert.Equal(t, "hand", reparents[len(reparents)-1].Detail)
}

func TestDragTimer_StaleAfterCancel(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	f.s.Handle(interaction.Move(interaction.Vec2{}))
	f.s.Handle(interaction.Down(interaction.Secondary, interaction.Vec2{}))

	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	f.s.Handle(interaction.Move(interaction.Vec2{}))
	f.clock.Advance(cfg.MinDragDuration - time.Millisecond)
	f.s.Handle(interaction.Entered(roster.DropZone))
	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Dragging, f.s.State(), "first drag's timer must not arm the second drag")
}

func TestSingleTarget_AimsThenCommits(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Entered(roster.DropZone))
	assert.True(t, f.s.Targets().Empty(), "single-target cards ignore the drop zone")

	f.s.Handle(interaction.Entered("crab-1"))
	f.s.Handle(interaction.Move(interaction.Vec2{X: 600, Y: 90}))
	require.Equal(t, interaction.Aiming, f.s.State())
	assert.Equal(t, cfg.AimAnchor, f.s.Position())

	f.s.Handle(interaction.Move(interaction.Vec2{X: 610, Y: 80}))
	assert.Equal(t, interaction.Aiming, f.s.State())
	assert.Equal(t, 1, f.rec.Count(event.KindCardAimed))

	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{X: 610, Y: 80}))
	assert.Equal(t, interaction.Released, f.s.State())
	assert.True(t, f.s.Played())
	require.Len(t, f.h.commits, 1)
	assert.Equal(t, []roster.Ref{"crab-1"}, f.h.commits[0].Refs())
}

func TestAiming_SnapBackCancels(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Entered("crab-1"))
	f.s.Handle(interaction.Move(interaction.Vec2{X: 600, Y: 90}))
	require.Equal(t, interaction.Aiming, f.s.State())

	f.s.Handle(interaction.Move(interaction.Vec2{X: 600, Y: 139}))
	assert.Equal(t, interaction.Idle, f.s.State())
	assert.Empty(t, f.h.commits)
}

func TestAiming_SecondaryCancels(t *testing.T) {
	f := newFixture(strike, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Entered("crab-1"))
	f.s.Handle(interaction.Move(interaction.Vec2{X: 600, Y: 90}))
	f.s.Handle(interaction.Down(interaction.Secondary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())
}

func TestReleased_EmptyTargetsRetries(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	require.Equal(t, interaction.Released, f.s.State())
	assert.False(t, f.s.Played())
	assert.Empty(t, f.h.commits)

	f.s.Handle(interaction.Move(interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())

	f.pickUp(t)
	f.s.Handle(interaction.Entered(roster.DropZone))
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	assert.True(t, f.s.Played())
	assert.Len(t, f.h.commits, 1)
}

func TestReleased_CollisionAlsoRetries(t *testing.T) {
	for _, in := range []interaction.Input{interaction.Entered(roster.DropZone), interaction.Exited(roster.DropZone)} {
		f := newFixture(cleave, zap.NewNop())
		f.pickUp(t)
		f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
		require.Equal(t, interaction.Released, f.s.State())

		f.s.Handle(in)
		assert.Equal(t, interaction.Idle, f.s.State(), "kind %d", in.Kind)
		assert.False(t, f.s.Played())
		assert.Empty(t, f.h.commits)
	}
}

func TestReleased_RefusedCommitIsAFailedAttempt(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.h.refuse = true
	f.pickUp(t)
	f.s.Handle(interaction.Entered(roster.DropZone))
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	require.Equal(t, interaction.Released, f.s.State())
	assert.False(t, f.s.Played())
	f.s.Handle(interaction.Up(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())
}

func TestRequestTransition_StaleFromIsIgnored(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(strike, zap.New(core))
	assert.False(t, f.s.RequestTransition(interaction.Dragging, interaction.Released))
	assert.Equal(t, interaction.Idle, f.s.State())
	assert.Equal(t, 1, f.rec.Count(event.KindTransitionIgnored))
	assert.Equal(t, 1, logs.FilterMessage("card transition ignored").Len())

	assert.False(t, f.s.RequestTransition(interaction.Idle, interaction.State(99)))
	assert.True(t, f.s.RequestTransition(interaction.Idle, interaction.Selected))
}

func TestDisable_CancelsInteractionInProgress(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.pickUp(t)
	f.s.Disable()
	assert.Equal(t, interaction.Idle, f.s.State())
	assert.True(t, f.s.Disabled())
}

func TestClose_IgnoresFurtherInput(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.s.Close()
	f.s.Handle(interaction.Down(interaction.Primary, interaction.Vec2{}))
	assert.Equal(t, interaction.Idle, f.s.State())
	assert.Zero(t, f.clock.Pending())
}

func TestStateEvents_EnterAndExitPaired(t *testing.T) {
	f := newFixture(cleave, zap.NewNop())
	f.pickUp(t)
	f.s.Handle(interaction.Down(interaction.Secondary, interaction.Vec2{}))
	enters := f.rec.OfKind(event.KindCardStateEnter)
	exits := f.rec.OfKind(event.KindCardStateExit)
	require.Len(t, enters, 4)
	require.Len(t, exits, 3)
	assert.Equal(t, []string{"idle", "selected", "dragging", "idle"},
		[]string{enters[0].State, enters[1].State, enters[2].State, enters[3].State})
}

// Property: whatever input arrives, a committed session commits exactly once and
// no longer changes state.
func TestSession_CommitsAtMostOnceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(strike, zap.NewNop())
		steps := rapid.SliceOfN(rapid.IntRange(0, 7), 1, 60).Draw(rt, "steps")
		for i, st := range steps {
			pos := interaction.Vec2{X: float64(i * 10), Y: float64(rapid.IntRange(0, 300).Draw(rt, "y"))}
			switch st {
			case 0:
				f.s.Handle(interaction.Down(interaction.Primary, pos))
			case 1:
				f.s.Handle(interaction.Up(interaction.Primary, pos))
			case 2:
				f.s.Handle(interaction.Down(interaction.Secondary, pos))
			case 3, 4:
				f.s.Handle(interaction.Move(pos))
			case 5:
				f.s.Handle(interaction.Entered("crab-1"))
			case 6:
				f.s.Handle(interaction.Exited("crab-1"))
			case 7:
				f.clock.Advance(cfg.MinDragDuration)
			}
			if f.s.Played() {
				assert.Equal(rt, interaction.Released, f.s.State())
			}
		}
		assert.LessOrEqual(rt, len(f.h.commits), 1)
		for _, c := range f.h.commits {
			assert.Equal(rt, 1, c.Len())
		}
	})
}
