// Package interaction turns raw pointer input on a hand card into a committed
// play with a captured target set.
package interaction

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/card"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/roster"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

// Config holds the tunables shared by every session of a battle.
type Config struct {
	// MinDragDuration must elapse in Dragging before a confirm is accepted.
	MinDragDuration time.Duration
	// AimAnchor is where a single-targeted card parks while aiming.
	AimAnchor Vec2
	// SnapBackY cancels aiming when the pointer's Y exceeds it.
	SnapBackY float64
}

// Host is the battle side of a session.
type Host interface {
	// Playable reports whether the card may be picked up right now.
	Playable(s *Session) bool
	// Commit plays the card against s.Targets(). It returns false when the
	// play was refused, which the session treats as a failed attempt.
	Commit(s *Session) bool
}

// Session is the interaction state of one card in the hand.
//
// Not safe for concurrent use; the battle loop serializes access.
type Session struct {
	id     string
	card   *card.Card
	cfg    Config
	host   Host
	sched  timer.Scheduler
	bus    *event.Bus
	logger *zap.Logger

	state     State
	home      Vec2
	position  Vec2
	pivot     Vec2
	targets   roster.Set
	detecting bool
	disabled  bool
	played    bool
	closed    bool

	dragReady  bool
	dragGen    int
	dragHandle timer.Handle
}

// New creates a session for c in the Idle state.
//
// Precondition: c, host, sched, bus and logger must not be nil.
// Postcondition: State() == Idle and a card_state_entered event was published.
func New(c *card.Card, cfg Config, host Host, sched timer.Scheduler, bus *event.Bus, logger *zap.Logger) *Session {
	if c == nil || host == nil || sched == nil || bus == nil || logger == nil {
		panic("interaction.New: card, host, scheduler, bus and logger must not be nil")
	}
	s := &Session{
		id:     uuid.New().String(),
		card:   c,
		cfg:    cfg,
		host:   host,
		sched:  sched,
		bus:    bus,
		logger: logger.With(zap.String("card", c.ID)),
	}
	s.enter(Idle)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Card returns the card template this session wraps.
func (s *Session) Card() *card.Card { return s.card }

// State returns the live state.
func (s *Session) State() State { return s.state }

// Position returns the card's global position.
func (s *Session) Position() Vec2 { return s.position }

// Pivot returns the grab offset captured on selection.
func (s *Session) Pivot() Vec2 { return s.pivot }

// Targets returns a copy of the acquired target set.
func (s *Session) Targets() roster.Set { return roster.NewSet(s.targets.Refs()...) }

// Detecting reports whether target collisions are being recorded.
func (s *Session) Detecting() bool { return s.detecting }

// Played reports whether the session committed its card.
func (s *Session) Played() bool { return s.played }

// Disabled reports whether the session refuses new interactions.
func (s *Session) Disabled() bool { return s.disabled }

// SetHome sets the card's resting position inside the hand layout. An Idle
// card moves there immediately.
func (s *Session) SetHome(p Vec2) {
	s.home = p
	if s.state == Idle {
		s.moveTo(p)
	}
}

// Disable stops the session from starting new interactions and cancels any
// interaction in progress. A committed session is left alone.
func (s *Session) Disable() {
	s.disabled = true
	switch s.state {
	case Selected, Dragging, Aiming:
		s.RequestTransition(s.state, Idle)
	}
}

// Enable lets an Idle session be picked up again.
func (s *Session) Enable() { s.disabled = false }

// Close releases the session's timer. Input after Close is ignored.
func (s *Session) Close() {
	s.cancelDragTimer()
	s.closed = true
}

// RequestTransition moves the session from `from` to `to`. The request is
// honored only when from is the live state; anything else is a stale request
// and is dropped.
//
// Postcondition: Returns true iff the transition happened.
func (s *Session) RequestTransition(from, to State) bool {
	if s.closed || from != s.state || to < Idle || to > Released {
		s.logger.Debug("card transition ignored",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
			zap.Stringer("current", s.state),
		)
		s.bus.Publish(event.Event{
			Kind:   event.KindTransitionIgnored,
			Source: s.id,
			Card:   s.card.ID,
			State:  s.state.String(),
			Detail: from.String() + "->" + to.String(),
		})
		return false
	}
	s.exit(from)
	s.enter(to)
	return true
}

// Handle routes one input to the live state.
func (s *Session) Handle(in Input) {
	if s.closed {
		return
	}
	switch in.Kind {
	case TargetEntered:
		s.acquire(in.Target)
	case TargetExited:
		if s.targets.Remove(in.Target) {
			s.logger.Debug("target lost", zap.String("target", string(in.Target)))
		}
	}
	if in.Kind == TargetEntered || in.Kind == TargetExited {
		// A failed commit retries on any input, collisions included.
		if s.state == Released {
			s.releasedInput(in)
		}
		return
	}
	switch s.state {
	case Idle:
		s.idleInput(in)
	case Selected:
		s.selectedInput(in)
	case Dragging:
		s.draggingInput(in)
	case Aiming:
		s.aimingInput(in)
	case Released:
		s.releasedInput(in)
	}
}

func (s *Session) idleInput(in Input) {
	switch in.Kind {
	case PointerEnter, PointerExit:
		detail := "enter"
		if in.Kind == PointerExit {
			detail = "exit"
		}
		s.bus.Publish(event.Event{Kind: event.KindCardHover, Source: s.id, Card: s.card.ID, Detail: detail})
	case PointerDown:
		if in.Button != Primary || s.disabled || !s.host.Playable(s) {
			return
		}
		s.pivot = in.Pos.Sub(s.position)
		s.RequestTransition(Idle, Selected)
	}
}

func (s *Session) selectedInput(in Input) {
	switch {
	case in.Kind == PointerMove:
		s.RequestTransition(Selected, Dragging)
	case in.pressed(Secondary):
		s.RequestTransition(Selected, Idle)
	}
}

func (s *Session) draggingInput(in Input) {
	if in.Kind == PointerMove {
		if s.card.IsSingleTargeted() && !s.targets.Empty() {
			s.RequestTransition(Dragging, Aiming)
			return
		}
		s.moveTo(in.Pos.Sub(s.pivot))
		return
	}
	if in.pressed(Secondary) {
		s.RequestTransition(Dragging, Idle)
		return
	}
	if (in.pressed(Primary) || in.released(Primary)) && s.dragReady {
		s.RequestTransition(Dragging, Released)
	}
}

func (s *Session) aimingInput(in Input) {
	switch {
	case in.Kind == PointerMove:
		s.bus.Publish(event.Event{Kind: event.KindCardAimed, Source: s.id, Card: s.card.ID, X: in.Pos.X, Y: in.Pos.Y})
		if in.Pos.Y > s.cfg.SnapBackY {
			s.RequestTransition(Aiming, Idle)
		}
	case in.pressed(Secondary):
		s.RequestTransition(Aiming, Idle)
	case in.pressed(Primary), in.released(Primary):
		s.RequestTransition(Aiming, Released)
	}
}

func (s *Session) releasedInput(Input) {
	if s.played {
		return
	}
	s.RequestTransition(Released, Idle)
}

// acquire records a collision while detection is on. Single-targeted cards
// collide with combatants; every other card only with the drop zone.
func (s *Session) acquire(ref roster.Ref) {
	if !s.detecting || ref == "" {
		return
	}
	if s.card.IsSingleTargeted() == (ref == roster.DropZone) {
		return
	}
	if s.targets.Add(ref) {
		s.logger.Debug("target acquired", zap.String("target", string(ref)))
	}
}

func (s *Session) enter(st State) {
	s.state = st
	s.logger.Debug("card state entered", zap.Stringer("state", st))
	s.bus.Publish(event.Event{Kind: event.KindCardStateEnter, Source: s.id, Card: s.card.ID, State: st.String()})

	switch st {
	case Idle:
		s.cancelDragTimer()
		s.detecting = false
		s.targets.Clear()
		s.pivot = Vec2{}
		s.bus.Publish(event.Event{Kind: event.KindCardReparented, Source: s.id, Card: s.card.ID, Detail: "hand"})
		s.moveTo(s.home)
	case Selected:
		s.detecting = true
	case Dragging:
		s.bus.Publish(event.Event{Kind: event.KindCardReparented, Source: s.id, Card: s.card.ID, Detail: "drag_layer"})
		s.startDragTimer()
	case Aiming:
		s.moveTo(s.cfg.AimAnchor)
	case Released:
		s.detecting = false
		s.played = false
		if !s.targets.Empty() && s.host.Commit(s) {
			s.played = true
			s.logger.Debug("card committed", zap.Int("targets", s.targets.Len()))
		}
	}
}

func (s *Session) exit(st State) {
	if st == Dragging {
		s.cancelDragTimer()
	}
	s.bus.Publish(event.Event{Kind: event.KindCardStateExit, Source: s.id, Card: s.card.ID, State: st.String()})
}

func (s *Session) startDragTimer() {
	s.dragReady = false
	s.dragGen++
	gen := s.dragGen
	s.dragHandle = s.sched.After(s.cfg.MinDragDuration, func() {
		if gen == s.dragGen && s.state == Dragging {
			s.dragReady = true
		}
	})
}

func (s *Session) cancelDragTimer() {
	s.dragGen++
	s.dragReady = false
	if s.dragHandle != nil {
		s.dragHandle.Stop()
		s.dragHandle = nil
	}
}

func (s *Session) moveTo(p Vec2) {
	if p == s.position {
		return
	}
	s.position = p
	s.bus.Publish(event.Event{Kind: event.KindCardMoved, Source: s.id, Card: s.card.ID, X: p.X, Y: p.Y})
}
