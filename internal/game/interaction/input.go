package interaction

import "github.com/cory-johannsen/deckbattle/internal/game/roster"

// State is a position in a card's interaction lifecycle.
type State int

const (
	Idle State = iota
	Selected
	Dragging
	Aiming
	Released
)

// String returns a lowercase state label.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	case Aiming:
		return "aiming"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// InputKind distinguishes the raw input events a session reacts to.
type InputKind int

const (
	PointerDown InputKind = iota
	PointerUp
	PointerMove
	PointerEnter
	PointerExit
	// TargetEntered and TargetExited report collisions between the card's
	// target detector and a combatant area or the drop zone.
	TargetEntered
	TargetExited
)

// Button identifies a pointer button.
type Button int

const (
	NoButton Button = iota
	Primary
	Secondary
)

// Vec2 is a screen position. Y grows downward.
type Vec2 struct {
	X, Y float64
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Input is one event delivered to a session, already filtered to the card that
// owns focus.
type Input struct {
	Kind   InputKind
	Button Button
	// Pos is the pointer's global position.
	Pos Vec2
	// Target is the collided area for TargetEntered and TargetExited.
	Target roster.Ref
}

// Down builds a button-press input at pos.
func Down(b Button, pos Vec2) Input { return Input{Kind: PointerDown, Button: b, Pos: pos} }

// Up builds a button-release input at pos.
func Up(b Button, pos Vec2) Input { return Input{Kind: PointerUp, Button: b, Pos: pos} }

// Move builds a pointer-motion input at pos.
func Move(pos Vec2) Input { return Input{Kind: PointerMove, Pos: pos} }

// Entered builds a target-collision input for ref.
func Entered(ref roster.Ref) Input { return Input{Kind: TargetEntered, Target: ref} }

// Exited builds a target-separation input for ref.
func Exited(ref roster.Ref) Input { return Input{Kind: TargetExited, Target: ref} }

func (in Input) pressed(b Button) bool  { return in.Kind == PointerDown && in.Button == b }
func (in Input) released(b Button) bool { return in.Kind == PointerUp && in.Button == b }
