package battle

// Phase is the battle-level turn phase.
type Phase int

const (
	PlayerDrawing Phase = iota
	PlayerActing
	PlayerDiscarding
	EnemyActing
	Resolved
)

// String returns a snake_case phase label.
func (p Phase) String() string {
	switch p {
	case PlayerDrawing:
		return "player_drawing"
	case PlayerActing:
		return "player_acting"
	case PlayerDiscarding:
		return "player_discarding"
	case EnemyActing:
		return "enemy_acting"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Outcome is how a resolved battle ended.
type Outcome int

const (
	Undecided Outcome = iota
	Win
	Lose
)

// String returns a lowercase outcome label.
func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "undecided"
	}
}
