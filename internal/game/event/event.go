// Package event provides the ordered event stream owned by one battle session.
package event

import "go.uber.org/zap"

// Kind indicates the category of a battle event.
type Kind string

const (
	// Turn flow
	KindPhaseChanged    Kind = "phase_changed"
	KindHandDrawn       Kind = "hand_drawn"
	KindHandDiscarded   Kind = "hand_discarded"
	KindBattleWon       Kind = "battle_won"
	KindBattleLost      Kind = "battle_lost"
	KindManaChanged     Kind = "mana_changed"
	KindPileSizeChanged Kind = "pile_size_changed"
	KindPileReshuffled  Kind = "pile_reshuffled"

	// Cards
	KindCardDrawn      Kind = "card_drawn"
	KindCardDiscarded  Kind = "card_discarded"
	KindCardPlayed     Kind = "card_played"
	KindCardStateEnter Kind = "card_state_entered"
	KindCardStateExit  Kind = "card_state_exited"
	KindCardMoved      Kind = "card_moved"
	KindCardReparented Kind = "card_reparented"
	KindCardHover      Kind = "card_hover"
	KindCardAimed      Kind = "card_aimed"

	// Combat
	KindEffectApplied Kind = "effect_applied"
	KindStatsChanged  Kind = "stats_changed"

	// Enemies
	KindIntentChanged        Kind = "intent_changed"
	KindEnemyActionStarted   Kind = "enemy_action_started"
	KindEnemyActionCompleted Kind = "enemy_action_completed"
	KindEnemyTurnSkipped     Kind = "enemy_turn_skipped"
	KindEnemyDied            Kind = "enemy_died"
	KindEnemyTurnEnded       Kind = "enemy_turn_ended"
	KindSelectionFailed      Kind = "selection_failed"
	KindTransitionIgnored    Kind = "transition_ignored"
	KindEventAfterResolution Kind = "event_after_resolution"
)

// Event is one entry of the battle's ordered stream.
// Fields that do not apply to a kind are left at their zero value.
type Event struct {
	// Seq is assigned by the bus, strictly increasing from 1.
	Seq    int64
	Kind   Kind
	Source string
	Target string
	Card   string
	Amount int
	Phase  string
	State  string
	Sound  string
	Detail string
	X, Y   float64
}

// Fields renders e as zap fields for structured logging.
func (e Event) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Int64("seq", e.Seq),
		zap.String("kind", string(e.Kind)),
	}
	if e.Source != "" {
		fields = append(fields, zap.String("source", e.Source))
	}
	if e.Target != "" {
		fields = append(fields, zap.String("target", e.Target))
	}
	if e.Card != "" {
		fields = append(fields, zap.String("card", e.Card))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Int("amount", e.Amount))
	}
	if e.Phase != "" {
		fields = append(fields, zap.String("phase", e.Phase))
	}
	if e.State != "" {
		fields = append(fields, zap.String("state", e.State))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	return fields
}
