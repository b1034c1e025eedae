package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/deckbattle/internal/game/battle"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
)

// ErrBattleNotFound is returned when a battle lookup yields no results.
var ErrBattleNotFound = errors.New("battle not found")

// ErrBattleExists is returned when a battle ID is journaled twice.
var ErrBattleExists = errors.New("battle already exists")

// BattleRecord is the journal header of one battle.
type BattleRecord struct {
	ID          uuid.UUID
	EncounterID string
	CharacterID string
	Seed        int64
	Outcome     string
	Turns       int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// JournalRepository persists battle headers and their ordered event streams.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// StartBattle inserts the header row for a new battle.
//
// Precondition: rec.ID must not be the zero UUID.
// Postcondition: Returns rec with StartedAt set, or ErrBattleExists if the ID is taken.
func (r *JournalRepository) StartBattle(ctx context.Context, rec BattleRecord) (BattleRecord, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO battles (id, encounter_id, character_id, seed)
		 VALUES ($1, $2, $3, $4)
		 RETURNING outcome, turns, started_at`,
		rec.ID, rec.EncounterID, rec.CharacterID, rec.Seed,
	).Scan(&rec.Outcome, &rec.Turns, &rec.StartedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return BattleRecord{}, ErrBattleExists
		}
		return BattleRecord{}, fmt.Errorf("inserting battle: %w", err)
	}
	return rec, nil
}

// AppendEvents bulk-copies events into the battle's stream.
//
// Precondition: the battle must have been started; every event's Seq must be
// unique within the battle.
// Postcondition: Returns the number of rows written.
func (r *JournalRepository) AppendEvents(ctx context.Context, battleID uuid.UUID, events []event.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	n, err := r.db.CopyFrom(ctx, pgx.Identifier{"battle_events"}, eventColumns, pgx.CopyFromRows(eventRows(battleID, events)))
	if err != nil {
		return 0, fmt.Errorf("copying battle events: %w", err)
	}
	return n, nil
}

// FinishBattle records the outcome of a battle.
//
// Postcondition: Returns ErrBattleNotFound if no battle has the given ID.
func (r *JournalRepository) FinishBattle(ctx context.Context, battleID uuid.UUID, outcome string, turns int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE battles SET outcome = $2, turns = $3, finished_at = NOW() WHERE id = $1`,
		battleID, outcome, turns,
	)
	if err != nil {
		return fmt.Errorf("finishing battle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBattleNotFound
	}
	return nil
}

// GetBattle retrieves a battle header by ID.
//
// Postcondition: Returns the record or ErrBattleNotFound.
func (r *JournalRepository) GetBattle(ctx context.Context, battleID uuid.UUID) (BattleRecord, error) {
	var rec BattleRecord
	err := r.db.QueryRow(ctx,
		`SELECT id, encounter_id, character_id, seed, outcome, turns, started_at, finished_at
		 FROM battles WHERE id = $1`,
		battleID,
	).Scan(&rec.ID, &rec.EncounterID, &rec.CharacterID, &rec.Seed, &rec.Outcome, &rec.Turns, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BattleRecord{}, ErrBattleNotFound
		}
		return BattleRecord{}, fmt.Errorf("querying battle: %w", err)
	}
	return rec, nil
}

// ListEvents returns the battle's events in sequence order.
//
// Postcondition: Returns an empty slice for a battle with no events.
func (r *JournalRepository) ListEvents(ctx context.Context, battleID uuid.UUID) ([]event.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT seq, kind, source, target, card, amount, phase, state, sound, detail, x, y
		 FROM battle_events WHERE battle_id = $1 ORDER BY seq`,
		battleID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying battle events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		var e event.Event
		var kind string
		if err := rows.Scan(&e.Seq, &kind, &e.Source, &e.Target, &e.Card, &e.Amount, &e.Phase, &e.State, &e.Sound, &e.Detail, &e.X, &e.Y); err != nil {
			return nil, fmt.Errorf("scanning battle event: %w", err)
		}
		e.Kind = event.Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating battle events: %w", err)
	}
	return events, nil
}

// RecordBattle writes a finished battle's header, events and outcome in one
// transaction.
//
// Precondition: rec.ID must not already be journaled.
// Postcondition: Either every row is written or none is.
func (r *JournalRepository) RecordBattle(ctx context.Context, rec BattleRecord, events []event.Event) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO battles (id, encounter_id, character_id, seed, outcome, turns, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		rec.ID, rec.EncounterID, rec.CharacterID, rec.Seed, rec.Outcome, rec.Turns,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrBattleExists
		}
		return fmt.Errorf("inserting battle: %w", err)
	}
	if len(events) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"battle_events"}, eventColumns, pgx.CopyFromRows(eventRows(rec.ID, events))); err != nil {
			return fmt.Errorf("copying battle events: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing journal transaction: %w", err)
	}
	return nil
}

// Record implements battle.Journal by writing h and events with RecordBattle.
func (r *JournalRepository) Record(ctx context.Context, h battle.Header, events []event.Event) error {
	return r.RecordBattle(ctx, BattleRecord{
		ID:          h.ID,
		EncounterID: h.EncounterID,
		CharacterID: h.CharacterID,
		Seed:        h.Seed,
		Outcome:     h.Outcome.String(),
		Turns:       h.Turns,
	}, events)
}

var eventColumns = []string{"battle_id", "seq", "kind", "source", "target", "card", "amount", "phase", "state", "sound", "detail", "x", "y"}

func eventRows(battleID uuid.UUID, events []event.Event) [][]any {
	rows := make([][]any, len(events))
	for i, e := range events {
		rows[i] = []any{battleID, e.Seq, string(e.Kind), e.Source, e.Target, e.Card, e.Amount, e.Phase, e.State, e.Sound, e.Detail, e.X, e.Y}
	}
	return rows
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
