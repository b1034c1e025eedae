package battle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/config"
	"github.com/cory-johannsen/deckbattle/internal/game/character"
	"github.com/cory-johannsen/deckbattle/internal/game/dice"
	"github.com/cory-johannsen/deckbattle/internal/game/enemy"
	"github.com/cory-johannsen/deckbattle/internal/game/event"
	"github.com/cory-johannsen/deckbattle/internal/game/interaction"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
	"github.com/cory-johannsen/deckbattle/internal/observability"
	"github.com/cory-johannsen/deckbattle/internal/scripting"
)

// Header summarizes a battle for the journal.
type Header struct {
	ID          uuid.UUID
	EncounterID string
	CharacterID string
	Seed        int64
	Outcome     Outcome
	Turns       int
}

// Journal persists a finished battle's ordered event stream.
type Journal interface {
	Record(ctx context.Context, h Header, events []event.Event) error
}

// Options tune one battle session.
type Options struct {
	Battle           config.BattleConfig
	InstructionLimit int
	// Src overrides the random source derived from Battle.Seed.
	Src dice.Source
	// Scheduler overrides the real-time scheduler that posts onto Run's loop.
	Scheduler timer.Scheduler
	Logger    *zap.Logger
}

// Battle is one encounter in progress: its event bus, its orchestrator and
// the loop that serializes everything that touches them.
type Battle struct {
	id        uuid.UUID
	encounter *Encounter
	character *character.Template
	seed      int64
	bus       *event.Bus
	recorder  *event.Recorder
	orch      *Orchestrator
	scripts   *scripting.Manager
	inbox     chan func()
	done      chan struct{}
	stopOnce  sync.Once
	logger    *zap.Logger
}

// New builds a battle for the encounter encounterID.
//
// Precondition: content must come from LoadContent; opts.Logger must not be nil.
// Postcondition: Returns a battle ready to Start or Run, or an error wrapping
// ErrUnknownEncounter, or a script loading error.
func New(content *Content, encounterID string, opts Options) (*Battle, error) {
	if opts.Logger == nil {
		panic("battle.New: logger must not be nil")
	}
	enc, err := content.Encounter(encounterID)
	if err != nil {
		return nil, err
	}
	tmpl := content.Characters[enc.Character]
	deck, err := character.BuildDeck(tmpl, content.Cards)
	if err != nil {
		return nil, err
	}

	b := &Battle{
		id:        uuid.New(),
		encounter: enc,
		character: tmpl,
		seed:      opts.Battle.Seed,
		bus:       event.NewBus(),
		recorder:  &event.Recorder{},
		inbox:     make(chan func(), 256),
		done:      make(chan struct{}),
	}
	b.logger = opts.Logger.With(observability.BattleFields(b.id, enc.ID, b.seed)...)
	b.recorder.Attach(b.bus)
	b.bus.Subscribe(func(e event.Event) {
		b.logger.Debug("battle event", e.Fields()...)
	})

	src := opts.Src
	if src == nil {
		if b.seed == 0 {
			src = dice.NewCryptoSource()
		} else {
			src = dice.NewSeededSource(b.seed)
		}
	}
	src = dice.NewLoggedSource(src, b.logger)
	sched := opts.Scheduler
	if sched == nil {
		sched = timer.NewRealTime(b.Post)
	}

	b.scripts = scripting.NewManager(src, b.logger)
	if err := b.loadScripts(content.ScriptsDir, opts.InstructionLimit); err != nil {
		b.scripts.Close()
		return nil, err
	}

	deps := enemy.Deps{Bus: b.bus, Src: src, Hooks: enemy.ScriptHooks{Manager: b.scripts}, Logger: b.logger}
	enemies := make([]*enemy.Enemy, 0, len(enc.Enemies))
	for _, id := range enc.Enemies {
		et, err := content.Enemies.Get(id)
		if err != nil {
			b.scripts.Close()
			return nil, err
		}
		enemies = append(enemies, enemy.Spawn(et, deps))
	}

	bc := opts.Battle
	b.orch = NewOrchestrator(Params{
		Bus:       b.bus,
		Player:    NewPlayer(tmpl, deck),
		Enemies:   enemies,
		Scheduler: sched,
		Src:       src,
		Pacing: Pacing{
			DrawInterval:    bc.DrawInterval,
			DiscardInterval: bc.DiscardInterval,
			Enemy:           enemy.Pacing{HitInterval: bc.EnemyHitInterval, CompletionDelay: bc.EnemyActionDelay},
		},
		Cards: interaction.Config{
			MinDragDuration: bc.MinDragDuration,
			AimAnchor:       interaction.Vec2{X: bc.AimAnchorX, Y: bc.AimAnchorY},
			SnapBackY:       bc.AimSnapBackY,
		},
		Layout: Layout{
			HandOrigin:  interaction.Vec2{X: bc.HandOriginX, Y: bc.HandOriginY},
			CardSpacing: bc.CardSpacing,
		},
		Logger: b.logger,
	})
	return b, nil
}

// loadScripts loads the global predicates from dir and each encounter enemy's
// own subdirectory when present.
func (b *Battle) loadScripts(dir string, limit int) error {
	if dir == "" {
		return nil
	}
	if err := b.scripts.LoadGlobal(dir, limit); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, id := range b.encounter.Enemies {
		if seen[id] {
			continue
		}
		seen[id] = true
		scoped := filepath.Join(dir, id)
		if info, err := os.Stat(scoped); err != nil || !info.IsDir() {
			continue
		}
		if err := b.scripts.LoadScope(id, scoped, limit); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the battle's unique identifier.
func (b *Battle) ID() uuid.UUID { return b.id }

// Bus returns the battle's event stream.
func (b *Battle) Bus() *event.Bus { return b.bus }

// Orchestrator returns the battle's phase machine. Only the battle loop may
// call into it.
func (b *Battle) Orchestrator() *Orchestrator { return b.orch }

// Events returns every event published so far.
func (b *Battle) Events() []event.Event { return b.recorder.Events() }

// Header summarizes the battle for the journal.
func (b *Battle) Header() Header {
	return Header{
		ID:          b.id,
		EncounterID: b.encounter.ID,
		CharacterID: b.character.ID,
		Seed:        b.seed,
		Outcome:     b.orch.Outcome(),
		Turns:       b.orch.Turn(),
	}
}

// Post queues fn to run on the battle loop. Safe for concurrent use. Once
// the loop has exited or the battle is closed, fn is dropped.
func (b *Battle) Post(fn func()) {
	select {
	case <-b.done:
		b.logger.Debug("battle loop stopped; dropping posted work")
		return
	default:
	}
	select {
	case b.inbox <- fn:
	case <-b.done:
		b.logger.Debug("battle loop stopped; dropping posted work")
	}
}

// stop marks the loop as exited so later posts are dropped.
func (b *Battle) stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// Run starts the battle and processes posted work until it resolves or ctx
// is cancelled. A non-nil journal receives the event stream once resolved.
//
// Postcondition: Returns the outcome, or Undecided and ctx.Err() on cancellation.
func (b *Battle) Run(ctx context.Context, journal Journal) (Outcome, error) {
	defer b.scripts.Close()
	defer b.stop()
	b.orch.Start()
	for b.orch.Phase() != Resolved {
		select {
		case <-ctx.Done():
			b.logger.Info("battle cancelled", zap.Error(ctx.Err()))
			return Undecided, ctx.Err()
		case fn := <-b.inbox:
			fn()
		}
	}
	return b.orch.Outcome(), b.Persist(ctx, journal)
}

// Persist writes the battle to journal. A nil journal is a no-op.
func (b *Battle) Persist(ctx context.Context, journal Journal) error {
	if journal == nil {
		return nil
	}
	if b.orch.Phase() != Resolved {
		return errors.New("persisting battle: battle not resolved")
	}
	if err := journal.Record(ctx, b.Header(), b.Events()); err != nil {
		return fmt.Errorf("persisting battle %s: %w", b.id, err)
	}
	return nil
}

// Close releases the battle's script VMs.
func (b *Battle) Close() {
	b.stop()
	b.scripts.Close()
}
