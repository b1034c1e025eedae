package sim

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/deckbattle/internal/config"
	"github.com/cory-johannsen/deckbattle/internal/game/battle"
	"github.com/cory-johannsen/deckbattle/internal/game/timer"
)

// Params describe a batch of autopiloted battles of one encounter.
type Params struct {
	Content   *battle.Content
	Encounter string
	Battles   int
	// Parallel bounds how many battles run at once. Values below 1 mean 1.
	Parallel         int
	Battle           config.BattleConfig
	InstructionLimit int
	MaxTurns         int
	// Journal, when set, receives every resolved battle.
	Journal battle.Journal
	Logger  *zap.Logger
}

// Summary aggregates a batch.
type Summary struct {
	Battles int
	Wins    int
	Losses  int
	Turns   int
	Plays   int
}

// WinRate returns the fraction of battles won, or 0 for an empty batch.
func (s Summary) WinRate() float64 {
	if s.Battles == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Battles)
}

func (s *Summary) add(r Result) {
	s.Battles++
	s.Turns += r.Turns
	s.Plays += r.Plays
	switch r.Outcome {
	case battle.Win:
		s.Wins++
	case battle.Lose:
		s.Losses++
	}
}

// Simulate runs p.Battles battles of p.Encounter. When p.Battle.Seed is set,
// battle i is seeded with Seed+i so a batch is reproducible.
//
// Precondition: p.Content and p.Logger must not be nil.
// Postcondition: Returns the summary of every battle that finished, and the
// first error encountered.
func Simulate(ctx context.Context, p Params) (Summary, error) {
	if p.Content == nil || p.Logger == nil {
		panic("sim.Simulate: content and logger must not be nil")
	}
	if _, err := p.Content.Encounter(p.Encounter); err != nil {
		return Summary{}, err
	}
	parallel := p.Parallel
	if parallel < 1 {
		parallel = 1
	}

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < p.Battles; i++ {
		g.Go(func() error {
			res, err := runOne(ctx, p, i)
			if err != nil {
				return fmt.Errorf("battle %d: %w", i, err)
			}
			mu.Lock()
			summary.add(res)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	p.Logger.Info("simulation finished",
		zap.String("encounter", p.Encounter),
		zap.Int("battles", summary.Battles),
		zap.Int("wins", summary.Wins),
		zap.Int("losses", summary.Losses),
	)
	return summary, err
}

func runOne(ctx context.Context, p Params, i int) (Result, error) {
	bc := p.Battle
	if bc.Seed != 0 {
		bc.Seed += int64(i)
	}
	clock := timer.NewManual()
	b, err := battle.New(p.Content, p.Encounter, battle.Options{
		Battle:           bc,
		InstructionLimit: p.InstructionLimit,
		Scheduler:        clock,
		Logger:           p.Logger,
	})
	if err != nil {
		return Result{}, err
	}
	defer b.Close()

	res, err := New(b, clock, Options{
		MinDragDuration: bc.MinDragDuration,
		MaxTurns:        p.MaxTurns,
		Logger:          p.Logger,
	}).Run(ctx)
	if err != nil {
		return res, err
	}
	if err := b.Persist(ctx, p.Journal); err != nil {
		return res, err
	}
	return res, nil
}
