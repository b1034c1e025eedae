// Package stats holds the vital numbers of a combatant: health and block.
//
// All mutation goes through the methods on Stats so the clamp and
// block-absorption invariants cannot be bypassed.
package stats

import "fmt"

// DefaultMaxBlock is the block ceiling used when a template leaves it unset.
const DefaultMaxBlock = 999

// Template is the immutable starting stats block of a combatant archetype.
type Template struct {
	MaxHealth int `yaml:"max_health"`
	// MaxBlock is nil when unset, selecting DefaultMaxBlock. Zero means the
	// combatant can never hold block.
	MaxBlock *int `yaml:"max_block"`
}

// Validate checks that the template can produce a living combatant.
//
// Postcondition: Returns nil iff MaxHealth >= 1 and MaxBlock is unset or >= 0.
func (t Template) Validate() error {
	if t.MaxHealth < 1 {
		return fmt.Errorf("max_health must be >= 1, got %d", t.MaxHealth)
	}
	if t.MaxBlock != nil && *t.MaxBlock < 0 {
		return fmt.Errorf("max_block must be >= 0, got %d", *t.MaxBlock)
	}
	return nil
}

// Change describes one observable mutation of a Stats instance.
type Change struct {
	HealthBefore int
	HealthAfter  int
	BlockBefore  int
	BlockAfter   int
}

// HealthLost returns how much health the change removed; 0 for heals.
func (c Change) HealthLost() int {
	if c.HealthAfter >= c.HealthBefore {
		return 0
	}
	return c.HealthBefore - c.HealthAfter
}

// Observer is notified after every mutation that changed health or block.
type Observer func(Change)

// Stats is the health/block pair owned by exactly one combatant.
//
// Invariant: 0 <= health <= maxHealth and 0 <= block <= maxBlock after every call.
// Not safe for concurrent use; the battle loop serializes access.
type Stats struct {
	maxHealth int
	maxBlock  int
	health    int
	block     int
	observers []Observer
}

// New creates Stats from a template: full health, no block.
// An unset MaxBlock falls back to DefaultMaxBlock.
//
// Postcondition: Health() == t.MaxHealth (floored at 0); Block() == 0.
func New(t Template) *Stats {
	maxBlock := DefaultMaxBlock
	if t.MaxBlock != nil {
		maxBlock = max(0, *t.MaxBlock)
	}
	maxHealth := t.MaxHealth
	if maxHealth < 0 {
		maxHealth = 0
	}
	return &Stats{
		maxHealth: maxHealth,
		maxBlock:  maxBlock,
		health:    maxHealth,
	}
}

// Health returns current health.
func (s *Stats) Health() int { return s.health }

// Block returns current block.
func (s *Stats) Block() int { return s.block }

// MaxHealth returns the health ceiling.
func (s *Stats) MaxHealth() int { return s.maxHealth }

// MaxBlock returns the block ceiling.
func (s *Stats) MaxBlock() int { return s.maxBlock }

// IsDead reports whether health has reached zero.
func (s *Stats) IsDead() bool { return s.health <= 0 }

// Subscribe registers obs to be called after every changing mutation.
// Observers are called in subscription order.
//
// Precondition: obs must not be nil.
func (s *Stats) Subscribe(obs Observer) {
	s.observers = append(s.observers, obs)
}

// TakeDamage applies amount of damage, block first.
// No-op when amount <= 0 or the combatant is already at 0 health.
//
// Postcondition: block' = max(0, block-amount);
// health' = max(0, health-max(0, amount-block)).
func (s *Stats) TakeDamage(amount int) {
	if amount <= 0 || s.health <= 0 {
		return
	}
	absorbed := min(s.block, amount)
	s.set(s.health-(amount-absorbed), s.block-absorbed)
}

// Heal restores health, never above MaxHealth. No-op when amount <= 0.
func (s *Stats) Heal(amount int) {
	if amount <= 0 {
		return
	}
	s.set(s.health+amount, s.block)
}

// GrantBlock adds block, clamped to [0, MaxBlock].
func (s *Stats) GrantBlock(amount int) {
	s.set(s.health, s.block+amount)
}

// ResetBlockForNewTurn drops block to zero at the start of the owner's own turn.
func (s *Stats) ResetBlockForNewTurn() {
	s.set(s.health, 0)
}

func (s *Stats) set(health, block int) {
	ch := Change{
		HealthBefore: s.health,
		BlockBefore:  s.block,
	}
	s.health = clamp(health, 0, s.maxHealth)
	s.block = clamp(block, 0, s.maxBlock)
	ch.HealthAfter = s.health
	ch.BlockAfter = s.block
	if ch.HealthAfter == ch.HealthBefore && ch.BlockAfter == ch.BlockBefore {
		return
	}
	for _, obs := range s.observers {
		obs(ch)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
