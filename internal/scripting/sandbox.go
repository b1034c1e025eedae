// Package scripting runs content scripts, such as enemy action predicates, in
// sandboxed GopherLua states. Battle packages are not imported here; battle
// state reaches a script as a CombatantInfo snapshot.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of one script run when the
// configured limit is not positive.
const DefaultInstructionLimit = 100_000

// ErrBudgetExhausted wraps the Lua error of a run that used up its budget.
var ErrBudgetExhausted = errors.New("scripting: instruction budget exhausted")

// strippedGlobals are unset after the safe libraries are opened. The random
// functions of math are among them: scripts draw through engine.random so a
// seeded battle replays identically.
var strippedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring",
	"collectgarbage", "require", "module", "print",
}

var strippedMath = []string{"random", "randomseed"}

// opcodeBudget is a context that cancels itself on the Done call that uses up
// its last opcode. GopherLua polls Done once per instruction.
type opcodeBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newBudget(instLimit int) *opcodeBudget {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(instLimit))
	return b
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func (b *opcodeBudget) spent() bool {
	return b.left.Load() <= 0
}

// withBudget runs fn with a fresh budget of instLimit opcodes installed on L.
//
// Postcondition: an error caused by running out of budget wraps ErrBudgetExhausted.
func withBudget(L *lua.LState, instLimit int, fn func() error) error {
	b := newBudget(instLimit)
	defer b.cancel()
	L.SetContext(b)
	defer L.RemoveContext()
	if err := fn(); err != nil {
		if b.spent() {
			return fmt.Errorf("%w: %v", ErrBudgetExhausted, err)
		}
		return err
	}
	return nil
}

// NewSandboxedState returns a state with only the base, table, string and math
// libraries open and strippedGlobals unset. Code run directly on the state
// shares one budget of instLimit opcodes; Manager installs a fresh budget per
// file and per call.
//
// Precondition: instLimit >= 0; 0 selects DefaultInstructionLimit.
// Postcondition: the caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		for _, name := range strippedMath {
			L.SetField(math, name, lua.LNil)
		}
	}

	// The budget cancels itself once spent, so its cancel func is not kept.
	L.SetContext(newBudget(instLimit))
	return L
}
