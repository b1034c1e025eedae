package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/deckbattle/internal/game/dice"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// CombatantInfo is a snapshot of a combatant's state passed to Lua callbacks.
type CombatantInfo struct {
	Ref       string
	Name      string
	Health    int
	MaxHealth int
	Block     int
	MaxBlock  int
	// Turn is the 1-based battle turn the snapshot was taken on.
	Turn int
}

type vm struct {
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
// A scope is usually an enemy template ID; shared scripts live in the global scope.
//
// Manager is safe for concurrent CallHook after all Load calls complete.
// Each LState is single-threaded; the mutex serializes calls into the VMs.
type Manager struct {
	mu     sync.Mutex
	states map[string]*vm
	src    dice.Source
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty scope map.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	if src == nil {
		panic("scripting.NewManager: src must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		src:    src,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine.* module,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: Scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the global VM for shared predicate scripts, reachable as a
// CallHook fallback from any scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		err := withBudget(L, instLimit, func() error { return L.DoFile(path) })
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.L.Close()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	return nil
}

// HasHook reports whether hook is defined as a function in scope or the global scope.
func (m *Manager) HasHook(scope, hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.lookup(scope)
	if v == nil {
		return false
	}
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

func (m *Manager) lookup(scope string) *vm {
	if v, ok := m.states[scope]; ok {
		return v
	}
	return m.states[globalScope]
}

// CallHook calls the named Lua global function in scope's VM. If the scope has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.call(scope, hook, func(*lua.LState) []lua.LValue { return args }), nil
}

// CallPredicate calls hook with a table snapshot of self and reports the
// truthiness of its result. A missing hook or a Lua error yields false.
func (m *Manager) CallPredicate(scope, hook string, self CombatantInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := m.call(scope, hook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{combatantToTable(L, self)}
	})
	return lua.LVAsBool(ret)
}

// call runs hook with the arguments built by args. The caller holds m.mu.
func (m *Manager) call(scope, hook string, args func(*lua.LState) []lua.LValue) lua.LValue {
	v := m.lookup(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil
	}
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil
	}

	err := withBudget(L, v.limit, func() error {
		return L.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, args(L)...)
	})
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Bool("budget_exhausted", errors.Is(err, ErrBudgetExhausted)),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret
}

// Close releases every VM. Subsequent CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.L.Close()
		delete(m.states, key)
	}
}
