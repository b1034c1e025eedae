package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.log(level, msg)  writes msg to the Manager logger at level
//	engine.random(n)        returns an integer in [1, n] from the battle's random source
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetField(engine, "random", L.NewFunction(m.luaRandom))
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)
	switch level {
	case "debug":
		m.logger.Debug(msg, zap.String("source", "lua"))
	case "warn":
		m.logger.Warn(msg, zap.String("source", "lua"))
	case "error":
		m.logger.Error(msg, zap.String("source", "lua"))
	default:
		m.logger.Info(msg, zap.String("source", "lua"))
	}
	return 0
}

func (m *Manager) luaRandom(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 1 {
		L.ArgError(1, "n must be >= 1")
		return 0
	}
	L.Push(lua.LNumber(m.src.Intn(n) + 1))
	return 1
}

// combatantToTable converts a CombatantInfo snapshot into a Lua table with
// snake_case keys: ref, name, health, max_health, block, max_block, turn.
func combatantToTable(L *lua.LState, c CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "ref", lua.LString(c.Ref))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "health", lua.LNumber(c.Health))
	L.SetField(t, "max_health", lua.LNumber(c.MaxHealth))
	L.SetField(t, "block", lua.LNumber(c.Block))
	L.SetField(t, "max_block", lua.LNumber(c.MaxBlock))
	L.SetField(t, "turn", lua.LNumber(c.Turn))
	return t
}
