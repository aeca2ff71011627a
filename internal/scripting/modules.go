package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua functions into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with roll, check, log, and
// get_actor entries.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "check", L.NewFunction(m.luaCheck))
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetField(engine, "get_actor", L.NewFunction(m.luaGetActor))

	L.SetGlobal("engine", engine)
}

// luaRoll implements engine.roll(expr): rolls a dice expression such as
// "2d6+3" and returns the total. Raises a Lua error on a malformed expression
// so content bugs surface at the call site.
func (m *Manager) luaRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.RollExpr(expr)
	if err != nil {
		L.RaiseError("engine.roll: %s", err.Error())
		return 0
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}

// luaCheck implements engine.check(chance): one percentile check, true when
// the roll lands at or under chance. Chance is clamped to [0, 100].
func (m *Manager) luaCheck(L *lua.LState) int {
	chance := float64(L.CheckNumber(1))
	if chance < 0 {
		chance = 0
	}
	if chance > 100 {
		chance = 100
	}
	L.Push(lua.LBool(m.roller.Check(chance)))
	return 1
}

// luaLog implements engine.log(msg): writes msg to the structured log at
// Info level under the "lua" field.
func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	m.logger.Info("script log", zap.String("lua", msg))
	return 0
}

// luaGetActor implements engine.get_actor(id): returns a snapshot table for
// the actor, or nil when the id is unknown or no lookup was injected.
func (m *Manager) luaGetActor(L *lua.LState) int {
	id := L.CheckString(1)
	if m.GetActor == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.GetActor(id)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(actorToTable(L, *info))
	return 1
}
