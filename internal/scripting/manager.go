package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/emberfall/emberfall/internal/game/dice"
)

// globalPackID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no pack VM is found.
const globalPackID = "__global__"

// ActorInfo is a snapshot of an actor's state passed to Lua callbacks.
// Scripts receive copies; there is no way to mutate engine state from Lua
// except through the delta tables a hook returns.
type ActorInfo struct {
	ID        string
	Name      string
	HP        int
	MaxHP     int
	Stress    int
	MaxStress int
	Down      bool
	Traits    []string
}

// Manager owns one sandboxed LState per content pack and exposes hook
// dispatch.
//
// Manager is safe for concurrent CallHook after all LoadPack calls complete.
// Each pack's LState is single-threaded; the read lock serializes concurrent
// calls to the same pack while allowing different packs to run concurrently.
type Manager struct {
	mu      sync.RWMutex
	states  map[string]*lua.LState
	cancels map[string]func()
	roller  *dice.Roller
	logger  *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetActor func(id string) *ActorInfo
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty pack map.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		roller:  roller,
		logger:  logger,
	}
}

// LoadPack creates a sandboxed VM for packID, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: packID must be non-empty; scriptDir must be a readable directory.
// Postcondition: Pack VM is registered; returns error on Lua load failure.
func (m *Manager) LoadPack(packID, scriptDir string, instLimit int) error {
	return m.loadInto(packID, scriptDir, instLimit)
}

// LoadGlobal creates the "__global__" VM for shared effect scripts accessible
// as a CallHook fallback from any pack.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalPackID, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
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
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		if oldCancel := m.cancels[key]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[key] = L
	m.cancels[key] = cancel
	m.mu.Unlock()
	return nil
}

// Close shuts down every VM. The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, L := range m.states {
		if cancel := m.cancels[key]; cancel != nil {
			cancel()
		}
		L.Close()
	}
	m.states = make(map[string]*lua.LState)
	m.cancels = make(map[string]func())
}

// CallHook calls the named Lua global function in packID's VM. If the pack
// has no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if
// the hook is not defined or no VM exists. Lua runtime errors are logged at
// Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(packID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	L, ok := m.states[packID]
	if !ok {
		L = m.states[globalPackID]
	}
	m.mu.RUnlock()

	if L == nil {
		m.logger.Info("scripting: no VM for pack",
			zap.String("pack", packID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("pack", packID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// CallActorHook is CallHook specialized for the common shape: the hook
// receives an actor snapshot table and a numeric amount, and returns a delta
// table. The result is decoded with DeltaTable.
func (m *Manager) CallActorHook(packID, hook string, info ActorInfo, amount float64) (map[string]float64, error) {
	m.mu.RLock()
	L, ok := m.states[packID]
	if !ok {
		L = m.states[globalPackID]
	}
	m.mu.RUnlock()
	if L == nil {
		return nil, nil
	}

	ret, err := m.CallHook(packID, hook, actorToTable(L, info), lua.LNumber(amount))
	if err != nil {
		return nil, err
	}
	return DeltaTable(ret), nil
}

// actorToTable marshals an ActorInfo into a Lua table for hook arguments.
func actorToTable(L *lua.LState, info ActorInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(info.ID))
	t.RawSetString("name", lua.LString(info.Name))
	t.RawSetString("hp", lua.LNumber(info.HP))
	t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
	t.RawSetString("stress", lua.LNumber(info.Stress))
	t.RawSetString("max_stress", lua.LNumber(info.MaxStress))
	t.RawSetString("down", lua.LBool(info.Down))
	traits := L.NewTable()
	for i, tr := range info.Traits {
		traits.RawSetInt(i+1, lua.LString(tr))
	}
	t.RawSetString("traits", traits)
	return t
}

// DeltaTable decodes a hook's return value into a name->number map. Non-table
// returns and non-numeric entries decode to nothing; hooks that return nil
// mean "no adjustment".
func DeltaTable(lv lua.LValue) map[string]float64 {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil
	}
	out := make(map[string]float64)
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		num, ok := v.(lua.LNumber)
		if !ok {
			return
		}
		out[string(key)] = float64(num)
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
