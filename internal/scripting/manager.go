package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Manager owns one sandboxed LState per policy script and dispatches hook
// calls into them. Policy ids are script file names without the .lua
// extension.
//
// Manager is safe for concurrent Call after LoadDirectory completes. Each
// policy's LState is single-threaded; the mutex serializes calls into the
// same VM.
type Manager struct {
	mu      sync.Mutex
	states  map[string]*lua.LState
	cancels map[string]func()
	logger  *zap.Logger
}

// NewManager creates a Manager with no loaded policies.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		states:  make(map[string]*lua.LState),
		cancels: make(map[string]func()),
		logger:  logger,
	}
}

// LoadDirectory loads every *.lua file in dir as a policy, one sandboxed VM
// each. A reloaded policy id replaces its previous VM.
//
// Precondition: dir must be a readable directory.
// Postcondition: Policies(), for each loaded id, returns true.
func (m *Manager) LoadDirectory(dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading policy dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".lua" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".lua")
		if err := m.load(id, filepath.Join(dir, e.Name()), instLimit); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) load(id, path string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	if err := L.DoFile(path); err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: loading policy %q from %q: %w", id, path, err)
	}

	m.mu.Lock()
	if old, ok := m.states[id]; ok {
		if oldCancel := m.cancels[id]; oldCancel != nil {
			oldCancel()
		}
		old.Close()
	}
	m.states[id] = L
	m.cancels[id] = cancel
	m.mu.Unlock()

	m.logger.Info("scripting: loaded policy",
		zap.String("policy", id),
		zap.String("path", path),
	)
	return nil
}

// Has reports whether a policy with the given id is loaded.
func (m *Manager) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[id]
	return ok
}

// Call invokes the named global function in the policy's VM and returns its
// first return value. Returns (LNil, nil) when the function is not defined.
// Lua runtime errors are logged at Warn level and returned so the caller can
// fall back to a built-in policy.
//
// Precondition: args must be valid lua.LValue instances.
func (m *Manager) Call(policyID, fn string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[policyID]
	if !ok {
		return lua.LNil, fmt.Errorf("scripting: no policy %q loaded", policyID)
	}

	f := L.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      f,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("policy", policyID),
			zap.String("fn", fn),
			zap.Error(err),
		)
		return lua.LNil, err
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every loaded VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, L := range m.states {
		if cancel := m.cancels[id]; cancel != nil {
			cancel()
		}
		L.Close()
		delete(m.states, id)
		delete(m.cancels, id)
	}
}
