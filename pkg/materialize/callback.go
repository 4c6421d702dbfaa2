package materialize

import "sync"

// CompileFunc is invoked the first time code actually calls through a
// compile-callback address, and performs the real materialization.
type CompileFunc func(symbol string) error

// CallbackManager hands out addresses that, when "called," run a
// CompileFunc once and then get out of the way. Mirrors spec.md's
// inbound "Compile-callback manager" interface
// (get_compile_callback(materialize_fn) -> address).
type CallbackManager interface {
	// GetCompileCallback registers fn and returns a stable address for it.
	// Calling Dispatch with that address later runs fn.
	GetCompileCallback(fn CompileFunc) uintptr
}

// InMemoryCallbackManager hands out synthetic, monotonically increasing
// addresses instead of real trampoline code, grounded on
// function_table.go's GetOrCreatePLTSlot (a stable small-integer handle
// standing in for a PLT slot address).
type InMemoryCallbackManager struct {
	mu        sync.Mutex
	callbacks map[uintptr]CompileFunc
	next      uintptr
}

// NewInMemoryCallbackManager creates an empty callback table.
func NewInMemoryCallbackManager() *InMemoryCallbackManager {
	return &InMemoryCallbackManager{callbacks: make(map[uintptr]CompileFunc), next: 1}
}

func (c *InMemoryCallbackManager) GetCompileCallback(fn CompileFunc) uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := c.next
	c.next++
	c.callbacks[addr] = fn
	return addr
}

// Dispatch simulates code actually calling through addr, running the
// registered CompileFunc. It is the test/CLI harness's stand-in for a real
// CPU trap into the callback trampoline, since this module emits no real
// machine code (see pkg/ir's Non-goals).
func (c *InMemoryCallbackManager) Dispatch(addr uintptr, symbol string) error {
	c.mu.Lock()
	fn, ok := c.callbacks[addr]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return fn(symbol)
}
