// Package materialize implements the stub materializer (spec's C6): given
// an unresolved symbol name from the JIT's link layer, it first checks
// pkg/stubcache for a resolution persisted from an earlier run, and
// failing that demangles the symbol (pkg/mangle), loads whatever class
// that requires, re-runs the matching pkg/lazylink fast-path emission now
// that the class is loaded, and hands the real entry point to the stubs
// manager so every caller currently routed through the compile callback
// gets patched to the real target. A fresh resolution is persisted back
// to the cache so the next process to see the same symbol can skip
// straight to Bind's cache hit path.
//
// Grounded on vm/inline_cache.go's cache-state-machine idea (a stub is
// materialized at most once; afterward every call bypasses this package
// entirely) and on tangzhangming-nova's function_table.go patch-site
// pattern (FunctionTable.PatchSites / patchCallSites / GetOrCreatePLTSlot),
// adapted from raw machine-code patching - out of scope per the module's
// Non-goals excluding a real code generator - to patching Go closures.
package materialize

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/descriptor"
	"github.com/chazu/jlazylink/pkg/ir"
	"github.com/chazu/jlazylink/pkg/lazylink"
	"github.com/chazu/jlazylink/pkg/mangle"
	"github.com/chazu/jlazylink/pkg/stubcache"
)

// ErrNotOurSymbol is returned when a requested symbol does not parse as
// any grammar this materializer can service, mirroring demangle's
// monostate/"decline" outcome from spec.md's C6 step 1.
var ErrNotOurSymbol = errors.New("materialize: symbol is not ours to materialize")

// Materializer ties a class loader, a stubs manager, a callback manager
// and an optional persisted resolution cache together into the C6 "on
// unresolved symbol, demangle/resolve/emit/patch" pipeline.
type Materializer struct {
	loader    *classmodel.ClassLoader
	stubs     StubsManager
	callbacks CallbackManager
	cache     stubcache.Store

	nextAddr uintptr
}

// New creates a Materializer backed by loader, stubs and callbacks. cache
// may be nil, in which case every symbol is resolved fresh and nothing is
// persisted (matching a cold process with no pkg/stubcache backend
// configured).
func New(loader *classmodel.ClassLoader, stubs StubsManager, callbacks CallbackManager, cache stubcache.Store) *Materializer {
	return &Materializer{loader: loader, stubs: stubs, callbacks: callbacks, cache: cache, nextAddr: 1}
}

// Bind registers symbol with the stubs manager and returns the address
// callers should route through. If the cache already holds a resolution
// for symbol from an earlier run, that address is installed directly as
// already-materialized and returned, skipping class loading and
// resolution entirely. Otherwise symbol is routed through a fresh compile
// callback that materializes it (against builder) on first call, and the
// callback address is returned as the stub's initial pointer. Callers
// emit a call to symbol (pkg/lazylink's slow path); the underlying link
// layer is responsible for actually trapping unresolved calls into this
// address, which is out of this module's scope.
func (m *Materializer) Bind(builder ir.Builder, symbol string) (uintptr, error) {
	if ptr, materialized := m.stubs.Lookup(symbol); materialized {
		return ptr, nil
	}

	if m.cache != nil {
		cached, ok, err := m.cache.Get(symbol)
		if err != nil {
			return 0, fmt.Errorf("materialize: consult cache for %s: %w", symbol, err)
		}
		if ok {
			addr := uintptr(cached.Addr)
			if err := m.stubs.CreateStub(symbol, addr); err != nil {
				return 0, err
			}
			if err := m.stubs.UpdatePointer(symbol, addr); err != nil {
				return 0, err
			}
			return addr, nil
		}
	}

	callbackAddr := m.callbacks.GetCompileCallback(func(sym string) error {
		_, err := m.Materialize(builder, sym)
		return err
	})
	if err := m.stubs.CreateStub(symbol, callbackAddr); err != nil {
		return 0, err
	}
	return callbackAddr, nil
}

// PatchCaller registers patch to run with symbol's real entry point once
// materialized (immediately, if materialization already happened).
func (m *Materializer) PatchCaller(symbol string, patch func(realPtr uintptr)) {
	m.stubs.AddPatchSite(symbol, patch)
}

// Materialize runs spec.md's C6 steps 1-6 for symbol: demangle, resolve
// against the (now loading-triggered) class hierarchy, emit the resolved
// IR operation, and patch every caller registered via PatchCaller to the
// synthetic entry point representing the compiled trampoline.
func (m *Materializer) Materialize(builder ir.Builder, symbol string) (ir.Value, error) {
	demangled, err := mangle.Demangle(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotOurSymbol, symbol)
	}

	h := lazylink.New(m.loader)

	var value ir.Value
	switch demangled.Kind {
	case mangle.FieldAccessKind:
		value, err = m.materializeFieldAccess(builder, h, demangled.FieldAccess)
	case mangle.MethodResolutionCallKind:
		value, err = m.materializeMethodResolutionCall(builder, h, demangled.MethodResolutionCall)
	case mangle.StaticCallKind:
		value, err = m.materializeStaticCall(builder, h, demangled.StaticCall)
	case mangle.ClassObjectAccessKind:
		value, err = m.materializeClassObjectAccess(builder, h, demangled.ClassObjectAccess)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotOurSymbol, symbol)
	}
	if err != nil {
		return nil, err
	}

	addr := atomic.AddUintptr(&m.nextAddr, 1)
	if uerr := m.stubs.UpdatePointer(symbol, addr); uerr != nil {
		return nil, uerr
	}
	if m.cache != nil {
		stub := stubcache.ResolvedStub{Symbol: symbol, Addr: uint64(addr), HitsBeforePatch: 1}
		if perr := m.cache.Put(stub); perr != nil {
			return nil, fmt.Errorf("materialize: persist resolution for %s: %w", symbol, perr)
		}
	}
	return value, nil
}

// ensureInitialized drives a freshly loaded class's initialization state
// machine to Initialized (spec.md §4.5's Uninitialized -> Initializing ->
// Initialized transition), since every materialize* path below needs the
// class past Initialized before pkg/lazylink's fast path will bake in any
// of its facts. <clinit> itself is out of scope (no real bytecode
// interpreter per this module's Non-goals); a class that reaches here
// simply has no initializer side effects to run.
func ensureInitialized(class *classmodel.ClassObject) {
	if class.BeginInitialization() {
		class.FinishInitialization(nil)
	}
}

func (m *Materializer) materializeFieldAccess(builder ir.Builder, h *lazylink.Helper, fa mangle.FieldAccess) (ir.Value, error) {
	class, err := m.loader.ForName(fa.ClassName)
	if err != nil {
		return nil, err
	}
	ensureInitialized(class)
	field := class.FindField(fa.FieldName)
	if field == nil {
		return nil, fmt.Errorf("%w: %s.%s", classmodel.ErrNoSuchField, fa.ClassName, fa.FieldName)
	}
	if field.IsStatic {
		return h.GetStaticFieldAddress(builder, fa.ClassName, fa.FieldName, fa.Descriptor), nil
	}
	return h.GetInstanceFieldOffset(builder, fa.ClassName, fa.FieldName, fa.Descriptor), nil
}

func (m *Materializer) materializeMethodResolutionCall(builder ir.Builder, h *lazylink.Helper, mrc mangle.MethodResolutionCall) (ir.Value, error) {
	class, err := m.loader.ForName(mrc.ClassName)
	if err != nil {
		return nil, err
	}
	ensureInitialized(class)

	if mrc.Resolution == mangle.Special {
		return h.DoSpecialCall(builder, mrc.ClassName, mrc.MethodName, mrc.Descriptor, nil), nil
	}

	resolution := lazylink.Virtual
	if mrc.Resolution == mangle.Interface {
		resolution = lazylink.Interface
	}
	// The trampoline's receiver is its own first parameter, which this
	// front-end's narrow IR has no way to name independently of a real
	// function signature; a placeholder pointer stands in for "whatever
	// value the caller passes," matching the rest of this module's
	// toy-IR-only scope.
	receiver := builder.CreatePointerConstant(0)
	return h.DoIndirectCall(builder, mrc.ClassName, mrc.MethodName, mrc.Descriptor, receiver, nil, resolution)
}

func (m *Materializer) materializeStaticCall(builder ir.Builder, h *lazylink.Helper, sc mangle.StaticCall) (ir.Value, error) {
	class, err := m.loader.ForName(sc.ClassName)
	if err != nil {
		return nil, err
	}
	ensureInitialized(class)
	return h.DoStaticCall(builder, sc.ClassName, sc.MethodName, sc.Descriptor, nil), nil
}

func (m *Materializer) materializeClassObjectAccess(builder ir.Builder, h *lazylink.Helper, ft descriptor.FieldType) (ir.Value, error) {
	if ft.Kind() == descriptor.ObjectKind {
		class, err := m.loader.ForName(ft.ClassName())
		if err != nil {
			return nil, err
		}
		ensureInitialized(class)
	}
	// Class-object-access symbols don't encode whether the access site
	// required a must-initialize variant (mangle.MangleClassObjectAccess
	// takes only the descriptor); materializing always forces
	// initialization, matching the common ldc-of-a-class-literal case.
	return h.GetClassObject(builder, ft, true), nil
}
