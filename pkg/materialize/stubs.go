package materialize

import "sync"

// StubState tracks one stub symbol's progress from "callers go through the
// compile callback" to "callers go straight to the real target," mirroring
// JITFunctionEntry.State in the function_table.go pattern, collapsed to the
// two states this module actually needs (materialization here is
// synchronous and can't fail partway into Compiling).
type StubState uint8

const (
	StubPending StubState = iota
	StubMaterialized
)

type stubEntry struct {
	state   StubState
	ptr     uintptr
	patches []func(realPtr uintptr)
}

// StubsManager is the narrow collaborator a real JIT link layer would
// supply: a table mapping mangled symbols to their current entry point,
// initially the compile-callback trampoline and later the materialized
// target. Mirrors spec.md's inbound "Stubs manager" interface
// (create_stub/update_pointer).
type StubsManager interface {
	// CreateStub registers symbol with an initial entry point (typically a
	// compile-callback address), a no-op if the stub already exists.
	CreateStub(symbol string, initialPtr uintptr) error
	// UpdatePointer installs realPtr as symbol's entry point and applies
	// every patch site registered for it via AddPatchSite.
	UpdatePointer(symbol string, realPtr uintptr) error
	// AddPatchSite registers patch to be invoked with symbol's real
	// pointer once known. If symbol is already materialized, patch runs
	// immediately.
	AddPatchSite(symbol string, patch func(realPtr uintptr))
	// Lookup returns symbol's current entry point and whether it has been
	// materialized (as opposed to still pointing at a compile callback).
	Lookup(symbol string) (ptr uintptr, materialized bool)
}

// InMemoryStubsManager is a process-local StubsManager, grounded on
// function_table.go's FunctionTable: entries keyed by symbol, patch sites
// queued until the real pointer lands, then applied and discarded.
type InMemoryStubsManager struct {
	mu      sync.Mutex
	entries map[string]*stubEntry
}

// NewInMemoryStubsManager creates an empty stubs table.
func NewInMemoryStubsManager() *InMemoryStubsManager {
	return &InMemoryStubsManager{entries: make(map[string]*stubEntry)}
}

func (s *InMemoryStubsManager) CreateStub(symbol string, initialPtr uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[symbol]; ok {
		return nil
	}
	s.entries[symbol] = &stubEntry{ptr: initialPtr, state: StubPending}
	return nil
}

func (s *InMemoryStubsManager) UpdatePointer(symbol string, realPtr uintptr) error {
	s.mu.Lock()
	entry, ok := s.entries[symbol]
	if !ok {
		entry = &stubEntry{}
		s.entries[symbol] = entry
	}
	entry.ptr = realPtr
	entry.state = StubMaterialized
	patches := entry.patches
	entry.patches = nil
	s.mu.Unlock()

	for _, patch := range patches {
		patch(realPtr)
	}
	return nil
}

func (s *InMemoryStubsManager) AddPatchSite(symbol string, patch func(realPtr uintptr)) {
	s.mu.Lock()
	entry, ok := s.entries[symbol]
	if !ok {
		entry = &stubEntry{state: StubPending}
		s.entries[symbol] = entry
	}
	if entry.state == StubMaterialized {
		ptr := entry.ptr
		s.mu.Unlock()
		patch(ptr)
		return
	}
	entry.patches = append(entry.patches, patch)
	s.mu.Unlock()
}

func (s *InMemoryStubsManager) Lookup(symbol string) (uintptr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[symbol]
	if !ok {
		return 0, false
	}
	return entry.ptr, entry.state == StubMaterialized
}
