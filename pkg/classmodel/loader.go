package classmodel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/jlazylink/pkg/descriptor"
)

// ClassSource loads the raw bytes of a class by binary name, e.g. from a
// classpath directory, a jar, or (see pkg/remoteclass) a network service.
// It is the narrow external collaborator a ClassLoader delegates to for
// the "find the bytes" half of classloading; parsing those bytes into a
// ClassObject is ClassLoader's job.
type ClassSource interface {
	// FindClassBytes returns the raw classfile-equivalent bytes for
	// binaryName, or an error (including a not-found error) if no such
	// class can be located.
	FindClassBytes(binaryName string) ([]byte, error)
}

// ClassParser turns raw class bytes into a linked ClassObject. Kept as an
// interface so tests can supply a trivial in-memory format instead of a
// real JVM classfile parser (out of scope, per spec.md's Non-goals).
type ClassParser interface {
	Parse(binaryName string, data []byte, loader *ClassLoader) (*ClassObject, error)
}

// ErrClassNotFound is wrapped by ForName when no source can supply bytes
// for the requested class.
var ErrClassNotFound = errors.New("classmodel: class not found")

// ErrNoSuchField is wrapped when a field lookup against a loaded class
// fails to find a declared field of the requested name.
var ErrNoSuchField = errors.New("classmodel: no such field")

// ClassLoader resolves binary names to ClassObjects, loading and linking
// on demand and caching the result for subsequent lookups. It is safe
// for concurrent use, matching spec.md's concurrency model ("the class
// loader... must be safe for concurrent use across compilations").
// Grounded on ClassLoader.hpp's StringMap<ClassObject*> cache plus its
// built-in primitive ClassObjects, and on vm/class.go's class-hierarchy
// walking helpers.
type ClassLoader struct {
	mu         sync.RWMutex
	classes    map[string]*ClassObject
	sources    []ClassSource
	parser     ClassParser
	nextIfaceID int
}

// primitiveSpecs mirrors ClassLoader.hpp's nine built-in primitive
// ClassObjects (m_byte, m_char, ..., m_void), each always loaded and
// always Initialized.
var primitiveSpecs = []struct {
	descriptor string
	size       int
}{
	{"B", 1}, // byte
	{"C", 2}, // char
	{"D", 8}, // double
	{"F", 4}, // float
	{"I", 4}, // int
	{"J", 8}, // long
	{"S", 2}, // short
	{"Z", 1}, // boolean
	{"V", 0}, // void
}

// New creates a ClassLoader pre-populated with the nine primitive
// ClassObjects, and with the given sources consulted in order when a
// non-primitive class must be loaded from bytes.
func New(parser ClassParser, sources ...ClassSource) *ClassLoader {
	cl := &ClassLoader{
		classes: make(map[string]*ClassObject),
		sources: sources,
		parser:  parser,
	}
	for _, spec := range primitiveSpecs {
		co := &ClassObject{
			Name:          spec.descriptor,
			IsPrimitive:   true,
			PrimitiveSize: spec.size,
			initState:     Initialized,
		}
		cl.classes[spec.descriptor] = co
	}
	return cl
}

// ForNameLoaded returns the ClassObject for binaryName if it is already
// loaded, without triggering classloading. Returns nil if not loaded,
// matching the upstream forNameLoaded's nullable, non-loading contract.
func (cl *ClassLoader) ForNameLoaded(binaryName string) *ClassObject {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.classes[binaryName]
}

// ForName returns the ClassObject for binaryName, loading it from the
// configured sources if it is not already loaded. Unlike the upstream
// forName, which aborts the process on failure, this returns a typed
// error.
func (cl *ClassLoader) ForName(binaryName string) (*ClassObject, error) {
	if co := cl.ForNameLoaded(binaryName); co != nil {
		return co, nil
	}

	var lastErr error
	for _, src := range cl.sources {
		data, err := src.FindClassBytes(binaryName)
		if err != nil {
			lastErr = err
			continue
		}
		return cl.addParsed(binaryName, data)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrClassNotFound, binaryName, lastErr)
	}
	return nil, fmt.Errorf("%w: %s", ErrClassNotFound, binaryName)
}

// AddClassBytes parses and registers a class directly from bytes,
// mirroring ClassLoader::add(MemoryBuffer&&) in the upstream: used by
// callers (e.g. cmd/jlazyjit) that already have the class data in hand
// and don't need the ClassSource indirection.
func (cl *ClassLoader) AddClassBytes(data []byte) (*ClassObject, error) {
	co, err := cl.parser.Parse("", data, cl)
	if err != nil {
		return nil, fmt.Errorf("classmodel: parse class bytes: %w", err)
	}
	return cl.register(co)
}

func (cl *ClassLoader) addParsed(binaryName string, data []byte) (*ClassObject, error) {
	co, err := cl.parser.Parse(binaryName, data, cl)
	if err != nil {
		return nil, fmt.Errorf("classmodel: parse %s: %w", binaryName, err)
	}
	return cl.register(co)
}

func (cl *ClassLoader) register(co *ClassObject) (*ClassObject, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if existing, ok := cl.classes[co.Name]; ok {
		return existing, nil
	}
	if co.IsInterface {
		co.InterfaceID = cl.nextIfaceID
		cl.nextIfaceID++
	}
	cl.classes[co.Name] = co
	return co, nil
}

// ResolveFieldType parses a field descriptor. It neither consults nor
// loads any class: callers that need the named class load it separately
// via ForName on the FieldType's ClassName when it denotes a reference.
func (cl *ClassLoader) ResolveFieldType(raw string) (descriptor.FieldType, error) {
	return descriptor.ParseFieldType(raw)
}
