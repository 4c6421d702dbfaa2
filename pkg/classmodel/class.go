// Package classmodel provides a concrete implementation of the class
// loader, class object, method and field collaborators that
// pkg/resolve, pkg/lazylink and pkg/materialize treat as narrow external
// interfaces (spec.md §6). It is grounded on the JVM object model walked
// by vm/class.go and vm/vtable.go in the teacher module, generalized from
// a single-inheritance Smalltalk-style object model to the JVM's
// class/interface/array distinctions.
package classmodel

import (
	"sync"

	"github.com/chazu/jlazylink/pkg/descriptor"
)

// InitState tracks a class's progress through JVM §5.5 initialization.
type InitState uint8

const (
	Uninitialized InitState = iota
	Initializing
	Initialized
	Errored
)

// Field describes one field declared directly on a ClassObject.
type Field struct {
	Name       string
	Descriptor descriptor.FieldType
	IsStatic   bool
	// Offset is the instance-field slot offset (IsStatic == false) or,
	// for a static field, the value pkg/lazylink's GetStaticFieldAddress
	// emits as the field's address constant.
	Offset int
}

// MethodRef describes one method declared directly on a ClassObject.
type MethodRef struct {
	Name       string
	Descriptor descriptor.MethodType
	IsStatic   bool
	IsAbstract bool
	// VTableSlot is this method's slot in its declaring class's vtable,
	// assigned at class-linking time; meaningless for static or private
	// methods, which are never looked up through a vtable.
	VTableSlot int
}

// ClassObject is a loaded, but not necessarily initialized, JVM class or
// interface. Primitive ClassObjects (see loader.go's primitiveSpecs) are
// always loaded and always Initialized.
type ClassObject struct {
	mu sync.Mutex

	Name        string // internal binary name, e.g. "java/lang/Object"
	IsInterface bool
	IsPrimitive bool
	// InterfaceID identifies this interface's slot in any implementor's
	// ITables index space; assigned by the class loader when an
	// interface is first registered. Meaningless when IsInterface is
	// false.
	InterfaceID int
	// PrimitiveSize is the size in bytes of a primitive ClassObject's
	// values; zero for Void and for all non-primitive ClassObjects.
	PrimitiveSize int

	Super      *ClassObject
	Interfaces []*ClassObject

	Fields  []*Field
	Methods []*MethodRef

	// VTable holds this class's virtual method dispatch table, including
	// inherited slots copied down from Super at link time. Nil for
	// interfaces and primitives.
	VTable *VTable
	// ITables maps an implemented interface's name to this class's
	// interface dispatch table for that interface. Empty for interfaces
	// and primitives.
	ITables map[string]*ITable

	initState InitState
	initErr   error
}

// InitState returns the class's current initialization state under a
// lock, since initialization can race across compilations running
// concurrently (spec.md's concurrency model: the class loader is shared
// and must be safe for concurrent use).
func (c *ClassObject) InitState() InitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initState
}

// BeginInitialization transitions Uninitialized -> Initializing and
// reports whether the caller won the race to perform initialization
// (i.e. whether the caller should now run <clinit> and then call
// FinishInitialization). If another goroutine is already initializing or
// has already initialized the class, BeginInitialization returns false.
func (c *ClassObject) BeginInitialization() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initState != Uninitialized {
		return false
	}
	c.initState = Initializing
	return true
}

// FinishInitialization records the outcome of running <clinit>.
func (c *ClassObject) FinishInitialization(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.initState = Errored
		c.initErr = err
		return
	}
	c.initState = Initialized
}

// InitError returns the error recorded by a failed initialization, or
// nil if the class initialized successfully or has not yet reached the
// Errored state.
func (c *ClassObject) InitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErr
}

// IsSubclassOf reports whether c is other or a (possibly indirect)
// subclass of other.
func (c *ClassObject) IsSubclassOf(other *ClassObject) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == other {
			return true
		}
	}
	return false
}

// Implements reports whether c or a superclass implements iface, either
// directly or through a superinterface of an interface it declares.
func (c *ClassObject) Implements(iface *ClassObject) bool {
	for cur := c; cur != nil; cur = cur.Super {
		for _, i := range cur.Interfaces {
			if i == iface || i.Implements(iface) {
				return true
			}
		}
	}
	return false
}

// FindMethod looks up a method declared directly on c (not walking the
// vtable, not walking superclasses) by name and descriptor.
func (c *ClassObject) FindMethod(name string, descr descriptor.MethodType) *MethodRef {
	for _, m := range c.Methods {
		if m.Name == name && m.Descriptor.Equal(descr) {
			return m
		}
	}
	return nil
}

// FindField looks up a field declared directly on c by name.
func (c *ClassObject) FindField(name string) *Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}
