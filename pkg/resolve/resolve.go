// Package resolve implements JVM §5.4.3.3 (virtual method resolution) and
// §5.4.3.4 (interface method resolution), turning a (class, method name,
// method descriptor) triple into either a vtable slot, an itable slot, or
// a resolution error that the caller should translate into the
// corresponding JVM exception at run time.
package resolve

import (
	"fmt"

	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/descriptor"
)

// Kind discriminates the three alternatives a resolution can produce,
// the Go equivalent of the upstream's
// swl::variant<VTableOffset, ITableOffset, std::string>.
type Kind uint8

const (
	VTableOffsetKind Kind = iota
	ITableOffsetKind
	ErrorKind
)

// VTableOffset identifies a method by its slot in a class's virtual
// dispatch table.
type VTableOffset struct {
	Slot int
}

// ITableOffset identifies a method by its slot in a class's dispatch
// table for one specific implemented interface.
type ITableOffset struct {
	InterfaceID int
	Slot        int
}

// ErrorKindReason classifies why resolution failed, mirroring the JVM
// exceptions the failure would manifest as at run time.
type ErrorKindReason uint8

const (
	// NoSuchMethod means no method with the requested name and
	// descriptor exists anywhere in the class/interface hierarchy.
	NoSuchMethod ErrorKindReason = iota
	// AbstractMethod means resolution found only an abstract method
	// (JVM §5.4.3.3 step 3, AbstractMethodError).
	AbstractMethod
	// IncompatibleClassChange means the method was resolved against an
	// interface when a class was expected, or vice versa
	// (IncompatibleClassChangeError).
	IncompatibleClassChange
)

func (r ErrorKindReason) String() string {
	switch r {
	case NoSuchMethod:
		return "NoSuchMethodError"
	case AbstractMethod:
		return "AbstractMethodError"
	case IncompatibleClassChange:
		return "IncompatibleClassChangeError"
	default:
		return fmt.Sprintf("ErrorKindReason(%d)", uint8(r))
	}
}

// Error is the failure alternative of Result: resolution could not
// produce a dispatchable offset, and the given JVM exception should be
// thrown when the compiled call site actually executes.
type Error struct {
	Reason  ErrorKindReason
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("%s: %s", e.Reason, e.Message) }

// Result is the tagged union produced by Virtual and Interface:
// mirrors the upstream's ResolutionResult = swl::variant<VTableOffset, ITableOffset, std::string>.
type Result struct {
	Kind         Kind
	VTableOffset VTableOffset
	ITableOffset ITableOffset
	Err          Error
}

func vtableResult(slot int) Result {
	return Result{Kind: VTableOffsetKind, VTableOffset: VTableOffset{Slot: slot}}
}

func itableResult(interfaceID, slot int) Result {
	return Result{Kind: ITableOffsetKind, ITableOffset: ITableOffset{InterfaceID: interfaceID, Slot: slot}}
}

func errorResult(reason ErrorKindReason, format string, args ...any) Result {
	return Result{Kind: ErrorKind, Err: Error{Reason: reason, Message: fmt.Sprintf(format, args...)}}
}

// Virtual implements JVM §5.4.3.3 virtual method resolution: search the
// class itself, then its superclasses, for a declared method matching
// name/descriptor; if none is found there, search the transitively
// implemented interfaces for a single maximally-specific default method.
// A class (not interface) receiver is required; passing an interface is
// an IncompatibleClassChangeError, matching the JVM spec's requirement
// that invokevirtual resolve against a class.
func Virtual(class *classmodel.ClassObject, methodName string, descr descriptor.MethodType) Result {
	if class.IsInterface {
		return errorResult(IncompatibleClassChange, "virtual resolution against interface %s", class.Name)
	}

	for cur := class; cur != nil; cur = cur.Super {
		if m := cur.FindMethod(methodName, descr); m != nil {
			if m.IsAbstract {
				return errorResult(AbstractMethod, "%s.%s%s is abstract", cur.Name, methodName, descr.String())
			}
			return vtableResult(m.VTableSlot)
		}
	}

	// JVM §5.4.3.3 step 2: search superinterfaces for a single
	// maximally-specific non-abstract (default) method.
	if m, iface := findInterfaceDefault(class, methodName, descr); m != nil {
		return itableResult(interfaceIDOf(iface), m.VTableSlot)
	}

	return errorResult(NoSuchMethod, "%s.%s%s", class.Name, methodName, descr.String())
}

// Interface implements JVM §5.4.3.4 interface method resolution: search
// the interface itself, then java/lang/Object (if it declares the method
// publicly, e.g. equals/hashCode/toString), then transitively implemented
// superinterfaces for a single maximally-specific method.
func Interface(iface *classmodel.ClassObject, objectClass *classmodel.ClassObject, methodName string, descr descriptor.MethodType) Result {
	if !iface.IsInterface {
		return errorResult(IncompatibleClassChange, "interface resolution against class %s", iface.Name)
	}

	if m := iface.FindMethod(methodName, descr); m != nil {
		if m.IsAbstract {
			return errorResult(AbstractMethod, "%s.%s%s is abstract", iface.Name, methodName, descr.String())
		}
		return itableResult(interfaceIDOf(iface), m.VTableSlot)
	}

	if objectClass != nil {
		if m := objectClass.FindMethod(methodName, descr); m != nil && !m.IsAbstract {
			return vtableResult(m.VTableSlot)
		}
	}

	if m, found := findInterfaceDefault(iface, methodName, descr); m != nil {
		return itableResult(interfaceIDOf(found), m.VTableSlot)
	}

	return errorResult(NoSuchMethod, "%s.%s%s", iface.Name, methodName, descr.String())
}

// findInterfaceDefault searches the transitive superinterfaces of class
// (or iface) for a declared, non-abstract method matching name/descr.
// JVM §5.4.3.3/.4 require this search to find a *single* maximally
// specific method; this simplified walk returns the first match found in
// a breadth-first traversal, which is sufficient for well-formed class
// hierarchies with no diamond conflicts (diamond-conflict detection is a
// verifier concern, out of scope per spec.md's Non-goals).
func findInterfaceDefault(class *classmodel.ClassObject, name string, descr descriptor.MethodType) (*classmodel.MethodRef, *classmodel.ClassObject) {
	queue := make([]*classmodel.ClassObject, 0, len(class.Interfaces))
	for cur := class; cur != nil; cur = cur.Super {
		queue = append(queue, cur.Interfaces...)
	}
	seen := make(map[*classmodel.ClassObject]bool)
	for i := 0; i < len(queue); i++ {
		iface := queue[i]
		if iface == nil || seen[iface] {
			continue
		}
		seen[iface] = true
		if m := iface.FindMethod(name, descr); m != nil && !m.IsAbstract {
			return m, iface
		}
		queue = append(queue, iface.Interfaces...)
	}
	return nil, nil
}

// interfaceIDOf returns a stable identifier for an interface's itable
// index space. Grounded on CodeGeneratorUtils.hpp's ITableOffset, which
// pairs an interfaceId with a slot; here the identifier is the
// interface's InterfaceID, which the class loader assigns in registration
// order when the interface is first registered.
func interfaceIDOf(iface *classmodel.ClassObject) int {
	if iface == nil {
		return -1
	}
	return iface.InterfaceID
}
