// Package descriptor parses JVM field and method descriptors (JVM
// Specification §4.3) into a typed representation.
package descriptor

import (
	"errors"
	"fmt"
	"strings"
)

// BaseKind identifies one of the eight JVM primitive types, or void.
type BaseKind uint8

const (
	Byte BaseKind = iota
	Char
	Double
	Float
	Int
	Long
	Short
	Boolean
	Void
)

func (k BaseKind) String() string {
	switch k {
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Double:
		return "double"
	case Float:
		return "float"
	case Int:
		return "int"
	case Long:
		return "long"
	case Short:
		return "short"
	case Boolean:
		return "boolean"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("BaseKind(%d)", uint8(k))
	}
}

// letter returns the single-character JVM descriptor code for k.
func (k BaseKind) letter() byte {
	switch k {
	case Byte:
		return 'B'
	case Char:
		return 'C'
	case Double:
		return 'D'
	case Float:
		return 'F'
	case Int:
		return 'I'
	case Long:
		return 'J'
	case Short:
		return 'S'
	case Boolean:
		return 'Z'
	case Void:
		return 'V'
	default:
		panic("descriptor: invalid BaseKind")
	}
}

// baseKindOf maps a descriptor letter to a BaseKind. ok is false for any
// byte that is not one of the nine primitive/void codes.
func baseKindOf(c byte) (BaseKind, bool) {
	switch c {
	case 'B':
		return Byte, true
	case 'C':
		return Char, true
	case 'D':
		return Double, true
	case 'F':
		return Float, true
	case 'I':
		return Int, true
	case 'J':
		return Long, true
	case 'S':
		return Short, true
	case 'Z':
		return Boolean, true
	case 'V':
		return Void, true
	default:
		return 0, false
	}
}

// FieldType is the sum type produced by JVM §4.3.2's FieldDescriptor
// grammar: a primitive base type, a class/interface reference type, or an
// array type. Exactly one of the Base/Object/Array accessors is valid for
// any given FieldType; use Kind to discriminate.
type FieldType struct {
	kind TypeKind

	base BaseKind
	// className is the internal (slash-separated) binary name, valid
	// when kind == ObjectKind.
	className string
	// elem is the component type, valid when kind == ArrayKind. It is
	// never nil for a well-formed ArrayKind value.
	elem *FieldType
}

// TypeKind discriminates the FieldType sum.
type TypeKind uint8

const (
	BaseTypeKind TypeKind = iota
	ObjectKind
	ArrayKind
)

// Kind reports which alternative of the FieldType sum this value holds.
func (f FieldType) Kind() TypeKind { return f.kind }

// Base returns the primitive kind. Valid only when Kind() == BaseTypeKind.
func (f FieldType) Base() BaseKind { return f.base }

// ClassName returns the internal binary class name (e.g. "java/lang/String").
// Valid only when Kind() == ObjectKind.
func (f FieldType) ClassName() string { return f.className }

// Elem returns the array component type. Valid only when Kind() == ArrayKind.
func (f FieldType) Elem() *FieldType { return f.elem }

// NewBaseType constructs a FieldType wrapping a primitive kind. It accepts
// Void, which ParseMethodType uses for a void return type; ParseFieldType
// never produces a Void FieldType.
func NewBaseType(k BaseKind) FieldType {
	return FieldType{kind: BaseTypeKind, base: k}
}

// NewObjectType constructs a FieldType referencing a class or interface by
// its internal binary name (no leading 'L', no trailing ';').
func NewObjectType(className string) FieldType {
	return FieldType{kind: ObjectKind, className: className}
}

// NewArrayType constructs a FieldType whose component type is elem.
func NewArrayType(elem FieldType) FieldType {
	return FieldType{kind: ArrayKind, elem: &elem}
}

// Equal reports whether two FieldTypes denote the same descriptor.
func (f FieldType) Equal(o FieldType) bool {
	if f.kind != o.kind {
		return false
	}
	switch f.kind {
	case BaseTypeKind:
		return f.base == o.base
	case ObjectKind:
		return f.className == o.className
	case ArrayKind:
		return f.elem.Equal(*o.elem)
	default:
		return false
	}
}

// String renders the JVM descriptor syntax for f, e.g. "I", "Ljava/lang/String;", "[[I".
func (f FieldType) String() string {
	var b strings.Builder
	f.writeTo(&b)
	return b.String()
}

func (f FieldType) writeTo(b *strings.Builder) {
	switch f.kind {
	case BaseTypeKind:
		b.WriteByte(f.base.letter())
	case ObjectKind:
		b.WriteByte('L')
		b.WriteString(f.className)
		b.WriteByte(';')
	case ArrayKind:
		b.WriteByte('[')
		f.elem.writeTo(b)
	}
}

// IsReference reports whether f is a reference type (object or array),
// matching the upstream isReferenceDescriptor helper (front() == 'L' || '[').
func (f FieldType) IsReference() bool {
	return f.kind == ObjectKind || f.kind == ArrayKind
}

// MethodType is the ADT produced by JVM §4.3.3's MethodDescriptor grammar:
// an ordered parameter list plus a return type (which may be Void, unlike
// any FieldType appearing as a parameter).
type MethodType struct {
	Parameters []FieldType
	ReturnType FieldType
}

// String renders the JVM descriptor syntax for m, e.g. "(ID)Ljava/lang/String;".
func (m MethodType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Parameters {
		p.writeTo(&b)
	}
	b.WriteByte(')')
	m.ReturnType.writeTo(&b)
	return b.String()
}

// Equal reports whether two MethodTypes denote the same descriptor.
func (m MethodType) Equal(o MethodType) bool {
	if !m.ReturnType.Equal(o.ReturnType) || len(m.Parameters) != len(o.Parameters) {
		return false
	}
	for i := range m.Parameters {
		if !m.Parameters[i].Equal(o.Parameters[i]) {
			return false
		}
	}
	return true
}

// ErrInvalidDescriptor is wrapped by every parse failure below.
var ErrInvalidDescriptor = errors.New("descriptor: invalid descriptor")

// ParseFieldType parses s as a JVM field descriptor (JVM §4.3.2). Unlike
// the upstream C++ implementation, which aborts the process on malformed
// input, this returns a typed error: malformed class files must not be
// allowed to crash the compiler.
func ParseFieldType(s string) (FieldType, error) {
	ft, rest, err := parseFieldType(s)
	if err != nil {
		return FieldType{}, err
	}
	if rest != "" {
		return FieldType{}, fmt.Errorf("%w: %q: trailing data %q", ErrInvalidDescriptor, s, rest)
	}
	return ft, nil
}

// parseFieldType parses a single field type from the front of s and
// returns the remainder of the string, mirroring the recursive-descent
// structure of the upstream parseFieldTypeImpl.
func parseFieldType(s string) (FieldType, string, error) {
	if s == "" {
		return FieldType{}, "", fmt.Errorf("%w: empty descriptor", ErrInvalidDescriptor)
	}

	c := s[0]
	if c == '[' {
		elem, rest, err := parseFieldType(s[1:])
		if err != nil {
			return FieldType{}, "", err
		}
		return NewArrayType(elem), rest, nil
	}
	if c == 'L' {
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return FieldType{}, "", fmt.Errorf("%w: %q: unterminated class type", ErrInvalidDescriptor, s)
		}
		className := s[1:end]
		if className == "" {
			return FieldType{}, "", fmt.Errorf("%w: %q: empty class name", ErrInvalidDescriptor, s)
		}
		return NewObjectType(className), s[end+1:], nil
	}
	if k, ok := baseKindOf(c); ok {
		if k == Void {
			return FieldType{}, "", fmt.Errorf("%w: %q: void is not a valid field type", ErrInvalidDescriptor, s)
		}
		return NewBaseType(k), s[1:], nil
	}
	return FieldType{}, "", fmt.Errorf("%w: %q: unrecognized type code %q", ErrInvalidDescriptor, s, string(c))
}

// ParseMethodType parses s as a JVM method descriptor (JVM §4.3.3), e.g.
// "(Ljava/lang/String;I)V".
func ParseMethodType(s string) (MethodType, error) {
	if len(s) == 0 || s[0] != '(' {
		return MethodType{}, fmt.Errorf("%w: %q: method descriptor must start with '('", ErrInvalidDescriptor, s)
	}
	rest := s[1:]

	var params []FieldType
	for {
		if rest == "" {
			return MethodType{}, fmt.Errorf("%w: %q: unterminated parameter list", ErrInvalidDescriptor, s)
		}
		if rest[0] == ')' {
			rest = rest[1:]
			break
		}
		ft, next, err := parseFieldType(rest)
		if err != nil {
			return MethodType{}, err
		}
		if ft.Kind() == BaseTypeKind && ft.Base() == Void {
			return MethodType{}, fmt.Errorf("%w: %q: void is not a valid parameter type", ErrInvalidDescriptor, s)
		}
		params = append(params, ft)
		rest = next
	}

	if rest == "" {
		return MethodType{}, fmt.Errorf("%w: %q: missing return type", ErrInvalidDescriptor, s)
	}
	// The return type alone is allowed to be void, so parse it directly
	// rather than through parseFieldType's void rejection.
	var ret FieldType
	var err error
	if rest[0] == 'V' && len(rest) == 1 {
		ret = NewBaseType(Void)
		rest = ""
	} else {
		ret, rest, err = parseFieldType(rest)
		if err != nil {
			return MethodType{}, err
		}
	}
	if rest != "" {
		return MethodType{}, fmt.Errorf("%w: %q: trailing data %q after return type", ErrInvalidDescriptor, s, rest)
	}

	return MethodType{Parameters: params, ReturnType: ret}, nil
}
