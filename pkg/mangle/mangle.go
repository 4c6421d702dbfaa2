// Package mangle implements the five mangling grammars used to name
// compiler-generated stub symbols, and the demangler that recovers the
// structured call/access they were generated for.
//
// Direct-call mangling is one-way: compiled code calls a direct-call
// symbol only when the target method is already known to exist in an
// already-loaded class, so there is never a need to demangle it back.
// The other four grammars round-trip through Demangle.
package mangle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/jlazylink/pkg/descriptor"
)

// Resolution distinguishes the three ways a method call can require
// dynamic dispatch, per JVM §5.4.3.3/.4 and the invokespecial rule of
// JVM §6.5.
type Resolution uint8

const (
	Virtual Resolution = iota
	Interface
	Special
)

func (r Resolution) String() string {
	switch r {
	case Virtual:
		return "Virtual"
	case Interface:
		return "Interface"
	case Special:
		return "Special"
	default:
		return fmt.Sprintf("Resolution(%d)", uint8(r))
	}
}

const (
	virtualPrefix   = "Virtual Call to "
	interfacePrefix = "Interface Call to "
	specialPrefix   = "Special Call to "
	staticPrefix    = "Static Call to "
	loadPrefix      = "Load "
)

// MangleDirectMethodCall implements the <direct-call> grammar:
//
//	<direct-call> ::= <class-name> '.' <method-name> ':' <descriptor>
func MangleDirectMethodCall(className, methodName string, descr descriptor.MethodType) string {
	return className + "." + methodName + ":" + descr.String()
}

// MangleFieldAccess implements the <field-access> grammar:
//
//	<field-access> ::= <class-name> '.' <field-name> ':' <descriptor>
//
// The caller must already know whether the field is static or instance;
// the mangled name alone does not distinguish them (see spec.md's C5/C6
// call sites, which pick the static-address or instance-offset code path
// based on context, not on the symbol name).
func MangleFieldAccess(className, fieldName string, descr descriptor.FieldType) string {
	return className + "." + fieldName + ":" + descr.String()
}

// MangleMethodResolutionCall implements the <method-resolution-call> grammar:
//
//	<method-resolution-call> ::= <method-resolution> <direct-call>
//	<method-resolution>      ::= 'Virtual Call to ' | 'Interface Call to ' | 'Special Call to '
func MangleMethodResolutionCall(resolution Resolution, className, methodName string, descr descriptor.MethodType) string {
	return resolutionPrefix(resolution) + MangleDirectMethodCall(className, methodName, descr)
}

func resolutionPrefix(r Resolution) string {
	switch r {
	case Virtual:
		return virtualPrefix
	case Interface:
		return interfacePrefix
	case Special:
		return specialPrefix
	default:
		panic("mangle: invalid Resolution")
	}
}

// MangleStaticCall implements the <static-call> grammar:
//
//	<static-call> ::= 'Static Call to ' <direct-call>
func MangleStaticCall(className, methodName string, descr descriptor.MethodType) string {
	return staticPrefix + MangleDirectMethodCall(className, methodName, descr)
}

// MangleClassObjectAccess implements the <class-object-access> grammar:
//
//	<class-object-access> ::= 'Load ' <descriptor>
func MangleClassObjectAccess(descr descriptor.FieldType) string {
	return loadPrefix + descr.String()
}

// Kind discriminates the variants a demangled symbol can produce.
type Kind uint8

const (
	// None means symbolName was not produced by any of the Mangle*
	// functions above (other than MangleDirectMethodCall, which is never
	// demangled).
	None Kind = iota
	FieldAccessKind
	MethodResolutionCallKind
	StaticCallKind
	ClassObjectAccessKind
)

// FieldAccess is the structured form of a symbol produced by MangleFieldAccess.
type FieldAccess struct {
	ClassName  string
	FieldName  string
	Descriptor descriptor.FieldType
}

// MethodResolutionCall is the structured form of a symbol produced by
// MangleMethodResolutionCall.
type MethodResolutionCall struct {
	Resolution Resolution
	ClassName  string
	MethodName string
	Descriptor descriptor.MethodType
}

// StaticCall is the structured form of a symbol produced by MangleStaticCall.
type StaticCall struct {
	ClassName  string
	MethodName string
	Descriptor descriptor.MethodType
}

// Demangled is the tagged union returned by Demangle. Exactly one of the
// FieldAccess/MethodResolutionCall/StaticCall/ClassObjectAccess fields is
// meaningful, selected by Kind.
type Demangled struct {
	Kind                 Kind
	FieldAccess          FieldAccess
	MethodResolutionCall MethodResolutionCall
	StaticCall           StaticCall
	ClassObjectAccess    descriptor.FieldType
}

// ErrNotAMangledSymbol is a sentinel error distinct from a malformed
// symbol: it means symbolName simply isn't the output of Mangle*. Callers
// that want the upstream "return monostate" behavior should check for it
// with errors.Is and treat it as Kind == None rather than a hard failure.
var ErrNotAMangledSymbol = errors.New("mangle: not a mangled stub symbol")

// Demangle attempts to parse symbolName as the output of one of
// MangleFieldAccess, MangleMethodResolutionCall, MangleStaticCall, or
// MangleClassObjectAccess. It returns ErrNotAMangledSymbol (wrapped) if
// the string matches none of those four grammars syntactically; it
// returns a different error if a grammar matches but the embedded
// descriptor fails to parse.
func Demangle(symbolName string) (Demangled, error) {
	if rest, ok := strings.CutPrefix(symbolName, loadPrefix); ok {
		ft, err := descriptor.ParseFieldType(rest)
		if err != nil {
			return Demangled{}, fmt.Errorf("mangle: class-object-access symbol %q: %w", symbolName, err)
		}
		return Demangled{Kind: ClassObjectAccessKind, ClassObjectAccess: ft}, nil
	}

	if rest, ok := strings.CutPrefix(symbolName, staticPrefix); ok {
		sc, err := parseDirectMethodCall(rest)
		if err != nil {
			return Demangled{}, fmt.Errorf("mangle: static-call symbol %q: %w", symbolName, err)
		}
		return Demangled{Kind: StaticCallKind, StaticCall: StaticCall(sc)}, nil
	}

	for _, pair := range []struct {
		prefix     string
		resolution Resolution
	}{
		{virtualPrefix, Virtual},
		{interfacePrefix, Interface},
		{specialPrefix, Special},
	} {
		if rest, ok := strings.CutPrefix(symbolName, pair.prefix); ok {
			sc, err := parseDirectMethodCall(rest)
			if err != nil {
				return Demangled{}, fmt.Errorf("mangle: method-resolution-call symbol %q: %w", symbolName, err)
			}
			return Demangled{
				Kind: MethodResolutionCallKind,
				MethodResolutionCall: MethodResolutionCall{
					Resolution: pair.resolution,
					ClassName:  sc.ClassName,
					MethodName: sc.MethodName,
					Descriptor: sc.Descriptor,
				},
			}, nil
		}
	}

	// Only <field-access> remains: <class-name> '.' <field-name> ':' <descriptor>,
	// where <descriptor> is a FieldType rather than a MethodType.
	if fa, ok, err := tryParseFieldAccess(symbolName); ok {
		if err != nil {
			return Demangled{}, fmt.Errorf("mangle: field-access symbol %q: %w", symbolName, err)
		}
		return Demangled{Kind: FieldAccessKind, FieldAccess: fa}, nil
	}

	return Demangled{Kind: None}, fmt.Errorf("%w: %q", ErrNotAMangledSymbol, symbolName)
}

// parseDirectMethodCall parses the <direct-call> grammar body
// (<class-name> '.' <method-name> ':' <descriptor>) where <descriptor> is
// a MethodType descriptor beginning with '('.
func parseDirectMethodCall(s string) (StaticCall, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return StaticCall{}, fmt.Errorf("missing ':' separator in %q", s)
	}
	head, descStr := s[:colon], s[colon+1:]

	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return StaticCall{}, fmt.Errorf("missing '.' separator in %q", head)
	}
	className, methodName := head[:dot], head[dot+1:]
	if className == "" || methodName == "" {
		return StaticCall{}, fmt.Errorf("empty class or method name in %q", s)
	}

	descr, err := descriptor.ParseMethodType(descStr)
	if err != nil {
		return StaticCall{}, err
	}
	return StaticCall{ClassName: className, MethodName: methodName, Descriptor: descr}, nil
}

// tryParseFieldAccess attempts the <field-access> grammar. Unlike
// parseDirectMethodCall, a field descriptor never starts with '(', which
// is what distinguishes a true field-access symbol from a
// direct-call-shaped string (a MethodType descriptor) that happened to
// reach here: such a string is not in this grammar at all, so it is
// declined (ok == false, not an error) rather than run through
// ParseFieldType and reported as a malformed field access. A failure to
// find separators is likewise a decline; finding separators, seeing a
// FieldType-shaped descriptor, and still failing to parse it is the only
// genuine error this function reports.
func tryParseFieldAccess(s string) (FieldAccess, bool, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 0 {
		return FieldAccess{}, false, nil
	}
	head, descStr := s[:colon], s[colon+1:]

	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return FieldAccess{}, false, nil
	}
	className, fieldName := head[:dot], head[dot+1:]
	if className == "" || fieldName == "" {
		return FieldAccess{}, false, nil
	}
	if strings.HasPrefix(descStr, "(") {
		return FieldAccess{}, false, nil
	}

	ft, err := descriptor.ParseFieldType(descStr)
	if err != nil {
		return FieldAccess{}, true, err
	}
	return FieldAccess{ClassName: className, FieldName: fieldName, Descriptor: ft}, true, nil
}
