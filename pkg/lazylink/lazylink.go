// Package lazylink implements the lazy helper / call materializer
// (spec.md C5): for each JVM call or field access the JIT front-end
// needs to emit, it decides whether the target class is already loaded
// (fast path: emit a direct call, offset, or vtable/itable dispatch) or
// not (slow path: emit a call to a mangled stub symbol, whose
// materialization - performed by pkg/materialize - loads the class,
// runs JVM §5.5 initialization side effects, and resolves the target
// before returning control to the caller).
//
// Grounded on CodeGeneratorUtils.hpp's LazyClassLoaderHelper: this
// mirrors its doNonVirtualCall/doIndirectCall/getInstanceFieldOffset/
// getStaticFieldAddress/getClassObject surface with Go errors instead of
// LLVM fatal-error aborts, and with the class-initializer-stub step
// factored into its own reusable helper rather than being inlined at
// every call site.
package lazylink

import (
	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/descriptor"
	"github.com/chazu/jlazylink/pkg/ir"
	"github.com/chazu/jlazylink/pkg/mangle"
	"github.com/chazu/jlazylink/pkg/resolve"
)

// Resolution selects which JVM dispatch algorithm doIndirectCall applies,
// mirroring LazyClassLoaderHelper::MethodResolution (a strict subset of
// mangle.Resolution: invokespecial is handled by doNonVirtualCall, not
// doIndirectCall, because it never dispatches dynamically).
type Resolution uint8

const (
	Virtual Resolution = iota
	Interface
)

func (r Resolution) mangleResolution() mangle.Resolution {
	if r == Interface {
		return mangle.Interface
	}
	return mangle.Virtual
}

// Helper is the Go analogue of LazyClassLoaderHelper: given a class
// loader, it emits either fast-path or slow-path IR for each of the
// call/field/class-object access shapes the compiler front-end needs.
type Helper struct {
	loader *classmodel.ClassLoader
}

// New creates a Helper backed by loader.
func New(loader *classmodel.ClassLoader) *Helper {
	return &Helper{loader: loader}
}

// emitClassInitCheck emits the IR for ensuring classObject's <clinit> has
// run before any of its static state is touched, kept factored out so
// every call site below (static field access, static call, class-object
// access) shares one implementation instead of inlining it three times,
// per SPEC_FULL.md's supplemented-features note on
// buildClassInitializerInitStub. A no-op once classObject has already
// reached Initialized. The guard reuses the <class-object-access> grammar
// rather than inventing a sixth one: pkg/materialize's
// materializeClassObjectAccess already forces initialization as a side
// effect of resolving one, which is exactly the "drive
// Uninitialized/Initializing to Initialized" effect this guard needs, and
// the returned pointer is simply discarded here.
func emitClassInitCheck(builder ir.Builder, classObject *classmodel.ClassObject) {
	if classObject.InitState() == classmodel.Initialized {
		return
	}
	sym := mangle.MangleClassObjectAccess(descriptor.NewObjectType(classObject.Name))
	builder.CreateCall(sym, nil, nil)
}

// doNonVirtualCall implements invokestatic and invokespecial: 'methodName'
// of type 'methodType' within 'className', with no dynamic dispatch.
func (h *Helper) doNonVirtualCall(builder ir.Builder, isStatic bool, className, methodName string, methodType descriptor.MethodType, args []ir.Value, special bool) ir.Value {
	resultType := nonVoidType(builder, methodType.ReturnType)

	// The fast path only needs className's class to be loaded, not
	// Initialized: invokestatic is the one JVM §5.5 trigger among the two
	// calls this helper serves, so only the isStatic branch needs a guard,
	// emitted for a loaded-but-not-yet-Initialized class; invokespecial
	// never triggers initialization by itself.
	class := h.loader.ForNameLoaded(className)
	if class != nil {
		if isStatic {
			emitClassInitCheck(builder, class)
		}
		sym := mangle.MangleDirectMethodCall(className, methodName, methodType)
		return builder.CreateCall(sym, args, resultType)
	}

	var sym string
	switch {
	case isStatic:
		sym = mangle.MangleStaticCall(className, methodName, methodType)
	case special:
		sym = mangle.MangleMethodResolutionCall(mangle.Special, className, methodName, methodType)
	default:
		sym = mangle.MangleDirectMethodCall(className, methodName, methodType)
	}
	return builder.CreateCall(sym, args, resultType)
}

// DoStaticCall emits invokestatic.
func (h *Helper) DoStaticCall(builder ir.Builder, className, methodName string, methodType descriptor.MethodType, args []ir.Value) ir.Value {
	return h.doNonVirtualCall(builder, true, className, methodName, methodType, args, false)
}

// DoSpecialCall emits invokespecial.
func (h *Helper) DoSpecialCall(builder ir.Builder, className, methodName string, methodType descriptor.MethodType, args []ir.Value) ir.Value {
	return h.doNonVirtualCall(builder, false, className, methodName, methodType, args, true)
}

// DoIndirectCall implements invokevirtual and invokeinterface: resolves
// 'methodName' of type 'methodType' within 'className' using 'resolution',
// then emits either a direct vtable/itable dispatch (fast path, class
// already loaded and Initialized) or a call to a resolution stub (slow
// path).
func (h *Helper) DoIndirectCall(builder ir.Builder, className, methodName string, methodType descriptor.MethodType, receiver ir.Value, args []ir.Value, resolution Resolution) (ir.Value, error) {
	resultType := nonVoidType(builder, methodType.ReturnType)
	callArgs := append([]ir.Value{receiver}, args...)

	class := h.loader.ForNameLoaded(className)
	if class != nil && class.InitState() == classmodel.Initialized {
		var result resolve.Result
		if resolution == Interface {
			result = resolve.Interface(class, h.loader.ForNameLoaded("java/lang/Object"), methodName, methodType)
		} else {
			result = resolve.Virtual(class, methodName, methodType)
		}
		switch result.Kind {
		case resolve.VTableOffsetKind:
			return builder.CreateVTableCall(receiver, result.VTableOffset.Slot, callArgs, resultType), nil
		case resolve.ITableOffsetKind:
			return builder.CreateITableCall(receiver, result.ITableOffset.InterfaceID, result.ITableOffset.Slot, callArgs, resultType), nil
		case resolve.ErrorKind:
			return nil, result.Err
		}
	}

	sym := mangle.MangleMethodResolutionCall(resolution.mangleResolution(), className, methodName, methodType)
	return builder.CreateCall(sym, callArgs, resultType), nil
}

// GetInstanceFieldOffset returns an IR integer constant with the byte
// offset of 'fieldName' with type 'fieldType' within 'className' (fast
// path, class already loaded and Initialized), or a call to a
// field-access stub that computes and returns it (slow path).
func (h *Helper) GetInstanceFieldOffset(builder ir.Builder, className, fieldName string, fieldType descriptor.FieldType) ir.Value {
	class := h.loader.ForNameLoaded(className)
	if class != nil && class.InitState() == classmodel.Initialized {
		if f := class.FindField(fieldName); f != nil && !f.IsStatic {
			return builder.CreateIntConstant(64, int64(f.Offset))
		}
	}
	sym := mangle.MangleFieldAccess(className, fieldName, fieldType)
	return builder.CreateCall(sym, nil, builder.IntType(64))
}

// GetStaticFieldAddress returns an IR pointer to the static field
// 'fieldName' with type 'fieldType' within 'className' (fast path), or a
// call to a field-access stub that loads/initializes the class and
// returns the address (slow path).
func (h *Helper) GetStaticFieldAddress(builder ir.Builder, className, fieldName string, fieldType descriptor.FieldType) ir.Value {
	class := h.loader.ForNameLoaded(className)
	if class != nil {
		if f := class.FindField(fieldName); f != nil && f.IsStatic {
			emitClassInitCheck(builder, class)
			return builder.CreatePointerConstant(uintptr(f.Offset))
		}
	}
	sym := mangle.MangleFieldAccess(className, fieldName, fieldType)
	return builder.CreateCall(sym, nil, builder.PointerType())
}

// GetClassObject returns an IR pointer to the loaded class object for
// fieldDescriptor (fast path), or a call to a class-object-access stub
// that loads it (slow path). When mustInitialize is true the fast path
// also emits the class-initializer check, matching the upstream's
// mustInitializeClassObject flag.
func (h *Helper) GetClassObject(builder ir.Builder, fieldDescriptor descriptor.FieldType, mustInitialize bool) ir.Value {
	if fieldDescriptor.IsReference() && fieldDescriptor.Kind() == descriptor.ObjectKind {
		if class := h.loader.ForNameLoaded(fieldDescriptor.ClassName()); class != nil {
			if mustInitialize {
				emitClassInitCheck(builder, class)
			}
			return builder.CreatePointerConstant(0)
		}
	}
	sym := mangle.MangleClassObjectAccess(fieldDescriptor)
	return builder.CreateCall(sym, nil, builder.PointerType())
}

// nonVoidType returns the IR type for ft, or nil if ft is the JVM void
// return type (meaning the callee produces no IR result value).
func nonVoidType(builder ir.Builder, ft descriptor.FieldType) ir.Type {
	if ft.Kind() == descriptor.BaseTypeKind && ft.Base() == descriptor.Void {
		return nil
	}
	return irTypeOf(builder, ft)
}

// irTypeOf maps a JVM FieldType to the Builder's IR type system: integral
// base types become sized integers, Double/Float map to their own
// (opaque, Builder-defined) IR types via IntType placeholders sized to
// their JVM category, and reference types map to ReferenceType.
func irTypeOf(builder ir.Builder, ft descriptor.FieldType) ir.Type {
	if ft.IsReference() {
		return builder.ReferenceType()
	}
	switch ft.Base() {
	case descriptor.Byte:
		return builder.IntType(8)
	case descriptor.Char, descriptor.Short:
		return builder.IntType(16)
	case descriptor.Boolean:
		return builder.IntType(1)
	case descriptor.Int, descriptor.Float:
		return builder.IntType(32)
	case descriptor.Long, descriptor.Double:
		return builder.IntType(64)
	default:
		return builder.IntType(32)
	}
}
