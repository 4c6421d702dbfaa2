// Package ir defines the narrow IR-builder interface that pkg/opstack,
// pkg/lazylink and pkg/materialize compile against, plus a minimal
// concrete implementation sufficient to drive and test them. The real
// code generator that ultimately turns this IR into machine code is out
// of scope for this module; callers are expected to supply their own
// Builder implementation in production.
package ir

// Type is an opaque handle to an IR value type (e.g. a pointer type, an
// i32, a reference type). Builder implementations decide what concrete
// representation it carries.
type Type interface {
	// Name reports a human-readable name for diagnostics.
	Name() string
}

// Value is an opaque handle to an IR value produced by a Builder
// instruction.
type Value interface {
	// Type reports the IR type of the value.
	Type() Type
}

// Slot is an opaque handle to an addressable IR storage location (the
// analogue of an LLVM AllocaInst), used as the backing store for each
// shadow-stack depth in pkg/opstack.
type Slot interface{}

// Block is an opaque handle to a basic block.
type Block interface {
	// Name reports a human-readable label for diagnostics.
	Name() string
}

// Builder is the narrow interface the compiler front-end needs from a
// real IR/codegen layer: allocate storage, load/store it, emit calls, and
// read/move the current insertion point. It deliberately mirrors the
// small surface LazyClassLoaderHelper/OperandStack use from LLVM's
// IRBuilder in the upstream implementation (CreateAlloca, CreateLoad,
// CreateStore, CreateCall, GetInsertBlock/SetInsertPoint).
type Builder interface {
	// Alloca reserves one addressable slot of the given type, valid for
	// the lifetime of the current function.
	Alloca(t Type) Slot
	// Load reads the current value out of a slot.
	Load(t Type, slot Slot) Value
	// Store writes value into a slot.
	Store(value Value, slot Slot)

	// CreateCall emits a call to the function named by symbol with args,
	// returning the call's result value (nil if the callee is void).
	// symbol is either a mangled stub symbol (see pkg/mangle) or a
	// concrete function name once a call site has been patched to call
	// directly.
	CreateCall(symbol string, args []Value, resultType Type) Value

	// CreateVTableCall emits an indirect call that loads a function
	// pointer from receiver's class vtable at slot and calls it with
	// args, used for the fast path of a virtual call once the receiver's
	// class is known to be loaded and its vtable layout fixed.
	CreateVTableCall(receiver Value, slot int, args []Value, resultType Type) Value
	// CreateITableCall is CreateVTableCall's analogue for a dispatch
	// through an interface table identified by interfaceID.
	CreateITableCall(receiver Value, interfaceID, slot int, args []Value, resultType Type) Value

	// CreateIntConstant materializes a constant integer value of the
	// given bit width.
	CreateIntConstant(bits int, value int64) Value
	// CreatePointerConstant materializes a constant pointer value, used
	// for offsets and addresses returned by resolution.
	CreatePointerConstant(value uintptr) Value

	// CurrentBlock returns the block currently being appended to.
	CurrentBlock() Block
	// SetInsertPoint moves subsequent emission to the end of b.
	SetInsertPoint(b Block)

	// PointerType, IntType and ReferenceType return the Types this
	// Builder uses for pointers, integers of the given bit width, and
	// JVM object references, respectively.
	PointerType() Type
	IntType(bits int) Type
	ReferenceType() Type
}
