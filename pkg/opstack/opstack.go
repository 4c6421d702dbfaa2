// Package opstack implements the typed shadow operand stack used while
// translating JVM bytecode to IR: one pre-allocated IR slot per stack
// depth (sized to the method's max_stack), with save/restore support for
// control-flow merge points and a dedicated single-slot state for
// exception-handler entry.
package opstack

import "github.com/chazu/jlazylink/pkg/ir"

// State is an opaque snapshot of an OperandStack's shape (the type at
// each occupied depth, and how many depths are occupied) captured by
// SaveState and restored by RestoreState. It holds no IR values: the
// underlying slots are reused across control-flow paths, only the type
// bookkeeping needs to travel with a control-flow edge.
type State struct {
	types []ir.Type
	top   int
}

// OperandStack is a typed shadow stack over pre-allocated IR slots. It is
// not safe for concurrent use: one compilation (one goroutine) owns one
// OperandStack per method being translated.
type OperandStack struct {
	builder ir.Builder
	slots   []ir.Slot
	types   []ir.Type
	top     int
}

// New creates an OperandStack with maxStack slots pre-allocated via
// builder.Alloca, one per possible JVM operand stack depth, mirroring the
// upstream OperandStack constructor.
func New(builder ir.Builder, maxStack uint16) *OperandStack {
	s := &OperandStack{
		builder: builder,
		slots:   make([]ir.Slot, maxStack),
		types:   make([]ir.Type, maxStack),
	}
	ptrType := builder.PointerType()
	for i := range s.slots {
		s.slots[i] = builder.Alloca(ptrType)
	}
	return s
}

// Pop removes and returns the top value of the stack.
func (s *OperandStack) Pop() ir.Value {
	v, _ := s.PopWithType()
	return v
}

// PopWithType removes and returns the top value of the stack along with
// the IR type it was pushed with.
func (s *OperandStack) PopWithType() (ir.Value, ir.Type) {
	s.top--
	t := s.types[s.top]
	return s.builder.Load(t, s.slots[s.top]), t
}

// Push stores value at the current top of the stack and advances it,
// recording value's IR type for the matching Pop.
func (s *OperandStack) Push(value ir.Value) {
	s.types[s.top] = value.Type()
	s.builder.Store(value, s.slots[s.top])
	s.top++
}

// Depth reports the number of values currently on the stack.
func (s *OperandStack) Depth() int { return s.top }

// SaveState captures the current stack shape so it can be restored when
// resuming emission along a different control-flow path (e.g. after
// emitting one arm of a branch and returning to emit the other).
func (s *OperandStack) SaveState() State {
	types := make([]ir.Type, len(s.types))
	copy(types, s.types)
	return State{types: types, top: s.top}
}

// RestoreState replaces the stack's shape with a previously saved one.
// The underlying IR slots are unchanged; only the bookkeeping of which
// depths are occupied and with what type is restored, matching the
// upstream restoreState semantics.
func (s *OperandStack) RestoreState(state State) {
	s.types = make([]ir.Type, len(s.slots))
	copy(s.types, state.types)
	s.top = state.top
}

// HandlerState returns the fixed single-entry stack state used when
// emitting an exception handler's entry block: JVM semantics guarantee
// the operand stack contains exactly one value (the thrown Throwable
// reference) when a handler begins executing.
func (s *OperandStack) HandlerState() State {
	return State{types: []ir.Type{s.builder.ReferenceType()}, top: 1}
}

// SetHandlerStack stores value (the caught exception reference) into
// slot zero and records its type, matching HandlerState's single-entry
// convention. Callers call RestoreState(HandlerState()) first: that sets
// the depth to 1 and resets slot zero's recorded type to ReferenceType,
// so restoring it after this call discards the type recorded here.
func (s *OperandStack) SetHandlerStack(value ir.Value) {
	s.types[0] = value.Type()
	s.builder.Store(value, s.slots[0])
}
