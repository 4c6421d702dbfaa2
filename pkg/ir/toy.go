package ir

import "fmt"

// ToyType is the concrete Type used by ToyBuilder.
type ToyType struct {
	name string
	bits int
}

func (t ToyType) Name() string { return t.name }

// ToyValue is the concrete Value used by ToyBuilder.
type ToyValue struct {
	id  int
	typ ToyType
}

func (v ToyValue) Type() Type { return v.typ }

// ID reports the value's identity, for diagnostics and debug rendering
// (see pkg/trampoline/gen) that need to refer back to a prior
// instruction's result.
func (v ToyValue) ID() int { return v.id }

// ToySlot is the concrete Slot used by ToyBuilder.
type ToySlot struct {
	id  int
	typ ToyType
}

// ID reports the slot's identity, for debug rendering.
func (s ToySlot) ID() int { return s.id }

// Type reports the slot's element type, for debug rendering.
func (s ToySlot) Type() ToyType { return s.typ }

// ToyBlock is the concrete Block used by ToyBuilder.
type ToyBlock struct {
	label string
	instr []Instr
}

func (b *ToyBlock) Name() string { return b.label }

// Instr records one emitted operation, kept for inspection in tests and
// for the optional jennifer-based debug rendering in pkg/trampoline/gen.
type Instr struct {
	Op          string
	Symbol      string
	Args        []ToyValue
	Slot        *ToySlot
	Value       *ToyValue
	Result      *ToyValue
	IntBits     int
	IntVal      int64
	PtrVal      uintptr
	Receiver    *ToyValue
	TableSlot   int
	InterfaceID int
}

// ToyBuilder is a minimal in-memory Builder implementation: slots are
// just tagged cells, calls are recorded rather than executed, and blocks
// are flat instruction lists. It exists to exercise pkg/opstack,
// pkg/lazylink and pkg/materialize in tests without a real code
// generator backing them.
type ToyBuilder struct {
	blocks  []*ToyBlock
	current *ToyBlock
	nextID  int
	slots   []ToySlot

	// Calls records every CreateCall/CreateVTableCall/CreateITableCall in
	// emission order, for assertions in tests that a materializer emitted
	// the expected trampoline call.
	Calls []Instr

	// Instrs records every instruction emitted across all blocks, in
	// emission order, including constants and slot accesses that Calls
	// omits.
	Instrs []Instr
}

// NewToyBuilder creates a ToyBuilder with one entry block.
func NewToyBuilder() *ToyBuilder {
	entry := &ToyBlock{label: "entry"}
	return &ToyBuilder{blocks: []*ToyBlock{entry}, current: entry}
}

func (b *ToyBuilder) nextValue(t ToyType) ToyValue {
	b.nextID++
	return ToyValue{id: b.nextID, typ: t}
}

// emit appends instr to both the current block's instruction list and the
// builder-wide Instrs log.
func (b *ToyBuilder) emit(instr Instr) {
	b.current.instr = append(b.current.instr, instr)
	b.Instrs = append(b.Instrs, instr)
}

func (b *ToyBuilder) Alloca(t Type) Slot {
	tt := t.(ToyType)
	b.nextID++
	slot := ToySlot{id: b.nextID, typ: tt}
	b.slots = append(b.slots, slot)
	b.emit(Instr{Op: "alloca", Slot: &slot})
	return slot
}

func (b *ToyBuilder) Load(t Type, slot Slot) Value {
	s := slot.(ToySlot)
	v := b.nextValue(t.(ToyType))
	b.emit(Instr{Op: "load", Slot: &s, Result: &v})
	return v
}

func (b *ToyBuilder) Store(value Value, slot Slot) {
	s := slot.(ToySlot)
	v := value.(ToyValue)
	b.emit(Instr{Op: "store", Slot: &s, Value: &v})
}

func (b *ToyBuilder) CreateCall(symbol string, args []Value, resultType Type) Value {
	toyArgs := make([]ToyValue, len(args))
	for i, a := range args {
		toyArgs[i] = a.(ToyValue)
	}
	instr := Instr{Op: "call", Symbol: symbol, Args: toyArgs}
	var result ToyValue
	if resultType != nil {
		result = b.nextValue(resultType.(ToyType))
		instr.Result = &result
	}
	b.emit(instr)
	b.Calls = append(b.Calls, instr)
	if resultType == nil {
		return nil
	}
	return result
}

func (b *ToyBuilder) CreateVTableCall(receiver Value, slot int, args []Value, resultType Type) Value {
	return b.createOffsetCall("vtable_call", receiver, -1, slot, args, resultType)
}

func (b *ToyBuilder) CreateITableCall(receiver Value, interfaceID, slot int, args []Value, resultType Type) Value {
	return b.createOffsetCall("itable_call", receiver, interfaceID, slot, args, resultType)
}

func (b *ToyBuilder) createOffsetCall(op string, receiver Value, interfaceID, slot int, args []Value, resultType Type) Value {
	recv := receiver.(ToyValue)
	toyArgs := make([]ToyValue, len(args))
	for i, a := range args {
		toyArgs[i] = a.(ToyValue)
	}
	instr := Instr{Op: op, Receiver: &recv, InterfaceID: interfaceID, TableSlot: slot, Args: toyArgs}
	var result ToyValue
	if resultType != nil {
		result = b.nextValue(resultType.(ToyType))
		instr.Result = &result
	}
	b.emit(instr)
	b.Calls = append(b.Calls, instr)
	if resultType == nil {
		return nil
	}
	return result
}

func (b *ToyBuilder) CreateIntConstant(bits int, value int64) Value {
	v := b.nextValue(ToyType{name: fmt.Sprintf("i%d", bits), bits: bits})
	b.emit(Instr{Op: "iconst", Result: &v, IntBits: bits, IntVal: value})
	return v
}

func (b *ToyBuilder) CreatePointerConstant(value uintptr) Value {
	v := b.nextValue(ToyType{name: "ptr"})
	b.emit(Instr{Op: "pconst", Result: &v, PtrVal: value})
	return v
}

func (b *ToyBuilder) CurrentBlock() Block { return b.current }

func (b *ToyBuilder) SetInsertPoint(blk Block) { b.current = blk.(*ToyBlock) }

func (b *ToyBuilder) PointerType() Type { return ToyType{name: "ptr"} }

func (b *ToyBuilder) IntType(bits int) Type { return ToyType{name: fmt.Sprintf("i%d", bits), bits: bits} }

func (b *ToyBuilder) ReferenceType() Type { return ToyType{name: "ref"} }

// NewBlock creates and appends a fresh block without switching to it.
func (b *ToyBuilder) NewBlock(label string) *ToyBlock {
	blk := &ToyBlock{label: label}
	b.blocks = append(b.blocks, blk)
	return blk
}

// Blocks returns all blocks created so far, in creation order.
func (b *ToyBuilder) Blocks() []*ToyBlock { return b.blocks }
