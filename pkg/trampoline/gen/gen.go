// Package gen optionally renders a materialized trampoline's recorded IR
// as human-readable Go source, for the --emit-go debug flag on
// cmd/jlazyjit. It is a debug/introspection aid only; the real
// compilation path emits to pkg/ir.Builder directly and never touches
// this package. Mirrors pkg/codegen/codegen_grpc.go's use of
// github.com/dave/jennifer/jen to render generated methods.
package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/jlazylink/pkg/ir"
)

// RenderTrampoline renders the instructions recorded on a pkg/ir.ToyBuilder
// (see ToyBuilder.Instrs) into a single-function .go source file named
// funcName, one statement per instruction, for inspection.
func RenderTrampoline(funcName string, instrs []ir.Instr) *jen.File {
	f := jen.NewFile("trampoline")
	f.HeaderComment("Code generated for inspection only; not consumed by the JIT pipeline.")

	locals := make(map[int]string)
	body := make([]jen.Code, 0, len(instrs))
	for i, instr := range instrs {
		body = append(body, renderInstr(i, instr, locals))
	}
	if len(body) == 0 {
		body = append(body, jen.Comment("no instructions recorded"))
	}

	f.Func().Id(funcName).Params().Block(body...)
	return f
}

// RenderTrampolineSource is RenderTrampoline followed by Render, for
// callers (cmd/jlazyjit's --emit-go flag) that just want the source text.
func RenderTrampolineSource(funcName string, instrs []ir.Instr) (string, error) {
	var buf bytes.Buffer
	if err := RenderTrampoline(funcName, instrs).Render(&buf); err != nil {
		return "", fmt.Errorf("trampoline/gen: render %s: %w", funcName, err)
	}
	return buf.String(), nil
}

func localName(id int) string { return fmt.Sprintf("v%d", id) }

func renderInstr(i int, instr ir.Instr, locals map[int]string) jen.Code {
	switch instr.Op {
	case "alloca":
		name := localName(instr.Slot.ID())
		locals[instr.Slot.ID()] = name
		return jen.Id(name).Op(":=").Qual("unsafe", "Pointer").Call(jen.Nil()).Comment("alloca " + instr.Slot.Type().Name())

	case "load":
		name := localName(instr.Result.ID())
		locals[instr.Result.ID()] = name
		return jen.Id(name).Op(":=").Op("*").Id(slotRef(instr.Slot, locals)).Comment("load")

	case "store":
		return jen.Op("*").Id(slotRef(instr.Slot, locals)).Op("=").Id(valueRef(instr.Value, locals)).Comment("store")

	case "call":
		return renderCall(i, instr, locals, jen.Lit(instr.Symbol))

	case "vtable_call":
		label := fmt.Sprintf("vtable[%d]", instr.TableSlot)
		return renderCall(i, instr, locals, jen.Lit(label))

	case "itable_call":
		label := fmt.Sprintf("itable[%d/%d]", instr.InterfaceID, instr.TableSlot)
		return renderCall(i, instr, locals, jen.Lit(label))

	case "iconst":
		name := localName(instr.Result.ID())
		locals[instr.Result.ID()] = name
		return jen.Id(name).Op(":=").Lit(instr.IntVal).Comment(fmt.Sprintf("iconst i%d", instr.IntBits))

	case "pconst":
		name := localName(instr.Result.ID())
		locals[instr.Result.ID()] = name
		return jen.Id(name).Op(":=").Lit(uint64(instr.PtrVal)).Comment("pconst")

	default:
		return jen.Comment("unknown instruction: " + instr.Op)
	}
}

func renderCall(i int, instr ir.Instr, locals map[int]string, target jen.Code) jen.Code {
	args := make([]jen.Code, len(instr.Args))
	for j, a := range instr.Args {
		args[j] = jen.Id(valueRef(&a, locals))
	}
	call := jen.Id("call").Call(append([]jen.Code{target}, args...)...)
	if instr.Result == nil {
		return call
	}
	name := localName(instr.Result.ID())
	locals[instr.Result.ID()] = name
	return jen.Id(name).Op(":=").Add(call)
}

func slotRef(s *ir.ToySlot, locals map[int]string) string {
	if name, ok := locals[s.ID()]; ok {
		return name
	}
	return localName(s.ID())
}

func valueRef(v *ir.ToyValue, locals map[int]string) string {
	if name, ok := locals[v.ID()]; ok {
		return name
	}
	return localName(v.ID())
}
