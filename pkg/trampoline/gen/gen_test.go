package gen

import (
	"strings"
	"testing"

	"github.com/chazu/jlazylink/pkg/ir"
)

func TestRenderTrampolineStaticCall(t *testing.T) {
	b := ir.NewToyBuilder()
	b.CreateCall("com/example/Util.max:(II)I", nil, b.IntType(32))

	out, err := RenderTrampolineSource("trampoline_max", b.Instrs)
	if err != nil {
		t.Fatalf("RenderTrampolineSource: %v", err)
	}

	if !strings.Contains(out, "com/example/Util.max:(II)I") {
		t.Errorf("rendered source missing symbol:\n%s", out)
	}
	if !strings.Contains(out, "func trampoline_max()") {
		t.Errorf("rendered source missing function signature:\n%s", out)
	}
}

func TestRenderTrampolineFieldAccess(t *testing.T) {
	b := ir.NewToyBuilder()
	b.CreateIntConstant(32, 16)

	out, err := RenderTrampolineSource("trampoline_field", b.Instrs)
	if err != nil {
		t.Fatalf("RenderTrampolineSource: %v", err)
	}
	if !strings.Contains(out, "16") {
		t.Errorf("rendered source missing constant:\n%s", out)
	}
}

func TestRenderTrampolineEmpty(t *testing.T) {
	out, err := RenderTrampolineSource("trampoline_empty", nil)
	if err != nil {
		t.Fatalf("RenderTrampolineSource: %v", err)
	}
	if !strings.Contains(out, "no instructions recorded") {
		t.Errorf("rendered source missing placeholder comment:\n%s", out)
	}
}
