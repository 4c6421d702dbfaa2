package lazylink

import (
	"strings"
	"testing"

	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/descriptor"
	"github.com/chazu/jlazylink/pkg/ir"
	"github.com/chazu/jlazylink/pkg/mangle"
)

type stubParser struct{}

// Parse ignores the (possibly empty) binaryName hint and instead treats
// data itself as the class's binary name, since AddClassBytes calls Parse
// with an empty name and relies on the parser to derive it from the bytes.
func (stubParser) Parse(name string, data []byte, loader *classmodel.ClassLoader) (*classmodel.ClassObject, error) {
	if name == "" {
		name = string(data)
	}
	return &classmodel.ClassObject{Name: name}, nil
}

func mt(t *testing.T, s string) descriptor.MethodType {
	t.Helper()
	m, err := descriptor.ParseMethodType(s)
	if err != nil {
		t.Fatalf("ParseMethodType(%q): %v", s, err)
	}
	return m
}

func TestDoStaticCallSlowPathWhenClassNotLoaded(t *testing.T) {
	loader := classmodel.New(stubParser{})
	h := New(loader)
	b := ir.NewToyBuilder()

	descr := mt(t, "()V")
	h.DoStaticCall(b, "com/example/Util", "init", descr, nil)

	if len(b.Calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(b.Calls))
	}
	want := mangle.MangleStaticCall("com/example/Util", "init", descr)
	if b.Calls[0].Symbol != want {
		t.Errorf("symbol = %q, want %q", b.Calls[0].Symbol, want)
	}
}

func TestDoStaticCallFastPathWhenClassLoaded(t *testing.T) {
	loader := classmodel.New(stubParser{})
	class, err := loader.AddClassBytes([]byte("com/example/Util"))
	if err != nil {
		t.Fatal(err)
	}
	class.BeginInitialization()
	class.FinishInitialization(nil)

	h := New(loader)
	b := ir.NewToyBuilder()
	descr := mt(t, "()V")
	h.DoStaticCall(b, "com/example/Util", "init", descr, nil)

	if len(b.Calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(b.Calls))
	}
	want := mangle.MangleDirectMethodCall("com/example/Util", "init", descr)
	if b.Calls[0].Symbol != want {
		t.Errorf("symbol = %q, want %q", b.Calls[0].Symbol, want)
	}
}

func TestDoStaticCallFastPathEmitsInitGuardWhenNotYetInitialized(t *testing.T) {
	loader := classmodel.New(stubParser{})
	if _, err := loader.AddClassBytes([]byte("com/example/Util")); err != nil {
		t.Fatal(err)
	}
	// Loaded, but never initialized: the static-call fast path should
	// still fire (class is loaded), guarded by an init check.

	h := New(loader)
	b := ir.NewToyBuilder()
	descr := mt(t, "()V")
	h.DoStaticCall(b, "com/example/Util", "init", descr, nil)

	if len(b.Calls) != 2 {
		t.Fatalf("got %d calls, want 2 (init guard + direct call): %+v", len(b.Calls), b.Calls)
	}
	guardWant := mangle.MangleClassObjectAccess(descriptor.NewObjectType("com/example/Util"))
	if b.Calls[0].Symbol != guardWant {
		t.Errorf("guard symbol = %q, want %q", b.Calls[0].Symbol, guardWant)
	}
	if _, err := mangle.Demangle(b.Calls[0].Symbol); err != nil {
		t.Errorf("init guard symbol does not demangle: %v", err)
	}
	directWant := mangle.MangleDirectMethodCall("com/example/Util", "init", descr)
	if b.Calls[1].Symbol != directWant {
		t.Errorf("direct-call symbol = %q, want %q", b.Calls[1].Symbol, directWant)
	}
}

func TestDoSpecialCallFastPathNeedsOnlyLoadedNotInitialized(t *testing.T) {
	loader := classmodel.New(stubParser{})
	if _, err := loader.AddClassBytes([]byte("com/example/Util")); err != nil {
		t.Fatal(err)
	}
	// invokespecial never triggers JVM §5.5 initialization by itself, so
	// the fast path should fire - with no init guard - as soon as the
	// class is loaded.

	h := New(loader)
	b := ir.NewToyBuilder()
	descr := mt(t, "()V")
	h.DoSpecialCall(b, "com/example/Util", "<init>", descr, nil)

	if len(b.Calls) != 1 {
		t.Fatalf("got %d calls, want 1 (no init guard): %+v", len(b.Calls), b.Calls)
	}
	want := mangle.MangleDirectMethodCall("com/example/Util", "<init>", descr)
	if b.Calls[0].Symbol != want {
		t.Errorf("symbol = %q, want %q", b.Calls[0].Symbol, want)
	}
}

func TestDoIndirectCallSlowPath(t *testing.T) {
	loader := classmodel.New(stubParser{})
	h := New(loader)
	b := ir.NewToyBuilder()

	descr := mt(t, "()V")
	recv := b.CreateIntConstant(64, 0)
	_, err := h.DoIndirectCall(b, "com/example/Widget", "run", descr, recv, nil, Virtual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Calls) != 1 || b.Calls[0].Op != "call" {
		t.Fatalf("got %+v", b.Calls)
	}
	if !strings.HasPrefix(b.Calls[0].Symbol, "Virtual Call to ") {
		t.Errorf("symbol = %q", b.Calls[0].Symbol)
	}
}

func TestDoIndirectCallFastPath(t *testing.T) {
	loader := classmodel.New(stubParser{})
	class, _ := loader.AddClassBytes([]byte("com/example/Widget"))
	class.BeginInitialization()
	class.FinishInitialization(nil)
	descr := mt(t, "()V")
	class.Methods = append(class.Methods, &classmodel.MethodRef{Name: "run", Descriptor: descr, VTableSlot: 4})

	h := New(loader)
	b := ir.NewToyBuilder()
	recv := b.CreateIntConstant(64, 0)
	_, err := h.DoIndirectCall(b, "com/example/Widget", "run", descr, recv, nil, Virtual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Calls) != 1 || b.Calls[0].Op != "vtable_call" {
		t.Fatalf("got %+v", b.Calls)
	}
	if b.Calls[0].TableSlot != 4 {
		t.Errorf("TableSlot = %d, want 4", b.Calls[0].TableSlot)
	}
}

func TestGetInstanceFieldOffsetSlowPath(t *testing.T) {
	loader := classmodel.New(stubParser{})
	h := New(loader)
	b := ir.NewToyBuilder()

	ft, _ := descriptor.ParseFieldType("I")
	h.GetInstanceFieldOffset(b, "com/example/Point", "x", ft)

	if len(b.Calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(b.Calls))
	}
	want := mangle.MangleFieldAccess("com/example/Point", "x", ft)
	if b.Calls[0].Symbol != want {
		t.Errorf("symbol = %q, want %q", b.Calls[0].Symbol, want)
	}
}

func TestGetInstanceFieldOffsetFastPath(t *testing.T) {
	loader := classmodel.New(stubParser{})
	class, _ := loader.AddClassBytes([]byte("com/example/Point"))
	class.BeginInitialization()
	class.FinishInitialization(nil)
	class.Fields = append(class.Fields, &classmodel.Field{Name: "x", Offset: 16})

	h := New(loader)
	b := ir.NewToyBuilder()
	ft, _ := descriptor.ParseFieldType("I")
	h.GetInstanceFieldOffset(b, "com/example/Point", "x", ft)

	if len(b.Calls) != 0 {
		t.Fatalf("fast path should not emit a stub call, got %+v", b.Calls)
	}
	if len(b.Instrs) != 1 || b.Instrs[0].Op != "iconst" || b.Instrs[0].IntVal != 16 {
		t.Fatalf("got %+v", b.Instrs)
	}
}
