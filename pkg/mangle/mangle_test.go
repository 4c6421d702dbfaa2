package mangle

import (
	"errors"
	"testing"

	"github.com/chazu/jlazylink/pkg/descriptor"
)

func mustMethodType(t *testing.T, s string) descriptor.MethodType {
	t.Helper()
	mt, err := descriptor.ParseMethodType(s)
	if err != nil {
		t.Fatalf("ParseMethodType(%q): %v", s, err)
	}
	return mt
}

func mustFieldType(t *testing.T, s string) descriptor.FieldType {
	t.Helper()
	ft, err := descriptor.ParseFieldType(s)
	if err != nil {
		t.Fatalf("ParseFieldType(%q): %v", s, err)
	}
	return ft
}

func TestMangleDirectMethodCall(t *testing.T) {
	mt := mustMethodType(t, "(I)V")
	got := MangleDirectMethodCall("java/lang/Object", "wait", mt)
	want := "java/lang/Object.wait:(I)V"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMangleFieldAccessRoundTrip(t *testing.T) {
	ft := mustFieldType(t, "I")
	sym := MangleFieldAccess("com/example/Point", "x", ft)

	d, err := Demangle(sym)
	if err != nil {
		t.Fatalf("Demangle(%q): %v", sym, err)
	}
	if d.Kind != FieldAccessKind {
		t.Fatalf("Kind = %v, want FieldAccessKind", d.Kind)
	}
	if d.FieldAccess.ClassName != "com/example/Point" || d.FieldAccess.FieldName != "x" {
		t.Errorf("got %+v", d.FieldAccess)
	}
	if !d.FieldAccess.Descriptor.Equal(ft) {
		t.Errorf("descriptor mismatch: got %v, want %v", d.FieldAccess.Descriptor, ft)
	}
}

func TestMangleMethodResolutionCallRoundTrip(t *testing.T) {
	mt := mustMethodType(t, "(Ljava/lang/String;)I")
	for _, r := range []Resolution{Virtual, Interface, Special} {
		sym := MangleMethodResolutionCall(r, "com/example/Widget", "compute", mt)

		d, err := Demangle(sym)
		if err != nil {
			t.Fatalf("Demangle(%q): %v", sym, err)
		}
		if d.Kind != MethodResolutionCallKind {
			t.Fatalf("Kind = %v, want MethodResolutionCallKind", d.Kind)
		}
		c := d.MethodResolutionCall
		if c.Resolution != r || c.ClassName != "com/example/Widget" || c.MethodName != "compute" {
			t.Errorf("got %+v", c)
		}
		if !c.Descriptor.Equal(mt) {
			t.Errorf("descriptor mismatch: got %v, want %v", c.Descriptor, mt)
		}
	}
}

func TestMangleStaticCallRoundTrip(t *testing.T) {
	mt := mustMethodType(t, "()V")
	sym := MangleStaticCall("com/example/Widget", "init", mt)

	d, err := Demangle(sym)
	if err != nil {
		t.Fatalf("Demangle(%q): %v", sym, err)
	}
	if d.Kind != StaticCallKind {
		t.Fatalf("Kind = %v, want StaticCallKind", d.Kind)
	}
	if d.StaticCall.ClassName != "com/example/Widget" || d.StaticCall.MethodName != "init" {
		t.Errorf("got %+v", d.StaticCall)
	}
}

func TestMangleClassObjectAccessRoundTrip(t *testing.T) {
	ft := mustFieldType(t, "[Lcom/example/Widget;")
	sym := MangleClassObjectAccess(ft)

	d, err := Demangle(sym)
	if err != nil {
		t.Fatalf("Demangle(%q): %v", sym, err)
	}
	if d.Kind != ClassObjectAccessKind {
		t.Fatalf("Kind = %v, want ClassObjectAccessKind", d.Kind)
	}
	if !d.ClassObjectAccess.Equal(ft) {
		t.Errorf("got %v, want %v", d.ClassObjectAccess, ft)
	}
}

func TestDemangleRejectsUnrelatedSymbol(t *testing.T) {
	_, err := Demangle("not_a_mangled_symbol_at_all")
	if !errors.Is(err, ErrNotAMangledSymbol) {
		t.Fatalf("got %v, want ErrNotAMangledSymbol", err)
	}
}

func TestDemangleDistinguishesFieldFromMethodResolution(t *testing.T) {
	// A field-access symbol has no resolution-call prefix and its
	// descriptor does not begin with '(' - it must not be confused with
	// a method-resolution-call or static-call.
	ft := mustFieldType(t, "D")
	sym := MangleFieldAccess("com/example/Account", "balance", ft)
	if Virtual.String() == "" {
		t.Fatal("sanity")
	}

	d, err := Demangle(sym)
	if err != nil {
		t.Fatalf("Demangle(%q): %v", sym, err)
	}
	if d.Kind != FieldAccessKind {
		t.Fatalf("Kind = %v, want FieldAccessKind", d.Kind)
	}
}

func TestDemangleMalformedFieldDescriptorIsError(t *testing.T) {
	_, err := Demangle("com/example/Widget.balance:Q")
	if err == nil {
		t.Fatal("expected error for malformed embedded field descriptor")
	}
	if errors.Is(err, ErrNotAMangledSymbol) {
		t.Fatal("malformed field descriptor should not surface as ErrNotAMangledSymbol")
	}
}

func TestDemangleDirectCallShapedSymbolIsNotOurs(t *testing.T) {
	// A direct-call symbol (MangleDirectMethodCall's output, or anything
	// shaped like it) is never meant to reach Demangle; its descriptor
	// begins with '(' the same way a method-resolution-call's does, but
	// with no resolution prefix in front of it. Demangle must decline it
	// as Kind: None rather than misreading it as a malformed field access.
	for _, sym := range []string{
		"com/example/Util.max:(II)I",
		"com/example/Widget.compute:(ZZ", // malformed too, but still not field-access shaped
	} {
		d, err := Demangle(sym)
		if !errors.Is(err, ErrNotAMangledSymbol) {
			t.Errorf("Demangle(%q) err = %v, want ErrNotAMangledSymbol", sym, err)
		}
		if d.Kind != None {
			t.Errorf("Demangle(%q) Kind = %v, want None", sym, d.Kind)
		}
	}
}
