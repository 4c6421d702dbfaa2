package classmodel

import (
	"errors"
	"fmt"
	"testing"
)

// trivialParser treats the raw bytes as the binary name itself, for
// tests that don't need real classfile parsing.
type trivialParser struct {
	onParse func(name string, loader *ClassLoader) (*ClassObject, error)
}

func (p *trivialParser) Parse(binaryName string, data []byte, loader *ClassLoader) (*ClassObject, error) {
	name := binaryName
	if name == "" {
		name = string(data)
	}
	if p.onParse != nil {
		return p.onParse(name, loader)
	}
	return &ClassObject{Name: name, initState: Initialized}, nil
}

type mapSource struct {
	data map[string][]byte
}

func (s *mapSource) FindClassBytes(binaryName string) ([]byte, error) {
	if d, ok := s.data[binaryName]; ok {
		return d, nil
	}
	return nil, errors.New("not in map")
}

func TestPrimitivesPreloaded(t *testing.T) {
	cl := New(&trivialParser{})
	for _, d := range []string{"B", "C", "D", "F", "I", "J", "S", "Z", "V"} {
		co := cl.ForNameLoaded(d)
		if co == nil {
			t.Fatalf("primitive %q not preloaded", d)
		}
		if !co.IsPrimitive {
			t.Errorf("%q: IsPrimitive = false", d)
		}
		if co.InitState() != Initialized {
			t.Errorf("%q: InitState = %v, want Initialized", d, co.InitState())
		}
	}
}

func TestForNameLoadsAndCaches(t *testing.T) {
	src := &mapSource{data: map[string][]byte{"com/example/Foo": []byte("com/example/Foo")}}
	cl := New(&trivialParser{}, src)

	if co := cl.ForNameLoaded("com/example/Foo"); co != nil {
		t.Fatal("should not be loaded yet")
	}

	co1, err := cl.ForName("com/example/Foo")
	if err != nil {
		t.Fatalf("ForName: %v", err)
	}
	co2, err := cl.ForName("com/example/Foo")
	if err != nil {
		t.Fatalf("ForName (cached): %v", err)
	}
	if co1 != co2 {
		t.Error("ForName should return the same cached ClassObject")
	}
}

func TestForNameNotFound(t *testing.T) {
	cl := New(&trivialParser{})
	_, err := cl.ForName("com/example/Missing")
	if !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("got %v, want ErrClassNotFound", err)
	}
}

func TestClassHierarchy(t *testing.T) {
	object := &ClassObject{Name: "java/lang/Object", initState: Initialized}
	base := &ClassObject{Name: "com/example/Base", Super: object, initState: Initialized}
	derived := &ClassObject{Name: "com/example/Derived", Super: base, initState: Initialized}

	if !derived.IsSubclassOf(object) {
		t.Error("derived should be a subclass of object")
	}
	if !derived.IsSubclassOf(base) {
		t.Error("derived should be a subclass of base")
	}
	if base.IsSubclassOf(derived) {
		t.Error("base should not be a subclass of derived")
	}
}

func TestInterfaceImplements(t *testing.T) {
	iface := &ClassObject{Name: "com/example/Greeter", IsInterface: true, initState: Initialized}
	impl := &ClassObject{Name: "com/example/Greeting", Interfaces: []*ClassObject{iface}, initState: Initialized}
	sub := &ClassObject{Name: "com/example/SubGreeting", Super: impl, initState: Initialized}

	if !impl.Implements(iface) {
		t.Error("impl should implement iface")
	}
	if !sub.Implements(iface) {
		t.Error("sub should inherit iface implementation from impl")
	}
}

func TestVTableInheritanceAndOverride(t *testing.T) {
	base := &ClassObject{Name: "com/example/Base"}
	baseM := &MethodRef{Name: "greet"}
	baseVT := NewVTable(base, nil)
	slot := baseVT.Append(baseM)
	base.VTable = baseVT

	derived := &ClassObject{Name: "com/example/Derived", Super: base}
	derivedVT := NewVTable(derived, baseVT)
	overrideM := &MethodRef{Name: "greet"}
	derivedVT.Assign(slot, overrideM)
	derived.VTable = derivedVT

	if derivedVT.Slot(slot) != overrideM {
		t.Error("override should replace inherited slot")
	}
	if baseVT.Slot(slot) != baseM {
		t.Error("base vtable should be unaffected by derived's override")
	}
}

func TestInitializationStateMachine(t *testing.T) {
	co := &ClassObject{Name: "com/example/Lazy"}
	if co.InitState() != Uninitialized {
		t.Fatal("new ClassObject should start Uninitialized")
	}
	if !co.BeginInitialization() {
		t.Fatal("first BeginInitialization should win the race")
	}
	if co.BeginInitialization() {
		t.Fatal("second BeginInitialization should lose the race")
	}
	co.FinishInitialization(nil)
	if co.InitState() != Initialized {
		t.Fatalf("InitState = %v, want Initialized", co.InitState())
	}
}

func TestInitializationFailure(t *testing.T) {
	co := &ClassObject{Name: "com/example/Bad"}
	co.BeginInitialization()
	co.FinishInitialization(fmt.Errorf("boom"))
	if co.InitState() != Errored {
		t.Fatalf("InitState = %v, want Errored", co.InitState())
	}
	if co.InitError() == nil {
		t.Fatal("InitError should be non-nil after a failed initialization")
	}
}
