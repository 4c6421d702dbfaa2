package opstack

import (
	"testing"

	"github.com/chazu/jlazylink/pkg/ir"
)

func TestPushPopRoundTrip(t *testing.T) {
	b := ir.NewToyBuilder()
	s := New(b, 4)

	v := b.CreateIntConstant(32, 42)
	s.Push(v)
	if got, want := s.Depth(), 1; got != want {
		t.Fatalf("Depth() = %d, want %d", got, want)
	}

	got := s.Pop()
	if got.Type().Name() != v.Type().Name() {
		t.Errorf("popped type = %v, want %v", got.Type().Name(), v.Type().Name())
	}
	if s.Depth() != 0 {
		t.Errorf("Depth() after pop = %d, want 0", s.Depth())
	}
}

func TestPopWithType(t *testing.T) {
	b := ir.NewToyBuilder()
	s := New(b, 4)

	v := b.CreateIntConstant(64, 7)
	s.Push(v)

	_, typ := s.PopWithType()
	if typ.Name() != "i64" {
		t.Errorf("type = %v, want i64", typ.Name())
	}
}

func TestSaveRestoreState(t *testing.T) {
	b := ir.NewToyBuilder()
	s := New(b, 4)

	s.Push(b.CreateIntConstant(32, 1))
	saved := s.SaveState()

	s.Push(b.CreateIntConstant(32, 2))
	if s.Depth() != 2 {
		t.Fatalf("Depth() = %d, want 2", s.Depth())
	}

	s.RestoreState(saved)
	if s.Depth() != 1 {
		t.Fatalf("Depth() after restore = %d, want 1", s.Depth())
	}
}

func TestHandlerState(t *testing.T) {
	b := ir.NewToyBuilder()
	s := New(b, 4)

	s.Push(b.CreateIntConstant(32, 1))
	s.Push(b.CreateIntConstant(32, 2))

	handler := s.HandlerState()
	s.RestoreState(handler)
	exc := b.CreateIntConstant(64, 0) // stand-in reference value
	s.SetHandlerStack(exc)

	if s.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", s.Depth())
	}
	v := s.Pop()
	if v.Type().Name() != exc.Type().Name() {
		t.Errorf("got %v, want %v", v.Type().Name(), exc.Type().Name())
	}
}
