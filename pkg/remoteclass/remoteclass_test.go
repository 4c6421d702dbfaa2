package remoteclass

import "testing"

func TestSplitMethod(t *testing.T) {
	service, name, err := splitMethod("jlazylink.ClassServer/FindClassBytes")
	if err != nil {
		t.Fatalf("splitMethod: %v", err)
	}
	if service != "jlazylink.ClassServer" || name != "FindClassBytes" {
		t.Errorf("splitMethod = %q, %q", service, name)
	}
}

func TestSplitMethodRejectsMissingSlash(t *testing.T) {
	if _, _, err := splitMethod("NoSlashHere"); err == nil {
		t.Error("expected error for method with no slash")
	}
}

func TestNewDefaultsToDefaultMethod(t *testing.T) {
	s := New("classes.example.com:443")
	if s.method != DefaultMethod {
		t.Errorf("method = %q, want %q", s.method, DefaultMethod)
	}
	if s.conn != nil {
		t.Error("New should not dial eagerly")
	}
}

func TestWithMethodOverrides(t *testing.T) {
	s := New("classes.example.com:443").WithMethod("other.Service/Fetch")
	if s.method != "other.Service/Fetch" {
		t.Errorf("method = %q, want other.Service/Fetch", s.method)
	}
}

func TestCloseWithoutDialIsNoop(t *testing.T) {
	s := New("classes.example.com:443")
	if err := s.Close(); err != nil {
		t.Errorf("Close on undialed Source: %v", err)
	}
}
