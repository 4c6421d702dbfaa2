package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirClassSourceFindClassBytes(t *testing.T) {
	dir := t.TempDir()
	content := []byte("class com/example/Util\n")
	if err := os.WriteFile(filepath.Join(dir, "com/example/Util.jcls"), content, 0644); err == nil {
		t.Fatal("expected write to a nonexistent nested dir to fail without MkdirAll")
	}

	if err := os.MkdirAll(filepath.Join(dir, "com/example"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "com/example/Util.jcls"), content, 0644); err != nil {
		t.Fatal(err)
	}

	src := dirClassSource{dir: dir}
	got, err := src.FindClassBytes("com/example/Util")
	if err != nil {
		t.Fatalf("FindClassBytes: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}
}

func TestDirClassSourceMissingFile(t *testing.T) {
	src := dirClassSource{dir: t.TempDir()}
	if _, err := src.FindClassBytes("does/not/Exist"); err == nil {
		t.Error("expected error for missing class file")
	}
}
