package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	if err := SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "two" {
		t.Fatalf("got %q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := EnsureDir(nested); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "study.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FindRoot(nested, "study.json")
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Fatalf("got %s want %s", got, root)
	}
	if _, err := FindRoot(t.TempDir(), "nope.json"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	got, err := ExpandHome("~/studies")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/tester/studies" {
		t.Fatalf("got %s", got)
	}
	got, _ = ExpandHome("/tmp/x/../y")
	if got != "/tmp/y" {
		t.Fatalf("got %s", got)
	}
}
