package cpp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIncludeStackPushPopDepth(t *testing.T) {
	is := NewIncludeStack(nil)
	if is.Depth() != 0 {
		t.Fatalf("Depth() = %d, want 0", is.Depth())
	}
	s := NewScannerFromBuffer([]byte(""), "a.c", 0, 1)
	is.Push(s)
	if is.Depth() != 1 || is.Top() != s {
		t.Fatalf("Push did not make s the active scanner")
	}
	if is.Pop() != s || is.Depth() != 0 {
		t.Fatalf("Pop did not restore depth 0")
	}
}

func TestIncludeStackPragmaOnce(t *testing.T) {
	// End-to-end scenario 6: a file included twice *sequentially* (not
	// nested — the first inclusion fully finishes and pops before the
	// second starts, as with two #include "a.h" lines in the same file)
	// has its second inclusion pop immediately.
	is := NewIncludeStack(nil)
	main := NewScannerFromBuffer([]byte(""), "main.c", 0, 1)
	is.Push(main)

	first := NewScannerFromBuffer([]byte(""), "a.h", 0, 1)
	is.Push(first)
	if is.ProcessPragmaOnce() {
		t.Fatalf("ProcessPragmaOnce() = true on first inclusion, want false")
	}
	is.Pop() // first inclusion's EOF

	second := NewScannerFromBuffer([]byte(""), "a.h", 0, 1)
	is.Push(second)
	popped := is.ProcessPragmaOnce()
	if !popped {
		t.Fatalf("ProcessPragmaOnce() = false, want true on second (sequential) inclusion")
	}
	if is.Depth() != 1 || is.Top() != main {
		t.Fatalf("stack after ProcessPragmaOnce = depth %d top %v, want depth 1, main active", is.Depth(), is.Top())
	}
}

func TestIncludeStackPragmaOnceFirstInclusionKeeps(t *testing.T) {
	is := NewIncludeStack(nil)
	s := NewScannerFromBuffer([]byte(""), "a.h", 0, 1)
	is.Push(s)
	if is.ProcessPragmaOnce() {
		t.Errorf("ProcessPragmaOnce() = true on first inclusion, want false")
	}
	if is.Depth() != 1 {
		t.Errorf("Depth() = %d after first-inclusion pragma once, want 1", is.Depth())
	}
}

func TestIncludeStackResolveQuotedSearchesIncludingFileDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub.h")
	os.WriteFile(sub, []byte(""), 0644)

	is := NewIncludeStack(nil)
	is.Push(NewScannerFromBuffer([]byte(""), filepath.Join(dir, "main.c"), 0, 1))

	path, ok := is.Resolve("sub.h", IncludeQuoted)
	if !ok || path != sub {
		t.Errorf("Resolve(sub.h, quoted) = %q/%v, want %q/true", path, ok, sub)
	}
}

func TestIncludeStackResolveAngledSearchesConfiguredPaths(t *testing.T) {
	dir := t.TempDir()
	hdr := filepath.Join(dir, "foo.h")
	os.WriteFile(hdr, []byte(""), 0644)

	is := NewIncludeStack([]string{dir})
	path, ok := is.Resolve("foo.h", IncludeAngled)
	if !ok || path != hdr {
		t.Errorf("Resolve(foo.h, angled) = %q/%v, want %q/true", path, ok, hdr)
	}
}

func TestIncludeStackResolveMissingFails(t *testing.T) {
	is := NewIncludeStack([]string{t.TempDir()})
	if _, ok := is.Resolve("nope.h", IncludeAngled); ok {
		t.Errorf("Resolve(nope.h) succeeded, want failure")
	}
}
