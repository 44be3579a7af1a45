package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestList_SortedAndFiltered(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("posts/b.md", []byte("b"))
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write("a.md.bak", []byte("backup"))

	items, err := s.List("*.md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"a.md", "posts/b.md"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("List = %v, want %v", items, want)
	}
}

func TestList_PatternWithSeparator(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("posts/one.md", []byte("1"))
	_ = s.Write("drafts/two.md", []byte("2"))

	items, err := s.List("posts/*.md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"posts/one.md"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("List = %v, want %v", items, want)
	}
}

func TestList_SkipsTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("keep.md", []byte("x"))
	if err := os.WriteFile(filepath.Join(s.Root(), ".raido-tmp-123"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("plant temp file: %v", err)
	}

	items, err := s.List("*")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"keep.md"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("List = %v, want %v", items, want)
	}
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, rel string
		want         bool
	}{
		{"*.md", "a.md", true},
		{"*.md", "posts/deep/a.md", true},
		{"*.md", "a.txt", false},
		{"**/*.md", "posts/a.md", true},
		{"posts/*.md", "posts/a.md", true},
		{"posts/*.md", "drafts/a.md", false},
		{"2014-*.md", "posts/2014-01-30-change-data.md", true},
	}
	for _, c := range cases {
		if got := Match(c.pattern, c.rel); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.rel, got, c.want)
		}
	}
}

func TestBackup(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("post.md", []byte("original"))
	if err := s.Backup("post.md"); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	got, err := s.Read("post.md.bak")
	if err != nil {
		t.Fatalf("Read backup: %v", err)
	}
	if string(got) != "original" {
		t.Errorf("backup content = %q", got)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	// Verify that if we read during a write the old content is intact
	// (the rename is atomic on POSIX).
	s := tempVault(t)
	original := []byte("original content")
	_ = s.Write("atomic.md", original)

	// Overwrite with new content.
	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	// Confirm no leftover temp files.
	matches, _ := filepath.Glob(filepath.Join(s.root, ".raido-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS("/tmp/raido-does-not-exist-" + t.Name())
	if err == nil {
		t.Fatal("expected error for non-existent dir")
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want apperr.ErrNotFound", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "raido-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
