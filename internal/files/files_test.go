package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	s := NewStore(t.TempDir())

	p, err := s.Save("12345", "mybook.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(p) != "mybook.txt" {
		t.Errorf("expected basename %q, got %q", "mybook.txt", filepath.Base(p))
	}
	if filepath.Base(filepath.Dir(p)) != "12345" {
		t.Errorf("expected user dir %q, got %q", "12345", filepath.Base(filepath.Dir(p)))
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected content %q, got %q", "hello", data)
	}

	if err := s.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Errorf("expected file to be gone, stat err = %v", err)
	}
	// Removing again is fine.
	if err := s.Remove(p); err != nil {
		t.Errorf("expected nil on second remove, got %v", err)
	}
}

func TestSaveCollisionSuffix(t *testing.T) {
	s := NewStore(t.TempDir())

	p1, err := s.Save("7", "book.pdf", []byte("one"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2, err := s.Save("7", "book.pdf", []byte("two"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p3, err := s.Save("7", "book.pdf", []byte("three"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(p1) != "book.pdf" {
		t.Errorf("expected %q, got %q", "book.pdf", filepath.Base(p1))
	}
	if filepath.Base(p2) != "book_1.pdf" {
		t.Errorf("expected %q, got %q", "book_1.pdf", filepath.Base(p2))
	}
	if filepath.Base(p3) != "book_2.pdf" {
		t.Errorf("expected %q, got %q", "book_2.pdf", filepath.Base(p3))
	}

	data, err := os.ReadFile(p2)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("expected second file content %q, got %q", "two", data)
	}
}

func TestSaveStripsPathComponents(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	p, err := s.Save("9", "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDir := filepath.Join(root, "9")
	if filepath.Dir(p) != wantDir {
		t.Errorf("expected file inside %q, got %q", wantDir, p)
	}
	if filepath.Base(p) != "passwd" {
		t.Errorf("expected basename %q, got %q", "passwd", filepath.Base(p))
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"War and Peace.pdf", "War and Peace.pdf"},
		{"notes_v2-final.txt", "notes_v2-final.txt"},
		{"../../etc/passwd", "passwd"},
		{"a\\b\\evil.txt", "evil.txt"},
		{"book?.epub", "book_.epub"},
		{"..", "upload"},
		{"", "upload"},
		{"   ", "upload"},
		{".hidden", "hidden"},
	}
	for _, c := range cases {
		if got := sanitizeName(c.in); got != c.want {
			t.Errorf("sanitizeName(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestSanitizeNameLengthCap(t *testing.T) {
	long := strings.Repeat("x", 200) + ".pdf"
	got := sanitizeName(long)
	if len(got) != maxNameLen {
		t.Errorf("expected length %d, got %d", maxNameLen, len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Errorf("expected extension preserved, got %q", got)
	}
}
