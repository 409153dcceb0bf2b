package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func TestLocalReadWrite(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	if err := l.Write(ctx, "tasks/T1.yaml", []byte("id: T1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := l.Read(ctx, "tasks/T1.yaml")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "id: T1\n" {
		t.Errorf("Read = %q, want %q", data, "id: T1\n")
	}

	// Overwrite.
	if err := l.Write(ctx, "tasks/T1.yaml", []byte("id: T1\ntitle: x\n")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, err = l.Read(ctx, "tasks/T1.yaml")
	if err != nil {
		t.Fatalf("Read after overwrite failed: %v", err)
	}
	if string(data) != "id: T1\ntitle: x\n" {
		t.Errorf("Read after overwrite = %q", data)
	}
}

func TestLocalReadNotFound(t *testing.T) {
	l := newLocal(t)

	_, err := l.Read(context.Background(), "missing.yaml")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalDelete(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	if err := l.Write(ctx, "a.yaml", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := l.Delete(ctx, "a.yaml"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := l.Delete(ctx, "a.yaml"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalList(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"tasks/b.yaml", "tasks/a.yaml", "tasks/c.yaml"} {
		if err := l.Write(ctx, name, []byte("x")); err != nil {
			t.Fatalf("Write(%s) failed: %v", name, err)
		}
	}
	// A subdirectory and a leftover temp file must not appear in listings.
	if err := l.Write(ctx, "tasks/sub/d.yaml", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(l.base, "tasks", "stale.yaml.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to plant temp file: %v", err)
	}

	paths, err := l.List(ctx, "tasks")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"tasks/a.yaml", "tasks/b.yaml", "tasks/c.yaml"}
	if len(paths) != len(want) {
		t.Fatalf("List = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("List[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestLocalListMissingPrefix(t *testing.T) {
	l := newLocal(t)

	paths, err := l.List(context.Background(), "nope")
	if err != nil {
		t.Fatalf("List on missing prefix failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("List = %v, want empty", paths)
	}
}

func TestLocalExists(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	ok, err := l.Exists(ctx, "a.yaml")
	if err != nil || ok {
		t.Errorf("Exists before write = (%v, %v), want (false, nil)", ok, err)
	}
	if err := l.Write(ctx, "a.yaml", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	ok, err = l.Exists(ctx, "a.yaml")
	if err != nil || !ok {
		t.Errorf("Exists after write = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestLocalPathTraversalConfined(t *testing.T) {
	l := newLocal(t)
	ctx := context.Background()

	if err := l.Write(ctx, "../escape.yaml", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	// The write must land inside the base directory.
	if _, err := os.Stat(filepath.Join(l.base, "escape.yaml")); err != nil {
		t.Errorf("traversal path not confined to base: %v", err)
	}
}
