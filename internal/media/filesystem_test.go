package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSystemStore_PutAndDelete(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	ctx := context.Background()

	key := "entry_images/entry-1.png"
	if err := store.Put(ctx, key, strings.NewReader("image"), 5, "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "entry_images", "entry-1.png"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "image" {
		t.Errorf("file content = %q, want %q", data, "image")
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "entry_images", "entry-1.png")); !os.IsNotExist(err) {
		t.Errorf("Stat() after Delete() error = %v, want not exist", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestFileSystemStore_SizeMismatchLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	err = store.Put(context.Background(), "profile_pictures/profile-u1.png", strings.NewReader("abc"), 10, "image/png")
	if err == nil {
		t.Fatal("Put() expected size mismatch error")
	}

	entries, err := os.ReadDir(filepath.Join(root, "profile_pictures"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory has %d entries, want 0", len(entries))
	}
}

func TestFileSystemStore_RejectsEscapingKeys(t *testing.T) {
	store, err := NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	for _, key := range []string{"../outside.png", "/etc/passwd", ""} {
		if err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "image/png"); err == nil {
			t.Errorf("Put(%q) expected error", key)
		}
	}
}
