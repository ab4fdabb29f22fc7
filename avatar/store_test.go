package avatar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roomhub/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads", logger.NewLogger("error"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, dir
}

func TestSaveAndRemove(t *testing.T) {
	store, dir := newTestStore(t)

	ref, err := store.Save(strings.NewReader("fake png bytes"), "me.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/") || !strings.HasSuffix(ref, ".png") {
		t.Errorf("unexpected reference %q", ref)
	}

	name := filepath.Base(ref)
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "fake png bytes" {
		t.Errorf("stored content = %q", data)
	}

	if err := store.Remove(ref); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("file should be gone after Remove")
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, _ := newTestStore(t)

	ref1, err := store.Save(strings.NewReader("a"), "same.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	ref2, err := store.Save(strings.NewReader("b"), "same.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ref1 == ref2 {
		t.Errorf("two uploads of the same filename produced the same reference %q", ref1)
	}
}

func TestSaveRejectsUnsupportedTypes(t *testing.T) {
	store, _ := newTestStore(t)

	for _, name := range []string{"script.sh", "notes.txt", "noext", "avatar.png.exe"} {
		if _, err := store.Save(strings.NewReader("x"), name); err != ErrUnsupportedType {
			t.Errorf("Save(%q) error = %v, want ErrUnsupportedType", name, err)
		}
	}
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Remove("/uploads/never-existed.png"); err != nil {
		t.Errorf("Remove of missing file = %v, want nil", err)
	}
}

func TestRemoveCannotEscapeUploadDir(t *testing.T) {
	store, dir := newTestStore(t)

	// Plant a file outside the upload dir and try to reach it.
	outside := filepath.Join(filepath.Dir(dir), "victim.png")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	defer os.Remove(outside)

	_ = store.Remove("/uploads/../victim.png")

	if _, err := os.Stat(outside); err != nil {
		t.Error("Remove must not reach files outside the upload directory")
	}
}

func TestRemoveRejectsDegenerateReferences(t *testing.T) {
	store, _ := newTestStore(t)

	for _, ref := range []string{"", ".", "/", ".."} {
		if err := store.Remove(ref); err == nil {
			t.Errorf("Remove(%q) should fail", ref)
		}
	}
}
