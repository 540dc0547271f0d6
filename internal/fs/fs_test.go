package fs

import (
	"os"
	"path/filepath"
	"testing"

	"stitch/patch"
)

func TestPathResolver(t *testing.T) {
	primary := t.TempDir()
	secondary := t.TempDir()

	existing := filepath.Join(secondary, "pkg", "thing.go")
	if err := os.MkdirAll(filepath.Dir(existing), 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}
	if err := os.WriteFile(existing, []byte("x\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	r := NewPathResolver([]string{primary, secondary})

	t.Run("existing file found in later lookup dir", func(t *testing.T) {
		got := r.Resolve(filepath.Join("pkg", "thing.go"))
		if got != existing {
			t.Errorf("Resolve = %q, want %q", got, existing)
		}
	})

	t.Run("missing file lands in first lookup dir", func(t *testing.T) {
		got := r.Resolve("brand/new.go")
		want := filepath.Join(primary, "brand", "new.go")
		if got != want {
			t.Errorf("Resolve = %q, want %q", got, want)
		}
	})

	t.Run("resolve existing only", func(t *testing.T) {
		if got := r.ResolveExisting("brand/new.go"); got != "" {
			t.Errorf("ResolveExisting = %q, want empty", got)
		}
	})
}

func TestMaterialize(t *testing.T) {
	t.Run("add creates file and parents", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "a", "b", "new.go")

		err := Materialize(patch.AddChange{Path: path, Content: "package b\n"})
		if err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read back: %v", err)
		}
		if string(content) != "package b\n" {
			t.Errorf("Content = %q", content)
		}
	})

	t.Run("update rewrites in place", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "f.go")
		if err := os.WriteFile(path, []byte("old\n"), 0644); err != nil {
			t.Fatalf("Failed to seed file: %v", err)
		}

		err := Materialize(patch.UpdateChange{Path: path, Original: "old\n", Content: "new\n"})
		if err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		content, _ := os.ReadFile(path)
		if string(content) != "new\n" {
			t.Errorf("Content = %q", content)
		}
	})

	t.Run("update with move relocates the file", func(t *testing.T) {
		dir := t.TempDir()
		oldPath := filepath.Join(dir, "old.go")
		newPath := filepath.Join(dir, "sub", "new.go")
		if err := os.WriteFile(oldPath, []byte("x\n"), 0644); err != nil {
			t.Fatalf("Failed to seed file: %v", err)
		}

		err := Materialize(patch.UpdateChange{
			Path:     oldPath,
			MovePath: newPath,
			Original: "x\n",
			Content:  "y\n",
		})
		if err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
			t.Error("Old path still exists after move")
		}
		content, err := os.ReadFile(newPath)
		if err != nil {
			t.Fatalf("Failed to read moved file: %v", err)
		}
		if string(content) != "y\n" {
			t.Errorf("Content = %q", content)
		}
	})

	t.Run("delete removes the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gone.go")
		if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
			t.Fatalf("Failed to seed file: %v", err)
		}

		if err := Materialize(patch.DeleteChange{Path: path, Original: "x\n"}); err != nil {
			t.Fatalf("Materialize failed: %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("File still exists after delete")
		}
	})
}

func TestApplierCollectsFailures(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "ok.go")
	missing := filepath.Join(dir, "missing.go")

	var seen []int
	applier := NewApplier()
	applied, failed := applier.ApplyChanges([]patch.FileChange{
		patch.AddChange{Path: okPath, Content: "fine\n"},
		patch.DeleteChange{Path: missing},
	}, func(done int) { seen = append(seen, done) })

	if len(applied) != 1 || applied[0].TargetPath() != okPath {
		t.Errorf("Applied = %v", applied)
	}
	if len(failed) != 1 || failed[0].Path != missing {
		t.Errorf("Failed = %v", failed)
	}
	if len(seen) != 2 || seen[1] != 2 {
		t.Errorf("Progress calls = %v", seen)
	}
}

func TestClassifyChanges(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "have.go")
	if err := os.WriteFile(existing, []byte("x\n"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	newFile := filepath.Join(dir, "deep", "new.go")
	movedTo := filepath.Join(dir, "elsewhere", "moved.go")

	actions, dirs := ClassifyChanges([]patch.FileChange{
		patch.AddChange{Path: newFile, Content: "n\n"},
		patch.AddChange{Path: existing, Content: "o\n"},
		patch.UpdateChange{Path: existing, Content: "u\n"},
		patch.UpdateChange{Path: existing, MovePath: movedTo, Content: "m\n"},
		patch.DeleteChange{Path: existing},
	})

	if actions[newFile] != ActionCreate {
		t.Errorf("New file action = %q", actions[newFile])
	}
	// Later changes to the same path win; the delete is last.
	if actions[existing] != ActionDelete {
		t.Errorf("Existing file action = %q", actions[existing])
	}
	for _, want := range []string{filepath.Dir(newFile), filepath.Dir(movedTo)} {
		if _, ok := dirs[want]; !ok {
			t.Errorf("Missing dir %q in %v", want, dirs)
		}
	}
}

func TestRemoveEmptyParents(t *testing.T) {
	root := t.TempDir()
	leaf := filepath.Join(root, "a", "b", "c.txt")
	if err := os.MkdirAll(filepath.Dir(leaf), 0755); err != nil {
		t.Fatalf("Failed to create dirs: %v", err)
	}

	RemoveEmptyParents(leaf, root)

	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Error("Empty parent chain was not removed")
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("Stop directory must survive: %v", err)
	}
}

func TestHashing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "h.txt")
	if err := os.WriteFile(path, []byte("hello\n"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	fromFile, err := GetFileSHA256(path)
	if err != nil {
		t.Fatalf("GetFileSHA256 failed: %v", err)
	}
	if fromFile != SumSHA256("hello\n") {
		t.Errorf("File hash %q != content hash %q", fromFile, SumSHA256("hello\n"))
	}
}
