package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stitch/internal/fs"
	"stitch/patch"
)

func TestRecordAndHistory(t *testing.T) {
	dir := t.TempDir()
	m, err := NewAt(dir)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}

	changes := []patch.FileChange{
		patch.AddChange{Path: "/tmp/a.go", Content: "new\n"},
		patch.UpdateChange{Path: "/tmp/b.go", Original: "old\n", Content: "changed\n"},
		patch.DeleteChange{Path: "/tmp/c.go", Original: "bye\n"},
		patch.UpdateChange{Path: "/tmp/d.go", MovePath: "/tmp/e.go", Original: "x\n", Content: "y\n"},
	}
	if err := m.Record(changes); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	t.Run("ops mirror the changes in order", func(t *testing.T) {
		ops := m.state.History[0].Ops
		if len(ops) != 4 {
			t.Fatalf("Expected 4 ops, got %d", len(ops))
		}
		wantActions := []string{fs.ActionCreate, fs.ActionModify, fs.ActionDelete, fs.ActionRename}
		for i, want := range wantActions {
			if ops[i].Action != want {
				t.Errorf("ops[%d].Action = %q, want %q", i, ops[i].Action, want)
			}
		}
		if !IsAbsent(ops[0].BeforeHash) || IsAbsent(ops[0].AfterHash) {
			t.Errorf("Create op hashes = %q/%q", ops[0].BeforeHash, ops[0].AfterHash)
		}
		if IsAbsent(ops[2].BeforeHash) || !IsAbsent(ops[2].AfterHash) {
			t.Errorf("Delete op hashes = %q/%q", ops[2].BeforeHash, ops[2].AfterHash)
		}
		if ops[3].MovePath != "/tmp/e.go" {
			t.Errorf("Rename move path = %q", ops[3].MovePath)
		}
	})

	t.Run("blobs hold the journaled content", func(t *testing.T) {
		op := m.state.History[0].Ops[1]
		before, err := m.ReadBlob(op.BeforeHash)
		if err != nil {
			t.Fatalf("ReadBlob failed: %v", err)
		}
		if before != "old\n" {
			t.Errorf("Before blob = %q", before)
		}
		after, err := m.ReadBlob(op.AfterHash)
		if err != nil {
			t.Fatalf("ReadBlob failed: %v", err)
		}
		if after != "changed\n" {
			t.Errorf("After blob = %q", after)
		}
	})

	t.Run("journal survives a reload", func(t *testing.T) {
		reloaded, err := NewAt(dir)
		if err != nil {
			t.Fatalf("NewAt failed: %v", err)
		}
		if reloaded.state.CurrentIndex != 0 {
			t.Errorf("CurrentIndex = %d, want 0", reloaded.state.CurrentIndex)
		}
		if len(reloaded.state.History) != 1 {
			t.Fatalf("History length = %d", len(reloaded.state.History))
		}
		if len(reloaded.state.History[0].Ops) != 4 {
			t.Errorf("Reloaded ops = %d, want 4", len(reloaded.state.History[0].Ops))
		}
	})
}

func TestUndoRedoPointer(t *testing.T) {
	m, err := NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}

	if ops := m.OpsToUndo(); ops != nil {
		t.Errorf("Fresh journal returned undo ops: %v", ops)
	}
	if ops := m.OpsToRedo(); ops != nil {
		t.Errorf("Fresh journal returned redo ops: %v", ops)
	}

	record := func(path string) {
		t.Helper()
		err := m.Record([]patch.FileChange{patch.AddChange{Path: path, Content: path + "\n"}})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	record("/tmp/first.go")
	record("/tmp/second.go")

	undone := m.OpsToUndo()
	if len(undone) != 1 || undone[0].Path != "/tmp/second.go" {
		t.Fatalf("Undo returned %v", undone)
	}
	redone := m.OpsToRedo()
	if len(redone) != 1 || redone[0].Path != "/tmp/second.go" {
		t.Fatalf("Redo returned %v", redone)
	}

	// Undo both, then record: the undone tail must be dropped.
	m.OpsToUndo()
	m.OpsToUndo()
	record("/tmp/third.go")

	if len(m.state.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(m.state.History))
	}
	if m.state.History[0].Ops[0].Path != "/tmp/third.go" {
		t.Errorf("Surviving entry = %+v", m.state.History[0].Ops[0])
	}
	if ops := m.OpsToRedo(); ops != nil {
		t.Errorf("Redo after truncation returned %v", ops)
	}
}

func TestLoadRejectsCorruptJournal(t *testing.T) {
	dir := t.TempDir()
	m, err := NewAt(dir)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if err := m.Record([]patch.FileChange{patch.AddChange{Path: "/tmp/a.go", Content: "a\n"}}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	journalPath := filepath.Join(dir, stateDirName, journalName)
	data, err := os.ReadFile(journalPath)
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}
	// Drop the last line so an op record comes up short.
	truncated := strings.Join(strings.Split(strings.TrimSpace(string(data)), "\n")[:4], "\n")
	if err := os.WriteFile(journalPath, []byte(truncated), 0644); err != nil {
		t.Fatalf("Failed to corrupt journal: %v", err)
	}

	// A corrupt journal must not kill the manager; it starts fresh.
	fresh, err := NewAt(dir)
	if err != nil {
		t.Fatalf("NewAt failed: %v", err)
	}
	if fresh.state.CurrentIndex != -1 || len(fresh.state.History) != 0 {
		t.Errorf("Corrupt journal was not reset: %+v", fresh.state)
	}
}
