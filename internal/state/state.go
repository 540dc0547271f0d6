package state

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"stitch/internal/fs"
	"stitch/patch"
)

const (
	stateDirName = ".stitch"
	journalName  = "journal"
	blobsDirName = "blobs"

	// absent marks an op side that has no content: the before of a created
	// file, the after of a deleted one, the move path of anything that
	// stayed put.
	absent = "-"
)

// Op is one journaled file operation. Hashes are hex SHA-256 of the file
// content before and after the run; the content itself lives in the blob
// store under its hash, so undo and redo can rewrite files byte for byte.
type Op struct {
	Action     string
	Path       string
	BeforeHash string
	AfterHash  string
	MovePath   string
}

// Entry is one complete run of the tool.
type Entry struct {
	Timestamp int64
	Ops       []Op
}

// journal is the whole persisted history. CurrentIndex points at the last
// applied entry, -1 when nothing is applied.
type journal struct {
	History      []Entry
	CurrentIndex int
}

// Manager owns the journal file and the blob store, both kept in a .stitch
// directory at the repository root.
type Manager struct {
	journalPath string
	blobsDir    string
	state       *journal

	StateDir string
}

// findGitRoot finds the root of the enclosing git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New creates and loads a state manager. The journal lives at the git root
// when there is one, otherwise in the current working directory.
func New() (*Manager, error) {
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	return NewAt(rootDir)
}

// NewAt creates and loads a state manager rooted at dir. The state directory
// is only created once something gets journaled, so read-only runs leave no
// trace.
func NewAt(dir string) (*Manager, error) {
	stateDir := filepath.Join(dir, stateDirName)

	m := &Manager{
		journalPath: filepath.Join(stateDir, journalName),
		blobsDir:    filepath.Join(stateDir, blobsDirName),
		StateDir:    stateDir,
	}
	if err := m.load(); err != nil {
		m.state = &journal{CurrentIndex: -1}
	}
	return m, nil
}

// load parses the journal file. The format is line based: the first block is
// the current index, every following block is a timestamp line plus five
// lines per op (action, path, before hash, after hash, move path).
func (m *Manager) load() error {
	data, err := os.ReadFile(m.journalPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &journal{CurrentIndex: -1}
			return nil
		}
		return err
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	blocks := strings.Split(content, "\n\n")
	if len(blocks) == 0 || strings.TrimSpace(blocks[0]) == "" {
		m.state = &journal{CurrentIndex: -1}
		return nil
	}

	index, err := strconv.Atoi(strings.TrimSpace(blocks[0]))
	if err != nil {
		return fmt.Errorf("invalid journal: could not parse current index: %w", err)
	}
	m.state = &journal{CurrentIndex: index}

	for _, block := range blocks[1:] {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")

		ts, err := strconv.ParseInt(lines[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid journal: could not parse timestamp from %q: %w", lines[0], err)
		}
		opLines := lines[1:]
		if len(opLines)%5 != 0 {
			return fmt.Errorf("invalid journal: incomplete operation record")
		}

		entry := Entry{Timestamp: ts}
		for i := 0; i < len(opLines); i += 5 {
			entry.Ops = append(entry.Ops, Op{
				Action:     opLines[i],
				Path:       opLines[i+1],
				BeforeHash: opLines[i+2],
				AfterHash:  opLines[i+3],
				MovePath:   opLines[i+4],
			})
		}
		m.state.History = append(m.state.History, entry)
	}
	return nil
}

func (m *Manager) save() error {
	blocks := []string{strconv.Itoa(m.state.CurrentIndex)}

	for _, entry := range m.state.History {
		opLines := make([]string, 0, len(entry.Ops)*5+1)
		opLines = append(opLines, strconv.FormatInt(entry.Timestamp, 10))
		for _, op := range entry.Ops {
			opLines = append(opLines, op.Action, op.Path, op.BeforeHash, op.AfterHash, op.MovePath)
		}
		blocks = append(blocks, strings.Join(opLines, "\n"))
	}

	content := strings.Join(blocks, "\n\n")
	if err := os.MkdirAll(m.StateDir, 0755); err != nil {
		return fmt.Errorf("could not create state directory: %w", err)
	}
	if err := os.WriteFile(m.journalPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("could not write journal: %w", err)
	}
	return nil
}

// Record journals the applied changes as one new history entry and snapshots
// their content into the blob store. Entries that were undone and never
// redone are dropped; the new run supersedes them.
func (m *Manager) Record(changes []patch.FileChange) error {
	if len(changes) == 0 {
		return nil
	}

	ops := make([]Op, 0, len(changes))
	for _, change := range changes {
		op, err := m.opFromChange(change)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	if m.state.CurrentIndex < len(m.state.History)-1 {
		m.state.History = m.state.History[:m.state.CurrentIndex+1]
	}
	m.state.History = append(m.state.History, Entry{
		Timestamp: time.Now().UTC().Unix(),
		Ops:       ops,
	})
	m.state.CurrentIndex++
	return m.save()
}

// opFromChange derives the journal op for a change. Ops keep the change
// order, because undo must walk them backwards for chained edits to the same
// path.
func (m *Manager) opFromChange(change patch.FileChange) (Op, error) {
	switch c := change.(type) {
	case patch.AddChange:
		afterHash, err := m.writeBlob(c.Content)
		if err != nil {
			return Op{}, err
		}
		return Op{
			Action:     fs.ActionCreate,
			Path:       c.Path,
			BeforeHash: absent,
			AfterHash:  afterHash,
			MovePath:   absent,
		}, nil

	case patch.DeleteChange:
		beforeHash, err := m.writeBlob(c.Original)
		if err != nil {
			return Op{}, err
		}
		return Op{
			Action:     fs.ActionDelete,
			Path:       c.Path,
			BeforeHash: beforeHash,
			AfterHash:  absent,
			MovePath:   absent,
		}, nil

	case patch.UpdateChange:
		beforeHash, err := m.writeBlob(c.Original)
		if err != nil {
			return Op{}, err
		}
		afterHash, err := m.writeBlob(c.Content)
		if err != nil {
			return Op{}, err
		}
		op := Op{
			Action:     fs.ActionModify,
			Path:       c.Path,
			BeforeHash: beforeHash,
			AfterHash:  afterHash,
			MovePath:   absent,
		}
		if c.MovePath != "" && c.MovePath != c.Path {
			op.Action = fs.ActionRename
			op.MovePath = c.MovePath
		}
		return op, nil

	default:
		return Op{}, fmt.Errorf("unsupported change type %T", change)
	}
}

// OpsToUndo returns the ops of the last applied entry and moves the history
// pointer back. Nil means there is nothing to undo.
func (m *Manager) OpsToUndo() []Op {
	if m.state.CurrentIndex < 0 {
		return nil
	}
	ops := m.state.History[m.state.CurrentIndex].Ops
	m.state.CurrentIndex--
	// A failed pointer save surfaces on the next write.
	_ = m.save()
	return ops
}

// OpsToRedo returns the ops of the next entry and moves the history pointer
// forward. Nil means there is nothing to redo.
func (m *Manager) OpsToRedo() []Op {
	next := m.state.CurrentIndex + 1
	if next >= len(m.state.History) {
		return nil
	}
	m.state.CurrentIndex = next
	ops := m.state.History[next].Ops
	_ = m.save()
	return ops
}

// IsAbsent reports whether a recorded hash or move path is the placeholder
// for a side the op does not have.
func IsAbsent(value string) bool {
	return value == absent
}

// writeBlob stores content under its hash and returns the hash. Content is
// immutable once written, so an existing blob is left alone.
func (m *Manager) writeBlob(content string) (string, error) {
	hash := fs.SumSHA256(content)
	path := filepath.Join(m.blobsDir, hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	}
	if err := os.MkdirAll(m.blobsDir, 0755); err != nil {
		return "", fmt.Errorf("could not create blob store: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("could not store blob: %w", err)
	}
	return hash, nil
}

// ReadBlob returns the content stored under hash.
func (m *Manager) ReadBlob(hash string) (string, error) {
	content, err := os.ReadFile(filepath.Join(m.blobsDir, hash))
	if err != nil {
		return "", fmt.Errorf("missing blob %s: %w", hash, err)
	}
	return string(content), nil
}
