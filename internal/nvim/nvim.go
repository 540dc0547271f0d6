package nvim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"

	"stitch/model"
	"stitch/patch"
)

// Manager applies computed changes through a Neovim instance, so edits land
// in open buffers instead of underneath them.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// New creates a new Neovim manager. An explicit addr must be reachable; with
// no addr it tries $NVIM_LISTEN_ADDRESS and falls back to a temporary
// headless instance.
func New(addr string) (*Manager, error) {
	if addr != "" {
		v, err := nvim.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
		}
		return &Manager{nvim: v}, nil
	}

	if envAddr := os.Getenv("NVIM_LISTEN_ADDRESS"); envAddr != "" {
		if v, err := nvim.Dial(envAddr); err == nil {
			return &Manager{nvim: v}, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "stitch-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	m := &Manager{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
	}
	// The instance is disposable; swap files would only leave litter.
	m.nvim.Command("set noswapfile")
	return m, nil
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err == nil {
			m.cmd.Wait()
			os.RemoveAll(filepath.Dir(m.socketPath))
		}
	}
}

// processSequentially runs a set of jobs in order, splitting them into
// successes and failures and reporting progress after each one.
func processSequentially[T any](
	items []T,
	pathFn func(item T) string,
	processFn func(item T) error,
	progressCb func(int),
) (succeeded []T, failed []model.FailedFile) {
	for i, item := range items {
		if err := processFn(item); err != nil {
			failed = append(failed, model.FailedFile{Path: pathFn(item), Reason: err.Error()})
		} else {
			succeeded = append(succeeded, item)
		}
		if progressCb != nil {
			progressCb(i + 1)
		}
	}
	return succeeded, failed
}

// ApplyChanges pushes each change into Neovim buffers. A failed change does
// not stop the rest.
func (m *Manager) ApplyChanges(changes []patch.FileChange, progressCb func(int)) ([]patch.FileChange, []model.FailedFile) {
	return processSequentially(
		changes,
		func(change patch.FileChange) string { return change.TargetPath() },
		m.applyChange,
		progressCb,
	)
}

func (m *Manager) applyChange(change patch.FileChange) error {
	switch c := change.(type) {
	case patch.AddChange:
		return m.updateBuffer(c.Path, c.Content)
	case patch.UpdateChange:
		if c.MovePath == "" || c.MovePath == c.Path {
			return m.updateBuffer(c.Path, c.Content)
		}
		if err := m.updateBuffer(c.MovePath, c.Content); err != nil {
			return err
		}
		m.wipeBuffer(c.Path)
		return os.Remove(c.Path)
	case patch.DeleteChange:
		// Drop the buffer first so a later write-all cannot resurrect the
		// file.
		m.wipeBuffer(c.Path)
		return os.Remove(c.Path)
	default:
		return fmt.Errorf("unsupported change type %T", change)
	}
}

// updateBuffer opens path and replaces the whole buffer with content.
func (m *Manager) updateBuffer(path, content string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	byteContent := make([][]byte, len(lines))
	for i, s := range lines {
		byteContent[i] = []byte(s)
	}

	b := m.nvim.NewBatch()
	b.Command(fmt.Sprintf("edit %s", absPath))
	b.SetBufferLines(0, 0, -1, true, byteContent)
	return b.Execute()
}

func (m *Manager) wipeBuffer(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}
	// Best effort: the buffer may simply not be loaded.
	m.nvim.Command(fmt.Sprintf("silent! bwipeout! %s", absPath))
}

// Save writes all modified buffers to disk.
func (m *Manager) Save() error {
	if err := m.nvim.Command("wa!"); err != nil {
		return fmt.Errorf("failed to save nvim buffers: %w", err)
	}
	return nil
}
