// Package nvim serves the text buffers of a pass from a Neovim instance.
package nvim

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/neovim/go-client/nvim"

	"github.com/sokinpui/formsync/internal/buffer"
	"github.com/sokinpui/formsync/internal/edit"
)

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string

	mu      sync.Mutex
	buffers map[string]*Buffer
}

// New connects to the instance at addr, falling back to $NVIM and
// $NVIM_LISTEN_ADDRESS, and finally starts a temporary headless one.
func New(addr string) (*Manager, error) {
	for _, a := range []string{addr, os.Getenv("NVIM"), os.Getenv("NVIM_LISTEN_ADDRESS")} {
		if a == "" {
			continue
		}
		v, err := nvim.Dial(a)
		if err == nil {
			return newManager(v), nil
		}
		if a == addr {
			return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
		}
	}

	tmpDir, err := os.MkdirTemp("", "formsync-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 40; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	m := newManager(v)
	m.isSelfStarted = true
	m.cmd = cmd
	m.socketPath = socketPath
	if err := m.nvim.Command("set noswapfile"); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to configure headless nvim: %w", err)
	}
	return m, nil
}

func newManager(v *nvim.Nvim) *Manager {
	return &Manager{nvim: v, buffers: make(map[string]*Buffer)}
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

func abs(path string) (string, error) {
	p, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Clean(p), nil
}

// Open loads path into a Neovim buffer without switching windows and
// returns it as an edit.Buffer.
func (m *Manager) Open(path string) (edit.Buffer, error) {
	p, err := abs(path)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.buffers[p]; ok {
		return b, nil
	}
	if _, err := os.Stat(p); err != nil {
		return nil, err
	}

	var id int
	if err := m.nvim.Call("bufadd", &id, p); err != nil {
		return nil, fmt.Errorf("bufadd %s: %w", p, err)
	}
	if err := m.nvim.Call("bufload", nil, id); err != nil {
		return nil, fmt.Errorf("bufload %s: %w", p, err)
	}
	text, err := m.text(nvim.Buffer(id))
	if err != nil {
		return nil, err
	}
	b := &Buffer{m: m, id: nvim.Buffer(id), path: p, doc: buffer.NewDocument(p, text)}
	m.buffers[p] = b
	return b, nil
}

// Peek returns the text of path: the loaded Neovim buffer when there is
// one, the file on disk otherwise.
func (m *Manager) Peek(path string) (string, error) {
	p, err := abs(path)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	b, ok := m.buffers[p]
	m.mu.Unlock()
	if ok {
		return b.Text(), nil
	}

	var id, loaded int
	if err := m.nvim.Call("bufnr", &id, p); err == nil && id > 0 {
		if err := m.nvim.Call("bufloaded", &loaded, id); err == nil && loaded == 1 {
			return m.text(nvim.Buffer(id))
		}
	}
	doc, err := buffer.LoadReadOnly(p)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

func (m *Manager) text(id nvim.Buffer) (string, error) {
	lines, err := m.nvim.BufferLines(id, 0, -1, true)
	if err != nil {
		return "", fmt.Errorf("failed to read buffer %d: %w", id, err)
	}
	if len(lines) == 0 || (len(lines) == 1 && len(lines[0]) == 0) {
		return "", nil
	}
	return string(bytes.Join(lines, []byte("\n"))) + "\n", nil
}

// Modified lists the opened buffers marked modified, sorted by path.
func (m *Manager) Modified() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for p, b := range m.buffers {
		if b.doc.Modified() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// SaveAllBuffers writes the modified buffers opened by this manager and
// returns their paths. Buffers the user opened are left alone.
func (m *Manager) SaveAllBuffers() ([]string, error) {
	paths := m.Modified()
	var errs []error
	var saved []string
	for _, p := range paths {
		m.mu.Lock()
		b := m.buffers[p]
		m.mu.Unlock()
		if err := m.write(b); err != nil {
			errs = append(errs, err)
			continue
		}
		saved = append(saved, p)
	}
	return saved, errors.Join(errs...)
}

// Restore replaces the whole content of path and writes it, so the revert
// stays on the buffer's undo history.
func (m *Manager) Restore(path string, content []byte) error {
	buf, err := m.Open(path)
	if err != nil {
		return err
	}
	b := buf.(*Buffer)
	if err := b.Replace(0, len(b.Text()), string(content)); err != nil {
		return err
	}
	b.MarkModified()
	return m.write(b)
}

// updateLua writes a buffer from inside its own context so no window
// switches to it.
const updateLua = `local buf = ...
vim.api.nvim_buf_call(buf, function() vim.cmd("silent update") end)`

func (m *Manager) write(b *Buffer) error {
	if err := m.nvim.ExecLua(updateLua, nil, b.id); err != nil {
		return fmt.Errorf("save %s: %w", b.path, err)
	}
	return nil
}

// Buffer is a Neovim buffer mirrored by an in-memory document. Positions are
// answered from the mirror; every edit is pushed to Neovim as the smallest
// line range that changed.
type Buffer struct {
	m    *Manager
	id   nvim.Buffer
	path string
	doc  *buffer.Document
}

func (b *Buffer) Path() string { return b.path }

func (b *Buffer) Text() string { return b.doc.Text() }

func (b *Buffer) PositionToOffset(line, column int) (int, error) {
	return b.doc.PositionToOffset(line, column)
}

func (b *Buffer) MarkModified() { b.doc.MarkModified() }

func (b *Buffer) Replace(offset, length int, text string) error {
	err := replaceMirrored(b.doc, offset, length, text, func(start, end int, repl [][]byte) error {
		return b.m.nvim.SetBufferLines(b.id, start, end, true, repl)
	})
	if err != nil {
		return fmt.Errorf("failed to update buffer %s: %w", b.path, err)
	}
	return nil
}

type mirror interface {
	Text() string
	Replace(offset, length int, text string) error
}

// replaceMirrored edits doc, then pushes the changed line range. When the
// push fails the edit is undone so doc stays in step with Neovim.
func replaceMirrored(doc mirror, offset, length int, text string, push func(start, end int, repl [][]byte) error) error {
	before := doc.Text()
	if err := doc.Replace(offset, length, text); err != nil {
		return err
	}
	start, end, repl := changedLines(before, doc.Text())
	if err := push(start, end, repl); err != nil {
		if rerr := doc.Replace(offset, len(text), before[offset:offset+length]); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restore mirror: %w", rerr))
		}
		return err
	}
	return nil
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// changedLines returns the 0-based line range [start, end) of before that
// must be replaced by repl to produce after.
func changedLines(before, after string) (start, end int, repl [][]byte) {
	oldL, newL := splitLines(before), splitLines(after)
	p := 0
	for p < len(oldL) && p < len(newL) && oldL[p] == newL[p] {
		p++
	}
	s := 0
	for s < len(oldL)-p && s < len(newL)-p && oldL[len(oldL)-1-s] == newL[len(newL)-1-s] {
		s++
	}
	for _, l := range newL[p : len(newL)-s] {
		repl = append(repl, []byte(l))
	}
	return p, len(oldL) - s, repl
}
