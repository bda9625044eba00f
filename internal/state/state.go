// Package state keeps a journal of reconciliation passes so the last pass
// can be reverted.
package state

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sokinpui/formsync/internal/fs"
)

const (
	stateFileName = "state.msgpack"
	schemaVersion = uint16(1)
	// MaxEntries bounds the journal; older passes are dropped.
	MaxEntries = 20
)

// ErrNothingToRevert is returned by Revert on an empty journal.
var ErrNothingToRevert = errors.New("no recorded pass to revert")

// FileRecord is the before and after of one file touched by a pass.
type FileRecord struct {
	Path       string `msgpack:"path"`
	Before     []byte `msgpack:"before"`
	BeforeHash string `msgpack:"before_hash"`
	AfterHash  string `msgpack:"after_hash"`
}

// Entry is one recorded pass.
type Entry struct {
	ID        string       `msgpack:"id"`
	Timestamp int64        `msgpack:"ts"`
	Form      string       `msgpack:"form"`
	Files     []FileRecord `msgpack:"files"`
}

// State is the on-disk journal.
type State struct {
	Schema  uint16  `msgpack:"schema"`
	Entries []Entry `msgpack:"entries"`
}

// Manager handles the lifecycle of the journal file.
type Manager struct {
	statePath string
	state     *State
	StateDir  string
}

// findGitRoot finds the root of the git repository.
func findGitRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// New opens the journal in dirName under the git root, or under the working
// directory outside a repository. An absolute dirName is used as is.
func New(dirName string) (*Manager, error) {
	if filepath.IsAbs(dirName) {
		return Open(dirName)
	}
	rootDir, err := findGitRoot()
	if err != nil {
		rootDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
	}
	return Open(filepath.Join(rootDir, dirName))
}

// Open opens the journal stored in stateDir.
func Open(stateDir string) (*Manager, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create state directory: %w", err)
	}
	m := &Manager{
		statePath: filepath.Join(stateDir, stateFileName),
		StateDir:  stateDir,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	f, err := os.Open(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = &State{Schema: schemaVersion}
			return nil
		}
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var st State
	if err := msgpack.NewDecoder(f).Decode(&st); err != nil {
		return fmt.Errorf("invalid journal %s: %w", m.statePath, err)
	}
	if st.Schema != schemaVersion {
		// Journals from another schema are discarded.
		st = State{Schema: schemaVersion}
	}
	m.state = &st
	return nil
}

func (m *Manager) save() error {
	data, err := msgpack.Marshal(m.state)
	if err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}
	return fs.WriteFileAtomic(m.statePath, data, 0o644)
}

// Entries returns the recorded passes, oldest first.
func (m *Manager) Entries() []Entry {
	return m.state.Entries
}

// Snapshot captures the current content of paths before a pass. Missing
// files are recorded with empty content.
type Snapshot struct {
	files map[string][]byte
	order []string
}

// Take reads every path into a snapshot.
func Take(paths ...string) (*Snapshot, error) {
	s := &Snapshot{files: make(map[string][]byte)}
	for _, p := range paths {
		if _, ok := s.files[p]; ok {
			continue
		}
		// #nosec G304 -- path is provided by the caller
		data, err := os.ReadFile(p)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to snapshot %s: %w", p, err)
		}
		s.files[p] = data
		s.order = append(s.order, p)
	}
	return s, nil
}

// Record compares snap with the files on disk and journals the ones that
// changed. It returns the recorded paths; a pass that changed nothing is
// not journaled.
func (m *Manager) Record(id, form string, snap *Snapshot) ([]string, error) {
	entry := Entry{ID: id, Timestamp: time.Now().UTC().Unix(), Form: form}
	for _, p := range snap.order {
		before := snap.files[p]
		after, err := fs.GetFileSHA256(p)
		if err != nil {
			return nil, err
		}
		beforeHash := fs.TextSHA256(string(before))
		if after == beforeHash {
			continue
		}
		entry.Files = append(entry.Files, FileRecord{Path: p, Before: before, BeforeHash: beforeHash, AfterHash: after})
	}
	if len(entry.Files) == 0 {
		return nil, nil
	}

	m.state.Entries = append(m.state.Entries, entry)
	if over := len(m.state.Entries) - MaxEntries; over > 0 {
		m.state.Entries = m.state.Entries[over:]
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	paths := make([]string, len(entry.Files))
	for i, f := range entry.Files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Restorer writes reverted content back. WriteFile is used when nil.
type Restorer func(path string, content []byte) error

// WriteFile restores content directly on disk.
func WriteFile(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return fs.WriteFileAtomic(path, content, mode)
}

// Revert restores the files of the newest pass. A file edited since the
// pass is left alone and reported as failed. The entry is dropped once every
// file has been restored.
func (m *Manager) Revert(restore Restorer) (entry Entry, reverted, failed []string, err error) {
	if len(m.state.Entries) == 0 {
		return Entry{}, nil, nil, ErrNothingToRevert
	}
	if restore == nil {
		restore = WriteFile
	}
	last := len(m.state.Entries) - 1
	entry = m.state.Entries[last]

	var remaining []FileRecord
	for _, f := range entry.Files {
		current, err := fs.GetFileSHA256(f.Path)
		if err != nil || current != f.AfterHash {
			failed = append(failed, f.Path)
			remaining = append(remaining, f)
			continue
		}
		if err := restore(f.Path, f.Before); err != nil {
			failed = append(failed, f.Path)
			remaining = append(remaining, f)
			continue
		}
		reverted = append(reverted, f.Path)
	}

	if len(remaining) == 0 {
		m.state.Entries = m.state.Entries[:last]
	} else {
		m.state.Entries[last].Files = remaining
	}
	if err := m.save(); err != nil {
		return entry, reverted, failed, err
	}
	return entry, reverted, failed, nil
}

// Paths returns the snapshot paths in the order they were taken.
func (s *Snapshot) Paths() []string { return s.order }

// Content returns the captured content of path.
func (s *Snapshot) Content(path string) []byte { return s.files[path] }
