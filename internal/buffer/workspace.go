package buffer

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sokinpui/formsync/internal/edit"
)

// Workspace tracks the documents opened during a session, one per path.
type Workspace struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{docs: make(map[string]*Document)}
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// Add registers an already constructed document under path.
func (w *Workspace) Add(path string, doc *Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[key(path)] = doc
}

// Document returns the open document for path, loading it on first use.
func (w *Workspace) Document(path string) (*Document, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	k := key(path)
	if d, ok := w.docs[k]; ok {
		return d, nil
	}
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	w.docs[k] = d
	return d, nil
}

// Open returns the buffer for path, loading it on first use.
func (w *Workspace) Open(path string) (edit.Buffer, error) {
	return w.Document(path)
}

// Peek returns the current text of path without opening it for editing.
// An open document wins over the file on disk.
func (w *Workspace) Peek(path string) (string, error) {
	w.mu.Lock()
	d, ok := w.docs[key(path)]
	w.mu.Unlock()
	if ok {
		return d.Text(), nil
	}
	ro, err := LoadReadOnly(path)
	if err != nil {
		return "", err
	}
	return ro.Text(), nil
}

// Modified lists the paths of documents with unsaved changes, sorted.
func (w *Workspace) Modified() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var paths []string
	for p, d := range w.docs {
		if d.Modified() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// SaveAll writes every modified document to disk and returns the saved paths.
func (w *Workspace) SaveAll() ([]string, error) {
	paths := w.Modified()
	for _, p := range paths {
		w.mu.Lock()
		d := w.docs[p]
		w.mu.Unlock()
		if err := d.Save(); err != nil {
			return nil, fmt.Errorf("save %s: %w", p, err)
		}
	}
	return paths, nil
}
