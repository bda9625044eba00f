// Package buffer provides an in-memory text buffer service backed by files
// on disk.
package buffer

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Document is an in-memory text buffer with a line index.
type Document struct {
	mu        sync.RWMutex
	path      string
	text      string
	lineIdx   []uint32 // start offset of every line
	modified  bool
	readOnly  bool
	modifyCnt int
}

// NewDocument creates a document holding text. Path may be empty.
func NewDocument(path, text string) *Document {
	d := &Document{path: path}
	d.setText(text)
	return d
}

// Load reads path into a new document, normalizing CRLF line endings.
func Load(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return NewDocument(path, strings.TrimPrefix(text, "\uFEFF")), nil
}

// LoadReadOnly reads path into a document that rejects edits.
func LoadReadOnly(path string) (*Document, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	d.readOnly = true
	return d, nil
}

func (d *Document) setText(text string) {
	d.text = text
	d.lineIdx = buildLineIndex(text)
}

func buildLineIndex(text string) []uint32 {
	idx := make([]uint32, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		next, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		idx = append(idx, next)
	}
	return idx
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// Text returns the current content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// LineCount returns the number of lines, counting a trailing empty line.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lineIdx)
}

// PositionToOffset translates a 1-based line and column into a byte offset.
// The line just past the last one maps to the end of the text at column 1.
func (d *Document) PositionToOffset(line, column int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if line < 1 || column < 1 {
		return 0, fmt.Errorf("position %d:%d is not 1-based", line, column)
	}
	if line > len(d.lineIdx) {
		if line == len(d.lineIdx)+1 && column == 1 {
			return len(d.text), nil
		}
		return 0, fmt.Errorf("line %d out of range (%d lines)", line, len(d.lineIdx))
	}
	start := int(d.lineIdx[line-1])
	end := len(d.text)
	if line < len(d.lineIdx) {
		end = int(d.lineIdx[line]) - 1
	}
	offset := start + column - 1
	if offset > end {
		return 0, fmt.Errorf("column %d out of range on line %d (length %d)", column, line, end-start)
	}
	return offset, nil
}

// Replace substitutes length bytes at offset with text.
func (d *Document) Replace(offset, length int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return fmt.Errorf("%s is read-only", d.path)
	}
	if offset < 0 || length < 0 || offset+length > len(d.text) {
		return fmt.Errorf("range [%d,%d) out of bounds (length %d)", offset, offset+length, len(d.text))
	}
	d.setText(d.text[:offset] + text + d.text[offset+length:])
	return nil
}

// Insert adds text at offset.
func (d *Document) Insert(offset int, text string) error {
	return d.Replace(offset, 0, text)
}

// Remove deletes length bytes at offset.
func (d *Document) Remove(offset, length int) error {
	return d.Replace(offset, length, "")
}

// MarkModified flags the document as dirty.
func (d *Document) MarkModified() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modified = true
	d.modifyCnt++
}

// Modified reports whether the document has unsaved changes.
func (d *Document) Modified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// ModifyCount reports how many times MarkModified was called.
func (d *Document) ModifyCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modifyCnt
}

// Save writes the document back to its path, keeping the file mode.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return fmt.Errorf("document has no path")
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(d.path, []byte(d.text), mode); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	d.modified = false
	return nil
}
