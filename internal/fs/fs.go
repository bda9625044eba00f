// Package fs resolves source paths and hashes file contents.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathResolver finds absolute paths for files.
type PathResolver struct {
	lookupDirs []string
}

// NewPathResolver creates a resolver searching lookupDirs in order. With no
// directories it searches the working directory.
func NewPathResolver(lookupDirs []string) (*PathResolver, error) {
	if len(lookupDirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not get current working directory: %w", err)
		}
		return &PathResolver{lookupDirs: []string{wd}}, nil
	}

	absDirs := make([]string, 0, len(lookupDirs))
	for _, dir := range lookupDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid lookup directory %q: %w", dir, err)
		}
		absDirs = append(absDirs, abs)
	}
	return &PathResolver{lookupDirs: absDirs}, nil
}

// Resolve finds an absolute path, assuming the first lookup directory when
// the file does not exist.
func (r *PathResolver) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if existing := r.ResolveExisting(path); existing != "" {
		return existing
	}
	return filepath.Join(r.lookupDirs[0], path)
}

// ResolveExisting finds an absolute path only if the file exists.
func (r *PathResolver) ResolveExisting(path string) string {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return filepath.Clean(path)
		}
		return ""
	}
	for _, dir := range r.lookupDirs {
		absPath := filepath.Join(dir, path)
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}
	return ""
}

// Relative returns path relative to the first lookup directory when possible.
func (r *PathResolver) Relative(path string) string {
	rel, err := filepath.Rel(r.lookupDirs[0], path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// DesignerPartFor returns the conventional designer file next to primary,
// e.g. MainForm.cs -> MainForm.Designer.cs.
func DesignerPartFor(primary, suffix string) string {
	ext := filepath.Ext(primary)
	return strings.TrimSuffix(primary, ext) + suffix
}

// SiblingParts lists the files that may hold other parts of the class
// declared in primary: Name.cs plus every Name.*.cs next to it, sorted,
// primary excluded.
func SiblingParts(primary string) ([]string, error) {
	ext := filepath.Ext(primary)
	stem := strings.TrimSuffix(primary, ext)
	matches, err := filepath.Glob(globEscape(stem) + ".*" + ext)
	if err != nil {
		return nil, fmt.Errorf("failed to list parts of %s: %w", primary, err)
	}
	parts := matches[:0]
	for _, m := range matches {
		if filepath.Clean(m) != filepath.Clean(primary) {
			parts = append(parts, m)
		}
	}
	sort.Strings(parts)
	return parts, nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}

// GetFileSHA256 hashes the contents of path.
func GetFileSHA256(path string) (string, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// TextSHA256 hashes text the same way GetFileSHA256 hashes a file.
func TextSHA256(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
