// Package wordlists manages the uploaded candidate-password lists that
// get bundled with capture files. The lists are only stored and served;
// nothing here ever runs them against anything.
package wordlists

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no wordlist exists under the given name.
var ErrNotFound = errors.New("wordlists: not found")

// Asset is a stored wordlist.
type Asset struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// Store keeps wordlists as plain files in one directory. Names are
// unique within the store; putting an existing name replaces its
// content.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("wordlists: empty store dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create wordlist dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// List returns the stored wordlists sorted by name.
func (s *Store) List() ([]Asset, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var assets []Asset
	for _, e := range entries {
		if !e.Type().IsRegular() || !validExt(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		assets = append(assets, Asset{Name: e.Name(), SizeBytes: info.Size()})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// Put stores a wordlist under name, replacing any existing content. The
// write goes to a temp file first and is renamed into place, so readers
// never observe a half-written list.
func (s *Store) Put(name string, r io.Reader) (Asset, error) {
	name, err := sanitize(name)
	if err != nil {
		return Asset{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return Asset{}, err
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return Asset{}, err
	}
	if err := tmp.Close(); err != nil {
		return Asset{}, err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return Asset{}, err
	}
	return Asset{Name: name, SizeBytes: size}, nil
}

// Path returns the on-disk path for name, or ErrNotFound.
func (s *Store) Path(name string) (string, error) {
	name, err := sanitize(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Delete removes a stored wordlist. Deleting a missing name is an
// ErrNotFound, so callers can tell a typo from success.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// sanitize reduces a requested name to a safe bare filename with a
// recognized extension.
func sanitize(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("wordlists: invalid name %q", name)
	}
	if !validExt(name) {
		return "", fmt.Errorf("wordlists: unsupported extension for %q (want .txt or .lst)", name)
	}
	return name, nil
}

func validExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".lst":
		return true
	}
	return false
}
