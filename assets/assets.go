package assets

import (
	"beatrender/types"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source supplies the raw WAV bytes of a named sound, e.g. "kick".
type Source interface {
	Open(name string) ([]byte, error)
}

// Dir serves <Root>/<name><Ext> from disk.
type Dir struct {
	Root string
	Ext  string // defaults to ".wav"
}

// NewDir serves .wav files from root.
func NewDir(root string) *Dir {
	return &Dir{Root: root, Ext: ".wav"}
}

func (d *Dir) path(name string) string {
	ext := d.Ext
	if ext == "" {
		ext = ".wav"
	}
	return filepath.Join(d.Root, name+ext)
}

// Open reads the named sound. Unknown and unsafe names are AssetNotFoundError.
func (d *Dir) Open(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, &types.AssetNotFoundError{Asset: name}
	}
	data, err := os.ReadFile(d.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &types.AssetNotFoundError{Asset: name}
		}
		return nil, err
	}
	return data, nil
}

// List returns the sound names available in the directory.
func (d *Dir) List() ([]string, error) {
	ext := d.Ext
	if ext == "" {
		ext = ".wav"
	}
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names, nil
}

// Memory is an in-process source keyed by sound name.
type Memory map[string][]byte

func (m Memory) Open(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, &types.AssetNotFoundError{Asset: name}
	}
	return data, nil
}
