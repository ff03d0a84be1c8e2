package pattern

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is the on-disk description of one bar.
//
//	{"title": "four on the floor", "bpm": 120, "steps": 16,
//	 "tracks": {"kick": "x---x---x---x---", "hihat": [false, true, ...]}}
type File struct {
	Title  string         `json:"title,omitempty"`
	BPM    int            `json:"bpm,omitempty"`
	Steps  int            `json:"steps,omitempty"`
	Tracks map[string]Row `json:"tracks"`
}

// Row accepts either a step string ("x" / "-") or a bool array.
type Row []bool

func (r *Row) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		row, err := ParseRow(s)
		if err != nil {
			return err
		}
		*r = row
		return nil
	}
	var b []bool
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("track row must be a step string or bool array: %w", err)
	}
	*r = b
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	for _, on := range r {
		if on {
			b.WriteByte('x')
		} else {
			b.WriteByte('-')
		}
	}
	return json.Marshal(b.String())
}

// ParseRow reads "x---x---". x, X, 1 and * are hits; -, ., 0 and _ are rests.
// Spaces and | separate beats and are ignored.
func ParseRow(s string) (Row, error) {
	row := make(Row, 0, len(s))
	for i, c := range s {
		switch c {
		case 'x', 'X', '1', '*':
			row = append(row, true)
		case '-', '.', '0', '_':
			row = append(row, false)
		case ' ', '|':
		default:
			return nil, fmt.Errorf("invalid step character %q at %d", c, i)
		}
	}
	return row, nil
}

// LoadFile reads a pattern file into a new store. Steps defaults to the
// longest row when the file leaves it out; every row must match it.
func LoadFile(path string) (*Store, File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, File{}, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	store, err := f.Store()
	if err != nil {
		return nil, File{}, fmt.Errorf("%s: %w", path, err)
	}
	f.Steps = store.Steps()
	return store, f, nil
}

// Store builds a pattern store from the file contents.
func (f File) Store() (*Store, error) {
	steps := f.Steps
	if steps == 0 {
		for _, row := range f.Tracks {
			steps = max(steps, len(row))
		}
	}
	if steps == 0 {
		steps = DefaultSteps
	}
	store, err := NewStore(steps)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Tracks))
	for name := range f.Tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := f.Tracks[name]
		if len(row) != steps {
			return nil, fmt.Errorf("track %q has %d steps, want %d", name, len(row), steps)
		}
		if err := store.SetPattern(name, []bool(row)); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// SaveFile writes the store as a pattern file.
func (s *Store) SaveFile(path, title string, bpm int) error {
	f := File{
		Title:  title,
		BPM:    bpm,
		Steps:  s.steps,
		Tracks: make(map[string]Row),
	}
	for name, p := range s.Snapshot() {
		f.Tracks[name] = Row(p)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
