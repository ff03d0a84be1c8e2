package pattern

import (
	"beatrender/types"
	"fmt"
	"sort"
	"sync"
)

const DefaultSteps = 16

// DefaultKit is the sound set a fresh store starts with.
var DefaultKit = []string{"kick", "snare", "hihat", "clap"}

// Store holds the live step grid per sound. It is safe for concurrent use;
// renders only ever see copies taken by Snapshot.
type Store struct {
	mu     sync.RWMutex
	steps  int
	tracks map[string][]bool
}

func NewStore(steps int, sounds ...string) (*Store, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("step count must be positive, got %d", steps)
	}
	s := &Store{
		steps:  steps,
		tracks: make(map[string][]bool),
	}
	for _, name := range sounds {
		s.tracks[name] = make([]bool, steps)
	}
	return s, nil
}

func (s *Store) Steps() int {
	return s.steps
}

// Sounds lists the sound names in sorted order.
func (s *Store) Sounds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tracks))
	for name := range s.tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) checkStep(step int) error {
	if step < 0 || step >= s.steps {
		return fmt.Errorf("step %d outside [0, %d)", step, s.steps)
	}
	return nil
}

// Set turns one step on or off, adding the sound if it is new.
func (s *Store) Set(sound string, step int, on bool) error {
	if err := s.checkStep(step); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tracks[sound]
	if !ok {
		row = make([]bool, s.steps)
		s.tracks[sound] = row
	}
	row[step] = on
	return nil
}

// Toggle flips one step and returns its new state.
func (s *Store) Toggle(sound string, step int) (bool, error) {
	if err := s.checkStep(step); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tracks[sound]
	if !ok {
		row = make([]bool, s.steps)
		s.tracks[sound] = row
	}
	row[step] = !row[step]
	return row[step], nil
}

func (s *Store) Get(sound string, step int) bool {
	if s.checkStep(step) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tracks[sound]
	return ok && row[step]
}

// SetPattern replaces a whole row.
func (s *Store) SetPattern(sound string, p types.StepPattern) error {
	if len(p) != s.steps {
		return fmt.Errorf("pattern for %q has %d steps, store has %d", sound, len(p), s.steps)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[sound] = []bool(p.Clone())
	return nil
}

func (s *Store) Remove(sound string) {
	s.mu.Lock()
	delete(s.tracks, sound)
	s.mu.Unlock()
}

// Clear switches every step of every sound off.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.tracks {
		s.tracks[name] = make([]bool, s.steps)
	}
}

// Snapshot returns a deep copy of the grid for one render.
func (s *Store) Snapshot() map[string]types.StepPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]types.StepPattern, len(s.tracks))
	for name, row := range s.tracks {
		snap[name] = types.StepPattern(row).Clone()
	}
	return snap
}
