// Package presets stores named station presets as an ordered list in a
// small JSON file. The on-disk format doubles as the import/export
// format, so a round trip through export and import is lossless.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Preset is one saved station. Freq and Prog are kept as strings so the
// serialized records survive import/export byte-for-byte; Prog defaults
// to "0" when absent.
type Preset struct {
	Name string `json:"name"`
	Freq string `json:"freq"`
	Prog string `json:"prog"`
}

// Label renders the preset the way pickers show it, e.g.
// "Classical — 90.1 MHz (P2)".
func (p Preset) Label() string {
	name := p.Name
	if name == "" {
		name = p.Freq + " MHz P" + p.Prog
	}
	return fmt.Sprintf("%s — %s MHz (P%s)", name, p.Freq, p.Prog)
}

// Store is a mutex-guarded preset list persisted to a JSON file. Every
// mutation writes through to disk.
type Store struct {
	mu   sync.Mutex
	path string
	list []Preset
}

// Open loads the preset file at path, treating a missing file as an
// empty list. Malformed entries (no frequency) are dropped on load, the
// same way they are dropped on import.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}

	list, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	s.list = list
	return s, nil
}

// List returns a copy of the presets in order.
func (s *Store) List() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Preset, len(s.list))
	copy(out, s.list)
	return out
}

// Add appends a preset. An empty name defaults to "<freq> MHz P<prog>"
// and an empty program to "0"; a missing frequency is rejected.
func (s *Store) Add(p Preset) (Preset, error) {
	if p.Freq == "" {
		return Preset{}, fmt.Errorf("preset needs a frequency")
	}
	if _, err := strconv.ParseFloat(p.Freq, 64); err != nil {
		return Preset{}, fmt.Errorf("preset frequency %q is not a number", p.Freq)
	}
	if p.Prog == "" {
		p.Prog = "0"
	}
	if p.Name == "" {
		p.Name = p.Freq + " MHz P" + p.Prog
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, p)
	return p, s.save()
}

// Remove deletes the first preset with the given name.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.list {
		if p.Name == name {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return s.save()
		}
	}
	return fmt.Errorf("no preset named %q", name)
}

// Move shifts the named preset by delta positions (negative is toward
// the front). Moves past either end are rejected.
func (s *Store) Move(name string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.list {
		if p.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no preset named %q", name)
	}

	target := idx + delta
	if target < 0 || target >= len(s.list) {
		return fmt.Errorf("cannot move %q out of range", name)
	}

	p := s.list[idx]
	s.list = append(s.list[:idx], s.list[idx+1:]...)
	s.list = append(s.list[:target], append([]Preset{p}, s.list[target:]...)...)
	return s.save()
}

// Find returns the first preset with the given name.
func (s *Store) Find(name string) (Preset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.list {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Export serializes the ordered list as indented JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.list, "", "  ")
}

// Import replaces the whole list with the decoded records and persists
// it. Records without a frequency are skipped, not fatal.
func (s *Store) Import(data []byte) (int, error) {
	list, err := decode(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = list
	return len(list), s.save()
}

// decode parses a JSON preset list, normalizing defaults and dropping
// records with no frequency.
func decode(data []byte) ([]Preset, error) {
	var raw []Preset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("presets must be a JSON list: %w", err)
	}

	list := make([]Preset, 0, len(raw))
	for _, p := range raw {
		if p.Freq == "" {
			continue
		}
		if p.Prog == "" {
			p.Prog = "0"
		}
		if p.Name == "" {
			p.Name = p.Freq + " MHz P" + p.Prog
		}
		list = append(list, p)
	}
	return list, nil
}

// save writes the list atomically via a temp file and rename so readers
// never see a half-written file. Callers hold s.mu.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.list, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "presets-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
