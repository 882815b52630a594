package results

import (
	"sort"
	"sync"
)

// Set collects confirmed identifiers. It is safe for concurrent use and is
// injected into every probe; there is no package-level instance.
type Set struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewSet() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Insert adds id and reports whether it was new.
func (s *Set) Insert(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Snapshot returns the members sorted lexicographically. Call it once every
// probe has finished.
func (s *Set) Snapshot() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.Unlock()

	sort.Strings(out)
	return out
}
