package store

import (
	"sync"

	"github.com/ukydev/carbon-tracker/internal/models"
)

// EntryStore is an ordered in-memory list of activity entries.
// Insertion order is display order.
type EntryStore struct {
	mu      sync.RWMutex
	entries []models.ActivityEntry
}

// New creates an empty entry store
func New() *EntryStore {
	return &EntryStore{}
}

// Add appends an entry.
func (s *EntryStore) Add(entry models.ActivityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// Remove deletes the entry with the given id. It reports whether one was found.
func (s *EntryStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// Update applies patch to the entry with the given id and returns the result.
func (s *EntryStore) Update(id string, patch models.EntryPatch) (models.ActivityEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ActivityEntry{}, false
	}
	patch.Apply(&s.entries[i])
	return s.entries[i], true
}

// Get returns the entry with the given id.
func (s *EntryStore) Get(id string) (models.ActivityEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.ActivityEntry{}, false
	}
	return s.entries[i], true
}

// List returns a copy of all entries in display order.
func (s *EntryStore) List() []models.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ActivityEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Total returns the sum of EmissionKg over all entries, 0 when empty.
func (s *EntryStore) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0.0
	for _, e := range s.entries {
		total += e.EmissionKg
	}
	return total
}

// Replace swaps the whole content, used when seeding from storage.
func (s *EntryStore) Replace(entries []models.ActivityEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]models.ActivityEntry, len(entries))
	copy(s.entries, entries)
}

func (s *EntryStore) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}
