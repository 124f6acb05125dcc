// Package history keeps the ordered log of completed generations. The store
// outlives any single session: "start over" resets the live session but the
// log survives for the lifetime of the process.
package history

import (
	"strings"
	"sync"

	"github.com/Ziad-Soliman/Tasweer-AI-sub001/internal/domain"
)

// Store is a newest-first, append-at-head list of history entries. Restore
// hands out deep copies, so entries stay byte-for-byte stable no matter what
// the live session does afterwards.
type Store struct {
	mu      sync.Mutex
	entries []*domain.HistoryEntry
}

func NewStore() *Store {
	return &Store{}
}

// Append prepends the entry so the head is always the most recent run.
func (s *Store) Append(entry *domain.HistoryEntry) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]*domain.HistoryEntry{entry.Clone()}, s.entries...)
}

// List returns deep copies of all entries, newest first.
func (s *Store) List() []*domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.HistoryEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Clone()
	}
	return out
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get returns a deep copy of one entry.
func (s *Store) Get(id string) (*domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e.Clone(), nil
}

// Restore is a pure read: it returns a deep copy of the entry for cloning
// back into the live session and never removes or reorders anything.
func (s *Store) Restore(id string) (*domain.HistoryEntry, error) {
	return s.Get(id)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return false, domain.ErrNotFound
	}
	e.IsFavorite = !e.IsFavorite
	return e.IsFavorite, nil
}

// Delete removes an entry. This is the only way an entry ever leaves the log.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// Find filters by case-insensitive title substring and, optionally, the
// favorite flag. An empty query matches everything.
func (s *Store) Find(query string, favoritesOnly bool) []*domain.HistoryEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.HistoryEntry
	for _, e := range s.entries {
		if favoritesOnly && !e.IsFavorite {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Title), query) {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

// ReplaceHeadResult swaps the content of the head entry's slot with the given
// result ID. This is the sanctioned in-place update that keeps the latest
// snapshot in step with an edit applied to the live session. Returns false
// when there is no head entry or the slot is gone.
func (s *Store) ReplaceHeadResult(resultID string, content *domain.Asset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return false
	}
	for _, r := range s.entries[0].ResultsSnapshot {
		if r.ID == resultID {
			r.Content = content.Clone()
			return true
		}
	}
	return false
}

// HeadPalette returns the head entry's palette, if one was attached.
func (s *Store) HeadPalette() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 || s.entries[0].Palette == nil {
		return nil, false
	}
	return append([]string(nil), s.entries[0].Palette...), true
}

// AttachPalette stores a palette on the head entry. The palette is computed
// at most once per entry; a second attach is ignored and the stored palette
// returned.
func (s *Store) AttachPalette(colors []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return nil
	}
	head := s.entries[0]
	if head.Palette != nil {
		return append([]string(nil), head.Palette...)
	}
	head.Palette = append([]string(nil), colors...)
	return append([]string(nil), head.Palette...)
}

func (s *Store) find(id string) *domain.HistoryEntry {
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}
