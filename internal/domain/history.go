package domain

import "time"

// HistoryEntry is a snapshot of one successfully completed run. Entries are
// immutable once appended, with two sanctioned exceptions: edit operations
// replace the content of one result slot in the head entry, and a palette may
// be attached to the head entry once.
type HistoryEntry struct {
	ID               string
	CreatedAt        time.Time
	IsFavorite       bool
	Title            string
	Prompt           string
	SettingsSnapshot Settings
	ResultsSnapshot  []*Result
	Palette          []string
}

// Clone returns a deep copy so callers can hand snapshots out without
// exposing the stored entry to mutation.
func (e *HistoryEntry) Clone() *HistoryEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.SettingsSnapshot = e.SettingsSnapshot.Clone()
	cp.ResultsSnapshot = CloneResults(e.ResultsSnapshot)
	if e.Palette != nil {
		cp.Palette = append([]string(nil), e.Palette...)
	}
	return &cp
}
