// Package results records finished quiz attempts and ranks players.
package results

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrInvalidEntry is returned by Record for entries without questions.
var ErrInvalidEntry = errors.New("results: entry total must be positive")

// Entry is the best finished attempt of a user.
type Entry struct {
	UserID     int64     `db:"user_id"`
	Username   string    `db:"username"`
	FirstName  string    `db:"first_name"`
	Correct    int       `db:"correct"`
	Total      int       `db:"total"`
	FinishedAt time.Time `db:"finished_at"`
}

// Percentage returns Correct/Total*100.
func (e Entry) Percentage() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Total) * 100
}

// Better reports whether e outranks other: higher percentage first, then
// more correct answers.
func (e Entry) Better(other Entry) bool {
	pe, po := e.Percentage(), other.Percentage()
	if pe != po {
		return pe > po
	}
	return e.Correct > other.Correct
}

// Recorder stores results and serves the leaderboard.
type Recorder interface {
	// Record keeps entry if it beats the user's previous best and reports
	// whether it did.
	Record(ctx context.Context, entry Entry) (bool, error)
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// MemoryRecorder keeps results in process memory.
type MemoryRecorder struct {
	mu      sync.RWMutex
	entries map[int64]Entry
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{entries: make(map[int64]Entry)}
}

// Record implements Recorder.
func (m *MemoryRecorder) Record(_ context.Context, entry Entry) (bool, error) {
	if entry.Total <= 0 {
		return false, ErrInvalidEntry
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.entries[entry.UserID]; ok && !entry.Better(prev) {
		return false, nil
	}
	m.entries[entry.UserID] = entry
	return true, nil
}

// Top implements Recorder.
func (m *MemoryRecorder) Top(_ context.Context, limit int) ([]Entry, error) {
	m.mu.RLock()
	list := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		list = append(list, e)
	}
	m.mu.RUnlock()

	Rank(list)
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// Rank sorts entries best first. Ties go to the earlier finisher, then to the
// lower user id, the same order the quiz_results query uses.
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Better(entries[j]) {
			return true
		}
		if entries[j].Better(entries[i]) {
			return false
		}
		if !entries[i].FinishedAt.Equal(entries[j].FinishedAt) {
			return entries[i].FinishedAt.Before(entries[j].FinishedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})
}
