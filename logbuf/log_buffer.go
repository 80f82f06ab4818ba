// Package logbuf holds the bounded activity feed shown on the dashboard.
package logbuf

import (
	"strings"
	"sync"
)

// DefaultCapacity is the number of activity entries kept when none is given.
const DefaultCapacity = 50

// Iconic controls whether to use Unicode icons or ASCII fallbacks
var Iconic = true

// Level is the severity (and display style) of an activity entry
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelNotice
	LevelWarn
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelSuccess:
		return "OK"
	case LevelNotice:
		return "NOTE"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRIT"
	default:
		return "???"
	}
}

func (l Level) Icon() string {
	if !Iconic {
		return l.String()[:1]
	}
	switch l {
	case LevelInfo:
		return "●"
	case LevelSuccess:
		return "✓"
	case LevelNotice:
		return "○"
	case LevelWarn:
		return "▲"
	case LevelError:
		return "✗"
	case LevelCritical:
		return "‼"
	default:
		return "?"
	}
}

// Entry is one line of the activity feed. Stamp is already formatted as
// wall clock "HH:MM:SS".
type Entry struct {
	Stamp   string
	Level   Level
	Message string
}

// Buffer is a thread-safe ring of activity entries, newest first. When
// full, adding an entry evicts the oldest one.
type Buffer struct {
	entries  []Entry
	next     int
	size     int
	capacity int
	mu       sync.RWMutex
}

// New creates a buffer holding at most capacity entries; non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Add prepends a new entry
func (lb *Buffer) Add(stamp string, level Level, message string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries[lb.next] = Entry{
		Stamp:   stamp,
		Level:   level,
		Message: strings.TrimRight(message, " \n"),
	}
	lb.next = (lb.next + 1) % lb.capacity
	if lb.size < lb.capacity {
		lb.size++
	}
}

// Recent returns up to n entries, newest first
func (lb *Buffer) Recent(n int) []Entry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 || lb.size == 0 {
		return nil
	}
	if n > lb.size {
		n = lb.size
	}
	result := make([]Entry, n)
	for i := range result {
		at := (lb.next - 1 - i + lb.capacity) % lb.capacity
		result[i] = lb.entries[at]
	}
	return result
}

// All returns a copy of every entry, newest first
func (lb *Buffer) All() []Entry {
	return lb.Recent(lb.Len())
}

// Len returns the number of entries
func (lb *Buffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.size
}

// Capacity returns the maximum number of entries kept
func (lb *Buffer) Capacity() int {
	return lb.capacity
}

// Clear removes all entries
func (lb *Buffer) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.next, lb.size = 0, 0
}

// Stats holds per-level counts of the buffered entries
type Stats struct {
	Total    int
	Problems int // warn, error and critical
	Errors   int // error and critical
	Warns    int
	Infos    int
}

func (lb *Buffer) Stats() Stats {
	entries := lb.All()
	stats := Stats{Total: len(entries)}
	for _, e := range entries {
		switch e.Level {
		case LevelError, LevelCritical:
			stats.Errors++
			stats.Problems++
		case LevelWarn:
			stats.Warns++
			stats.Problems++
		default:
			stats.Infos++
		}
	}
	return stats
}
