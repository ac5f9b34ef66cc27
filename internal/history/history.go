// Package history keeps the back/forward stack of visited directories.
package history

import "github.com/taigrr/aslm/internal/types"

// Manager owns a history stack and the cursor into it. Pushing while the
// cursor is not at the end discards the forward entries.
//
// Manager is not safe for concurrent use; the navigation controller
// serializes access to it.
type Manager struct {
	stack []string
	index int
}

// New creates a Manager whose only entry is start.
func New(start string) *Manager {
	return &Manager{stack: []string{start}}
}

// Push records path as the newest entry after the cursor.
func (m *Manager) Push(path string) {
	m.stack = append(m.stack[:m.index+1], path)
	m.index = len(m.stack) - 1
}

// Back moves the cursor one entry back and returns that entry.
func (m *Manager) Back() (string, bool) {
	if m.index <= 0 {
		return "", false
	}
	m.index--
	return m.stack[m.index], true
}

// Forward moves the cursor one entry forward and returns that entry.
func (m *Manager) Forward() (string, bool) {
	if m.index >= len(m.stack)-1 {
		return "", false
	}
	m.index++
	return m.stack[m.index], true
}

// At returns the entry at index i.
func (m *Manager) At(i int) (string, bool) {
	if i < 0 || i >= len(m.stack) {
		return "", false
	}
	return m.stack[i], true
}

// Seek moves the cursor to index i. It reports false and leaves the cursor
// alone when i is out of range.
func (m *Manager) Seek(i int) bool {
	if i < 0 || i >= len(m.stack) {
		return false
	}
	m.index = i
	return true
}

// Index returns the cursor position.
func (m *Manager) Index() int {
	return m.index
}

// CanGoBack reports whether there is an entry before the cursor.
func (m *Manager) CanGoBack() bool { return m.index > 0 }

// CanGoForward reports whether there is an entry after the cursor.
func (m *Manager) CanGoForward() bool { return m.index < len(m.stack)-1 }

// Current returns the entry under the cursor.
func (m *Manager) Current() string {
	return m.stack[m.index]
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	return len(m.stack)
}

// State returns a copy of the stack and cursor.
func (m *Manager) State() types.HistoryState {
	stack := make([]string, len(m.stack))
	copy(stack, m.stack)
	return types.HistoryState{Stack: stack, Index: m.index}
}
