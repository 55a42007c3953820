// Package history keeps bounded undo and redo stacks of region set snapshots.
package history

import (
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// DefaultDepth is the number of undo steps kept when no depth is configured
const DefaultDepth = 50

// Manager holds deep-copy snapshots of a region set. Snapshots never alias the live
// set, so later edits cannot reach back into the stacks.
type Manager struct {
	depth int
	undo  []*region.Set
	redo  []*region.Set
}

// New creates a manager keeping at most depth undo steps
func New(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{depth: depth}
}

// Checkpoint records current before an edit and clears the redo stack
func (m *Manager) Checkpoint(current *region.Set) {
	m.undo = pushBounded(m.undo, current.Clone(), m.depth)
	m.redo = nil
}

// Undo returns the state preceding current, saving current for redo.
// It reports false and changes nothing when there is nothing to undo.
func (m *Manager) Undo(current *region.Set) (*region.Set, bool) {
	if len(m.undo) == 0 {
		return nil, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = pushBounded(m.redo, current.Clone(), m.depth)
	return prev.Clone(), true
}

// Redo returns the state undone last, saving current for undo.
// It reports false and changes nothing when there is nothing to redo.
func (m *Manager) Redo(current *region.Set) (*region.Set, bool) {
	if len(m.redo) == 0 {
		return nil, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = pushBounded(m.undo, current.Clone(), m.depth)
	return next.Clone(), true
}

// CanUndo reports whether Undo would change anything
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0
}

// CanRedo reports whether Redo would change anything
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// Depths returns the current sizes of the undo and redo stacks
func (m *Manager) Depths() (undo, redo int) {
	return len(m.undo), len(m.redo)
}

// Reset drops both stacks
func (m *Manager) Reset() {
	m.undo = nil
	m.redo = nil
}

// pushBounded appends s and evicts the oldest entries beyond limit
func pushBounded(stack []*region.Set, s *region.Set, limit int) []*region.Set {
	stack = append(stack, s)
	if over := len(stack) - limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
