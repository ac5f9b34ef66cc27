// Package dircontext decides which product context stays active as the
// current directory changes.
package dircontext

import (
	"github.com/taigrr/aslm/internal/pathnorm"
	"github.com/taigrr/aslm/internal/types"
)

// Transition names the outcome of a context decision.
type Transition int

const (
	// Adopt means the directory just entered is itself a product.
	Adopt Transition = iota
	// Retain means the previous context still covers the directory.
	Retain
	// Clear means navigation left the previous context's subtree.
	Clear
)

func (t Transition) String() string {
	switch t {
	case Adopt:
		return "adopt"
	case Retain:
		return "retain"
	case Clear:
		return "clear"
	default:
		return "unknown"
	}
}

// Resolve returns the context that should be active once currentPath is
// committed. A resolved context always wins, then an active one whose
// subtree contains currentPath, and otherwise nothing.
func Resolve(currentPath string, active, resolved *types.DirectoryContext) (*types.DirectoryContext, Transition) {
	if resolved != nil {
		return resolved, Adopt
	}
	if active != nil && pathnorm.IsAncestorOrEqual(active.Path, currentPath) {
		return active, Retain
	}
	return nil, Clear
}

// Cache holds the active context between navigations.
type Cache struct {
	active *types.DirectoryContext
}

// Update applies Resolve against the cached context and stores the result.
func (c *Cache) Update(currentPath string, resolved *types.DirectoryContext) Transition {
	next, tr := Resolve(currentPath, c.active, resolved)
	c.active = next.Clone()
	return tr
}

// Active returns a copy of the active context, or nil.
func (c *Cache) Active() *types.DirectoryContext {
	return c.active.Clone()
}
