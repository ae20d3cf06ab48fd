// Package hook implements named interception points. Callers register
// before/after/around handlers under a hook name and the manager executes
// them in priority order, composing around handlers into a single nested
// operation.
package hook

import (
	"context"
	"regexp"
	"sort"
	"sync"
)

// Handler runs at a before or after interception point.
type Handler func(ctx context.Context, args ...any) error

// Operation is a unit of work that an around chain wraps.
type Operation func(ctx context.Context) (any, error)

// AroundHandler wraps an operation. The handler decides whether and when to
// invoke next; skipping it short-circuits everything nested inside.
type AroundHandler func(ctx context.Context, next Operation, args ...any) (any, error)

// Registration attaches handlers to a named interception point. At least one
// of Before, After or Around must be set. Priority orders execution: higher
// priorities run first (outermost for around chains), ties preserve
// registration order. Owner tags the registration for bulk removal when a
// plugin is torn down.
type Registration struct {
	Name     string
	Before   Handler
	After    Handler
	Around   AroundHandler
	Priority int
	Owner    string
}

// Hook and signal names share the same shape: two or more lowercase
// alphabetic segments joined by colons, e.g. "command:execute" or
// "core:plugin:loaded".
var namePattern = regexp.MustCompile(`^[a-z]+(:[a-z]+)+$`)

// ValidName reports whether name is a well-formed interception point name.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

type entry struct {
	Registration
	seq int
}

// chain holds the registrations for one interception point. Sorting is
// deferred until execution and cached until the list changes.
type chain struct {
	entries []entry
	sorted  bool
}

func (c *chain) sortedEntries() []entry {
	if !c.sorted {
		sort.SliceStable(c.entries, func(i, j int) bool {
			if c.entries[i].Priority != c.entries[j].Priority {
				return c.entries[i].Priority > c.entries[j].Priority
			}
			return c.entries[i].seq < c.entries[j].seq
		})
		c.sorted = true
	}
	return c.entries
}

// Manager owns every interception point in one registry instance.
type Manager struct {
	mu     sync.Mutex
	chains map[string]*chain
	nextID int
}

// NewManager creates an empty hook manager.
func NewManager() *Manager {
	return &Manager{chains: make(map[string]*chain)}
}

// Register appends a registration to the named interception point.
func (m *Manager) Register(reg Registration) error {
	if !ValidName(reg.Name) {
		return ErrInvalidName{Name: reg.Name}
	}
	if reg.Before == nil && reg.After == nil && reg.Around == nil {
		return ErrEmptyRegistration{Name: reg.Name}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chains[reg.Name]
	if !ok {
		c = &chain{}
		m.chains[reg.Name] = c
	}
	m.nextID++
	c.entries = append(c.entries, entry{Registration: reg, seq: m.nextID})
	c.sorted = false
	return nil
}

// RemoveOwner deletes every registration tagged with owner and returns the
// number removed. Empty chains are pruned.
func (m *Manager) RemoveOwner(owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for name, c := range m.chains {
		kept := c.entries[:0]
		for _, e := range c.entries {
			if e.Owner == owner {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		c.entries = kept
		if len(c.entries) == 0 {
			delete(m.chains, name)
		}
	}
	return removed
}

// Count returns the number of registrations for a named interception point.
func (m *Manager) Count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chains[name]
	if !ok {
		return 0
	}
	return len(c.entries)
}

// ExecuteBefore runs every before handler registered under name in priority
// order. A handler failure stops the remaining chain and is returned wrapped
// in a *Error.
func (m *Manager) ExecuteBefore(ctx context.Context, name string, args ...any) error {
	return m.executePhase(ctx, name, "before", args)
}

// ExecuteAfter runs every after handler registered under name in priority
// order with the same failure semantics as ExecuteBefore.
func (m *Manager) ExecuteAfter(ctx context.Context, name string, args ...any) error {
	return m.executePhase(ctx, name, "after", args)
}

func (m *Manager) executePhase(ctx context.Context, name, phase string, args []any) error {
	if !ValidName(name) {
		return ErrInvalidName{Name: name}
	}

	for _, e := range m.snapshot(name) {
		h := e.Before
		if phase == "after" {
			h = e.After
		}
		if h == nil {
			continue
		}
		if err := h(ctx, args...); err != nil {
			return &Error{Hook: name, Phase: phase, Owner: e.Owner, Err: err}
		}
	}
	return nil
}

// ExecuteAround composes every around handler registered under name into a
// single operation nested outermost-to-innermost by priority, with inner as
// the innermost operation, then invokes the composed chain.
func (m *Manager) ExecuteAround(ctx context.Context, name string, inner Operation, args ...any) (any, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName{Name: name}
	}
	if inner == nil {
		inner = func(context.Context) (any, error) { return nil, nil }
	}

	composed := inner
	entries := m.snapshot(name)
	// Wrap lowest priority first so the highest priority handler ends up
	// outermost.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Around == nil {
			continue
		}
		h := e.Around
		next := composed
		composed = func(ctx context.Context) (any, error) {
			return h(ctx, next, args...)
		}
	}

	return composed(ctx)
}

// snapshot returns the sorted entries for name, copied so execution happens
// without holding the manager lock.
func (m *Manager) snapshot(name string) []entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.chains[name]
	if !ok {
		return nil
	}
	entries := c.sortedEntries()
	out := make([]entry, len(entries))
	copy(out, entries)
	return out
}
