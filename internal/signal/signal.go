// Package signal implements a bounded, replayable publish/subscribe bus.
// Emissions are recorded in a capped FIFO history and delivered to matching
// subscriptions in priority order; one subscriber's failure never blocks the
// rest.
package signal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/internal/hook"
)

// DefaultHistorySize caps the emission history unless overridden.
const DefaultHistorySize = 1000

// Handler receives a delivered signal entry.
type Handler func(ctx context.Context, e Entry) error

// Entry is one recorded emission.
type Entry struct {
	ID      string
	Name    string
	Payload any
	Time    time.Time
	Source  string
}

// Stats summarises bus activity since creation.
type Stats struct {
	Emitted             uint64
	Delivered           uint64
	Failures            uint64
	ActiveSubscriptions int
	HistoryLen          int
}

// Manager is the signal bus for one registry instance.
type Manager struct {
	mu          sync.Mutex
	subs        map[string][]*subscription
	nextSubID   int
	history     []Entry
	maxHistory  int
	nextEntryID uint64

	emitted   uint64
	delivered uint64
	failures  uint64
}

// Option configures a Manager at creation time.
type Option func(*Manager)

// WithHistorySize bounds the emission history buffer.
func WithHistorySize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxHistory = n
		}
	}
}

// NewManager creates a signal bus with the default history bound unless
// overridden.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		subs:       make(map[string][]*subscription),
		maxHistory: DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe attaches handler to the named signal and returns an unsubscribe
// closure. Calling the closure more than once is a no-op.
func (m *Manager) Subscribe(name string, handler Handler, opts ...SubscribeOption) (func(), error) {
	if !hook.ValidName(name) {
		return nil, ErrInvalidName{Name: name}
	}
	if handler == nil {
		return nil, ErrNilHandler{Name: name}
	}

	sub := &subscription{name: name, handler: handler}
	for _, opt := range opts {
		opt(sub)
	}

	m.mu.Lock()
	m.nextSubID++
	sub.id = m.nextSubID
	m.subs[name] = append(m.subs[name], sub)
	m.mu.Unlock()

	return func() { m.remove(sub) }, nil
}

// Emit records the payload in history and delivers it to every live matching
// subscription in priority order. Subscriber failures are isolated and
// aggregated into a *DeliveryError; a nil return means every selected
// subscriber succeeded.
func (m *Manager) Emit(ctx context.Context, name string, payload any) error {
	return m.EmitFrom(ctx, "", name, payload)
}

// EmitFrom is Emit with an explicit emitter identity recorded in history.
func (m *Manager) EmitFrom(ctx context.Context, source, name string, payload any) error {
	if !hook.ValidName(name) {
		return ErrInvalidName{Name: name}
	}

	m.mu.Lock()
	m.nextEntryID++
	entry := Entry{
		ID:      fmt.Sprintf("sig-%d", m.nextEntryID),
		Name:    name,
		Payload: payload,
		Time:    time.Now(),
		Source:  source,
	}
	m.history = append(m.history, entry)
	if over := len(m.history) - m.maxHistory; over > 0 {
		m.history = append(m.history[:0], m.history[over:]...)
	}
	m.emitted++

	// Select subscribers while holding the lock. Unsubscribing after this
	// point does not affect the in-flight emission.
	selected := m.selectLocked(name)
	m.mu.Unlock()

	failures := m.deliver(ctx, entry, selected, true)
	if len(failures) > 0 {
		return &DeliveryError{Signal: name, Failures: failures}
	}
	return nil
}

// selectLocked returns live subscriptions for name sorted by priority
// descending, subscription order for ties. Caller must hold m.mu.
func (m *Manager) selectLocked(name string) []*subscription {
	live := m.subs[name]
	if len(live) == 0 {
		return nil
	}
	selected := make([]*subscription, len(live))
	copy(selected, live)
	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].priority != selected[j].priority {
			return selected[i].priority > selected[j].priority
		}
		return selected[i].id < selected[j].id
	})
	return selected
}

// deliver invokes each selected subscription sequentially. When consumeOnce
// is set, once-subscriptions are removed after their handler completes,
// success or failure.
func (m *Manager) deliver(ctx context.Context, entry Entry, selected []*subscription, consumeOnce bool) []error {
	var failures []error
	for _, sub := range selected {
		if sub.filter != nil && !sub.filter(entry.Payload) {
			continue
		}

		err := sub.handler(ctx, entry)

		m.mu.Lock()
		if err != nil {
			m.failures++
			failures = append(failures, &SubscriberError{Signal: entry.Name, Owner: sub.owner, Err: err})
		} else {
			m.delivered++
		}
		m.mu.Unlock()

		if consumeOnce && sub.once {
			m.remove(sub)
		}
	}
	return failures
}

// ReplayOptions narrows which history entries Replay redelivers and where.
type ReplayOptions struct {
	// Name restricts replay to one signal name; empty means all.
	Name string
	// Count limits replay to the most recent N matching entries; zero means
	// no limit.
	Count int
	// To receives every replayed entry. When nil, entries are redelivered to
	// the subscribers currently attached to each entry's name.
	To Handler
}

// Replay iterates the bounded history in emission order and redelivers each
// matching entry without re-inserting it into history. Once-subscriptions
// are not consumed by replay.
func (m *Manager) Replay(ctx context.Context, opts ReplayOptions) error {
	if opts.Name != "" && !hook.ValidName(opts.Name) {
		return ErrInvalidName{Name: opts.Name}
	}

	m.mu.Lock()
	matching := make([]Entry, 0, len(m.history))
	for _, e := range m.history {
		if opts.Name == "" || e.Name == opts.Name {
			matching = append(matching, e)
		}
	}
	if opts.Count > 0 && len(matching) > opts.Count {
		matching = matching[len(matching)-opts.Count:]
	}
	m.mu.Unlock()

	var failures []error
	for _, entry := range matching {
		if opts.To != nil {
			if err := opts.To(ctx, entry); err != nil {
				failures = append(failures, &SubscriberError{Signal: entry.Name, Err: err})
			}
			continue
		}
		m.mu.Lock()
		selected := m.selectLocked(entry.Name)
		m.mu.Unlock()
		failures = append(failures, m.deliver(ctx, entry, selected, false)...)
	}

	if len(failures) > 0 {
		return &DeliveryError{Signal: opts.Name, Failures: failures}
	}
	return nil
}

// History returns a copy of the recorded entries, optionally filtered by
// name (empty matches all), in emission order.
func (m *Manager) History(name string) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.history))
	for _, e := range m.history {
		if name == "" || e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// RemoveOwner detaches every subscription tagged with owner and returns the
// number removed.
func (m *Manager) RemoveOwner(owner string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for name, subs := range m.subs {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.owner == owner {
				sub.cancelled = true
				removed++
				continue
			}
			kept = append(kept, sub)
		}
		m.subs[name] = kept
		if len(m.subs[name]) == 0 {
			delete(m.subs, name)
		}
	}
	return removed
}

// Stats returns a snapshot of bus counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, subs := range m.subs {
		active += len(subs)
	}
	return Stats{
		Emitted:             m.emitted,
		Delivered:           m.delivered,
		Failures:            m.failures,
		ActiveSubscriptions: active,
		HistoryLen:          len(m.history),
	}
}

func (m *Manager) remove(sub *subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.cancelled {
		return
	}
	sub.cancelled = true

	subs := m.subs[sub.name]
	for i, s := range subs {
		if s.id == sub.id {
			m.subs[sub.name] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(m.subs[sub.name]) == 0 {
		delete(m.subs, sub.name)
	}
}
