package signal

// Filter decides whether a payload should be delivered to a subscription.
type Filter func(payload any) bool

// subscription is one live handler attachment. The id doubles as the
// tiebreaker for equal priorities, preserving subscription order.
type subscription struct {
	id        int
	name      string
	handler   Handler
	priority  int
	once      bool
	filter    Filter
	owner     string
	cancelled bool
}

// SubscribeOption configures a subscription at creation time.
type SubscribeOption func(*subscription)

// WithPriority sets delivery priority; higher priorities receive the payload
// first.
func WithPriority(p int) SubscribeOption {
	return func(s *subscription) {
		s.priority = p
	}
}

// WithOnce removes the subscription after its first delivery completes,
// whether the handler succeeded or failed.
func WithOnce() SubscribeOption {
	return func(s *subscription) {
		s.once = true
	}
}

// WithFilter attaches a predicate; payloads it rejects are not delivered.
func WithFilter(f Filter) SubscribeOption {
	return func(s *subscription) {
		s.filter = f
	}
}

// WithOwner tags the subscription so RemoveOwner can detach it during plugin
// teardown.
func WithOwner(owner string) SubscribeOption {
	return func(s *subscription) {
		s.owner = owner
	}
}
