package collab

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// SubscriberBufferSize is the capacity of a subscriber's channel. A
// subscriber whose channel is full misses the message and is marked for
// resync instead of blocking the publisher.
const SubscriberBufferSize = 256

// Subscriber receives the messages of one project.
type Subscriber struct {
	C chan Envelope

	resync atomic.Bool
	done   chan struct{}
	once   sync.Once
}

// Done is closed when the subscriber is removed from its broker.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Next converts an envelope read from C into what the consumer should
// handle. After an overflow it discards the stale buffered messages and
// returns a resync envelope instead.
func (s *Subscriber) Next(env Envelope) Envelope {
	if s.resync.CompareAndSwap(true, false) {
		for len(s.C) > 0 {
			<-s.C
		}
		return Envelope{Topic: TopicResync, ProjectID: env.ProjectID}
	}
	return env
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// trySend delivers env without blocking. alive is false when the
// subscriber is gone; lagged is true when this send started an overflow.
func (s *Subscriber) trySend(env Envelope) (alive, lagged bool) {
	select {
	case <-s.done:
		return false, false
	default:
	}
	select {
	case s.C <- env:
		return true, false
	default:
		return true, !s.resync.Swap(true)
	}
}

// Broker fans messages out to the subscribers of each project.
type Broker struct {
	logger *slog.Logger

	mu   sync.Mutex
	subs map[int64]map[*Subscriber]struct{}
}

// NewBroker returns an empty broker. A nil logger discards.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{logger: logger, subs: make(map[int64]map[*Subscriber]struct{})}
}

// Subscribe registers a new subscriber for projectID.
func (b *Broker) Subscribe(projectID int64) *Subscriber {
	s := &Subscriber{
		C:    make(chan Envelope, SubscriberBufferSize),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[projectID]
	if set == nil {
		set = make(map[*Subscriber]struct{})
		b.subs[projectID] = set
	}
	set[s] = struct{}{}
	return s
}

// Unsubscribe removes s and closes its Done channel. Messages already
// buffered in s.C remain readable.
func (b *Broker) Unsubscribe(projectID int64, s *Subscriber) {
	b.mu.Lock()
	if set := b.subs[projectID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(b.subs, projectID)
		}
	}
	b.mu.Unlock()
	s.close()
}

// Publish delivers env to every subscriber of projectID and returns the
// number of subscribers reached.
func (b *Broker) Publish(projectID int64, env Envelope) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for s := range b.subs[projectID] {
		alive, lagged := s.trySend(env)
		if !alive {
			delete(b.subs[projectID], s)
			continue
		}
		if lagged {
			b.logger.Warn("subscriber lagging, marked for resync",
				"project", projectID, "topic", env.Topic)
		}
		n++
	}
	return n
}

// Subscribers returns the number of subscribers of projectID.
func (b *Broker) Subscribers(projectID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[projectID])
}
