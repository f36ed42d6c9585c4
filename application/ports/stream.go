package ports

import "sync"

// Subscription is a live snapshot feed with latest-wins buffering of one.
// A slow consumer observes the most recent snapshot after resuming, never
// a backlog of intermediate ones.
//
// The producer side (a repository implementation) publishes with Publish and
// terminates with Fail; the consumer side ranges over Snapshots and must
// call Close on all exit paths so the underlying remote listener is
// released.
type Subscription struct {
	ch      chan Snapshot
	release func()

	mu     sync.Mutex
	err    error
	closed bool
}

// NewSubscription creates a subscription. release is invoked exactly once,
// on Close or Fail, and detaches the subscription from its producer.
func NewSubscription(release func()) *Subscription {
	return &Subscription{
		ch:      make(chan Snapshot, 1),
		release: release,
	}
}

// Snapshots returns the snapshot channel. The channel is closed when the
// subscription is closed by the consumer or failed by the producer; after
// it closes, Err distinguishes the two.
func (s *Subscription) Snapshots() <-chan Snapshot {
	return s.ch
}

// Publish pushes a snapshot, displacing an unconsumed older one.
// Publishing to a closed subscription is a silent no-op: teardown drops
// buffered pushes rather than delivering them.
func (s *Subscription) Publish(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
			// Drop the stale snapshot, then retry the send.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Fail terminates the subscription with a transport error. Consumers must
// treat this as "re-subscribe or surface fatal state", not as graceful
// completion.
func (s *Subscription) Fail(err error) {
	s.terminate(err)
}

// Close releases the subscription and its underlying remote listener.
// Closing twice is safe.
func (s *Subscription) Close() error {
	s.terminate(nil)
	return nil
}

// Err returns the terminal error, or nil if the subscription was closed by
// the consumer. Valid once Snapshots is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) terminate(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	close(s.ch)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		release()
	}
}
