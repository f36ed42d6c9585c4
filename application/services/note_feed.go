package services

import (
	"context"
	"sync"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"

	"go.uber.org/zap"
)

// NoteFeed is the long-lived stream consumer shared by the read surfaces
// (list endpoint, websocket push). It follows one repository's snapshot
// stream at a time, keeps the latest snapshot, and fans pushes out to
// watchers with the same latest-wins policy the repository stream uses.
type NoteFeed struct {
	logger *zap.Logger

	mu        sync.Mutex
	sub       *ports.Subscription
	current   ports.Snapshot
	streamErr error
	watchers  map[int]*ports.Subscription
	nextID    int
}

// NewNoteFeed creates a detached feed
func NewNoteFeed(logger *zap.Logger) *NoteFeed {
	return &NoteFeed{
		logger:   logger,
		watchers: make(map[int]*ports.Subscription),
	}
}

// Attach follows a repository, replacing and releasing any previous
// subscription. When a previous stream is replaced its watchers are
// closed as well: a consumer subscribed under the old scope must never
// observe the new scope's snapshots. The initial snapshot arrives
// asynchronously.
func (f *NoteFeed) Attach(ctx context.Context, repo ports.NoteRepository) error {
	sub, err := repo.Stream(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	old := f.sub
	f.sub = sub
	f.current = nil
	f.streamErr = nil
	var watchers []*ports.Subscription
	if old != nil {
		watchers = f.copyWatchersLocked()
		f.watchers = make(map[int]*ports.Subscription)
	}
	f.mu.Unlock()

	if old != nil {
		old.Close() //nolint:errcheck
	}
	for _, w := range watchers {
		w.Close() //nolint:errcheck
	}

	go f.consume(sub)
	return nil
}

// Detach stops following the current repository, clears the snapshot and
// closes every watcher subscription. Consumers must re-subscribe, and
// therefore re-authenticate, against whatever session comes next.
func (f *NoteFeed) Detach() {
	f.mu.Lock()
	old := f.sub
	f.sub = nil
	f.current = nil
	f.streamErr = nil
	watchers := f.copyWatchersLocked()
	f.watchers = make(map[int]*ports.Subscription)
	f.mu.Unlock()

	if old != nil {
		old.Close() //nolint:errcheck
	}
	for _, w := range watchers {
		w.Close() //nolint:errcheck
	}
}

// Current returns the latest snapshot. Empty until the first push after
// Attach.
func (f *NoteFeed) Current() ports.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Err returns the terminal stream error, if the followed stream failed
func (f *NoteFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamErr
}

// FindByID looks a note up in the latest snapshot
func (f *NoteFeed) FindByID(id valueobjects.NoteID) (*entities.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, note := range f.current {
		if note.ID().Equals(id) {
			return note, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("note")
}

// Watch subscribes to snapshot pushes. The current snapshot, if any, is
// delivered immediately. The caller must Close the returned subscription.
func (f *NoteFeed) Watch() *ports.Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++

	sub := ports.NewSubscription(func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	})
	f.watchers[id] = sub
	current := f.current
	f.mu.Unlock()

	if current != nil {
		sub.Publish(current)
	}
	return sub
}

func (f *NoteFeed) consume(sub *ports.Subscription) {
	for snapshot := range sub.Snapshots() {
		f.mu.Lock()
		if f.sub != sub {
			// Abandoned while this push was in flight; drop it.
			f.mu.Unlock()
			return
		}
		f.current = snapshot
		watchers := f.copyWatchersLocked()
		f.mu.Unlock()

		for _, w := range watchers {
			w.Publish(snapshot)
		}
	}

	if err := sub.Err(); err != nil {
		f.logger.Error("note stream terminated", zap.Error(err))
		f.mu.Lock()
		if f.sub == sub {
			f.streamErr = err
			f.sub = nil
		}
		f.mu.Unlock()
	}
}

func (f *NoteFeed) copyWatchersLocked() []*ports.Subscription {
	watchers := make([]*ports.Subscription, 0, len(f.watchers))
	for _, w := range f.watchers {
		watchers = append(watchers, w)
	}
	return watchers
}
