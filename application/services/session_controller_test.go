package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAuth feeds identities into the controller by hand
type fakeAuth struct {
	ch chan *entities.Identity
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{ch: make(chan *entities.Identity, 16)}
}

func (f *fakeAuth) CurrentIdentity() *entities.Identity { return nil }

func (f *fakeAuth) IdentityStream() (<-chan *entities.Identity, func()) {
	return f.ch, func() {}
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*entities.Identity, error) {
	return nil, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, displayName string) (*entities.Identity, error) {
	return nil, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error { return nil }

func (f *fakeAuth) announce(identity *entities.Identity) {
	f.ch <- identity
}

// fakeRepo records lifecycle events
type fakeRepo struct {
	scope string
	log   *eventLog

	mu     sync.Mutex
	closed bool
}

func (r *fakeRepo) Scope() string { return r.scope }

func (r *fakeRepo) Stream(ctx context.Context) (*ports.Subscription, error) {
	return ports.NewSubscription(nil), nil
}

func (r *fakeRepo) Add(ctx context.Context, note *entities.Note) error    { return nil }
func (r *fakeRepo) Update(ctx context.Context, note *entities.Note) error { return nil }
func (r *fakeRepo) Delete(ctx context.Context, id valueobjects.NoteID) error {
	return nil
}

func (r *fakeRepo) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.log.append("close:" + r.scope)
	return nil
}

func (r *fakeRepo) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// eventLog captures the interleaving of factory calls and closes
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) append(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type controllerHarness struct {
	auth       *fakeAuth
	controller *SessionController
	log        *eventLog

	mu    sync.Mutex
	repos []*fakeRepo

	factoryCalls int
	factoryErr   error

	cancel context.CancelFunc
	done   chan struct{}
}

func newControllerHarness(t *testing.T) *controllerHarness {
	t.Helper()
	h := &controllerHarness{
		auth: newFakeAuth(),
		log:  &eventLog{},
		done: make(chan struct{}),
	}

	factory := func(ctx context.Context, scope string) (ports.NoteRepository, error) {
		h.mu.Lock()
		h.factoryCalls++
		err := h.factoryErr
		h.mu.Unlock()
		if err != nil {
			return nil, err
		}
		h.log.append("create:" + scope)
		repo := &fakeRepo{scope: scope, log: h.log}
		h.mu.Lock()
		h.repos = append(h.repos, repo)
		h.mu.Unlock()
		return repo, nil
	}

	h.controller = NewSessionController(h.auth, factory, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		h.controller.Run(ctx) //nolint:errcheck
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *controllerHarness) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.factoryCalls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func identity(id string) *entities.Identity {
	return &entities.Identity{ID: id, Email: id + "@example.com"}
}

func TestSessionController_LoginCreatesRepository(t *testing.T) {
	h := newControllerHarness(t)

	h.auth.announce(identity("alice"))

	waitFor(t, func() bool { return h.controller.State() == StateLoggedIn })
	require.NotNil(t, h.controller.Repository())
	assert.Equal(t, "alice", h.controller.Repository().Scope())
	assert.Equal(t, "alice", h.controller.Identity().ID)
	assert.Equal(t, 1, h.calls())
}

func TestSessionController_SameIdentityIsNoTransition(t *testing.T) {
	h := newControllerHarness(t)

	h.auth.announce(identity("alice"))
	waitFor(t, func() bool { return h.controller.State() == StateLoggedIn })
	repo := h.controller.Repository()

	// Token refreshes re-announce the same account.
	h.auth.announce(identity("alice"))
	h.auth.announce(identity("alice"))

	waitFor(t, func() bool { return len(h.auth.ch) == 0 })
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, h.calls())
	assert.Same(t, repo, h.controller.Repository())
}

func TestSessionController_IdentitySwitchAbandonsBeforeCreating(t *testing.T) {
	h := newControllerHarness(t)

	h.auth.announce(identity("alice"))
	waitFor(t, func() bool { return h.controller.State() == StateLoggedIn })

	h.auth.announce(identity("bob"))
	waitFor(t, func() bool { return h.controller.Identity() != nil && h.controller.Identity().ID == "bob" })

	events := h.log.snapshot()
	assert.Equal(t, []string{"create:alice", "close:alice", "create:bob"}, events)
}

func TestSessionController_LogoutClosesRepository(t *testing.T) {
	h := newControllerHarness(t)

	h.auth.announce(identity("alice"))
	waitFor(t, func() bool { return h.controller.State() == StateLoggedIn })

	h.mu.Lock()
	repo := h.repos[0]
	h.mu.Unlock()

	h.auth.announce(nil)
	waitFor(t, func() bool { return h.controller.State() == StateLoggedOut })

	assert.True(t, repo.isClosed())
	assert.Nil(t, h.controller.Repository())
	assert.Nil(t, h.controller.Identity())
}

func TestSessionController_RepeatedLogoutIsIdempotent(t *testing.T) {
	h := newControllerHarness(t)

	observed := 0
	var observedMu sync.Mutex
	h.controller.OnTransition(func(state SessionState, repo ports.NoteRepository) {
		if state == StateLoggedOut {
			observedMu.Lock()
			observed++
			observedMu.Unlock()
		}
	})

	h.auth.announce(nil)
	waitFor(t, func() bool { return h.controller.State() == StateLoggedOut })

	h.auth.announce(nil)
	h.auth.announce(nil)
	waitFor(t, func() bool { return len(h.auth.ch) == 0 })
	time.Sleep(20 * time.Millisecond)

	observedMu.Lock()
	defer observedMu.Unlock()
	assert.Equal(t, 1, observed)
}

func TestSessionController_FactoryFailureEndsLoggedOut(t *testing.T) {
	h := newControllerHarness(t)
	h.mu.Lock()
	h.factoryErr = errors.New("backend unavailable")
	h.mu.Unlock()

	h.auth.announce(identity("alice"))
	waitFor(t, func() bool { return h.controller.State() == StateLoggedOut })

	assert.Nil(t, h.controller.Repository())
	assert.Nil(t, h.controller.Identity())
}

func TestSessionController_ObserversSeeTransitions(t *testing.T) {
	h := newControllerHarness(t)

	var transitions []SessionState
	var mu sync.Mutex
	h.controller.OnTransition(func(state SessionState, repo ports.NoteRepository) {
		mu.Lock()
		transitions = append(transitions, state)
		mu.Unlock()
	})

	h.auth.announce(identity("alice"))
	waitFor(t, func() bool { return h.controller.State() == StateLoggedIn })
	h.auth.announce(nil)
	waitFor(t, func() bool { return h.controller.State() == StateLoggedOut })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []SessionState{StateLoggedIn, StateLoggedOut}, transitions)
}
