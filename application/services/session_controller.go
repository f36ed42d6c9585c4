package services

import (
	"context"
	"sync"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"

	"go.uber.org/zap"
)

// SessionState is the authentication state of the process
type SessionState int

const (
	// StateLoading is the initial state, before the first identity
	// observation arrives
	StateLoading SessionState = iota
	StateLoggedOut
	StateLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoggedOut:
		return "logged_out"
	case StateLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// SessionObserver is notified after every session transition. repo is nil
// unless the new state is StateLoggedIn.
type SessionObserver func(state SessionState, repo ports.NoteRepository)

// SessionController observes the auth identity stream and maps identity
// transitions to repository lifecycle: at most one repository is live at a
// time, a re-announced identity with the same id causes no transition, and
// an identity change abandons the old repository before creating the new
// one.
type SessionController struct {
	auth    ports.AuthService
	factory ports.NoteRepositoryFactory
	logger  *zap.Logger

	mu        sync.Mutex
	state     SessionState
	identity  *entities.Identity
	repo      ports.NoteRepository
	observers []SessionObserver
}

// NewSessionController creates a controller in the Loading state
func NewSessionController(
	auth ports.AuthService,
	factory ports.NoteRepositoryFactory,
	logger *zap.Logger,
) *SessionController {
	return &SessionController{
		auth:    auth,
		factory: factory,
		logger:  logger,
		state:   StateLoading,
	}
}

// OnTransition registers an observer. Observers are called outside the
// controller's lock, in registration order.
func (c *SessionController) OnTransition(observer SessionObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// State returns the current session state
func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the identity of the live session, or nil
func (c *SessionController) Identity() *entities.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Repository returns the live repository, or nil when no session is
// active
func (c *SessionController) Repository() ports.NoteRepository {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repo
}

// Run consumes the identity stream until ctx is cancelled. Cancellation is
// not an error: it stops further transitions and releases the identity
// subscription, nothing else.
func (c *SessionController) Run(ctx context.Context) error {
	identities, cancel := c.auth.IdentityStream()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case identity, ok := <-identities:
			if !ok {
				return nil
			}
			c.apply(ctx, identity)
		}
	}
}

func (c *SessionController) apply(ctx context.Context, identity *entities.Identity) {
	c.mu.Lock()

	if identity == nil {
		if c.state == StateLoggedOut {
			c.mu.Unlock()
			return
		}
		old := c.repo
		c.state = StateLoggedOut
		c.identity = nil
		c.repo = nil
		observers := append([]SessionObserver(nil), c.observers...)
		c.mu.Unlock()

		c.abandon(old)
		c.logger.Info("session ended")
		for _, observer := range observers {
			observer(StateLoggedOut, nil)
		}
		return
	}

	if c.state == StateLoggedIn && c.identity != nil && c.identity.ID == identity.ID {
		// Idempotent re-announcement: tearing down and recreating the
		// repository would drop in-flight listeners and duplicate
		// snapshot pushes.
		c.mu.Unlock()
		return
	}

	old := c.repo
	c.repo = nil
	c.mu.Unlock()

	// The old repository is abandoned before the new one exists; pushes it
	// still buffers are dropped, never delivered to new consumers.
	c.abandon(old)

	repo, err := c.factory(ctx, identity.ID)
	if err != nil {
		c.logger.Error("failed to create note repository",
			zap.String("userID", identity.ID),
			zap.Error(err),
		)
		c.mu.Lock()
		c.state = StateLoggedOut
		c.identity = nil
		observers := append([]SessionObserver(nil), c.observers...)
		c.mu.Unlock()
		for _, observer := range observers {
			observer(StateLoggedOut, nil)
		}
		return
	}

	c.mu.Lock()
	c.state = StateLoggedIn
	c.identity = identity
	c.repo = repo
	observers := append([]SessionObserver(nil), c.observers...)
	c.mu.Unlock()

	c.logger.Info("session started", zap.String("userID", identity.ID))
	for _, observer := range observers {
		observer(StateLoggedIn, repo)
	}
}

func (c *SessionController) abandon(repo ports.NoteRepository) {
	if repo == nil {
		return
	}
	if err := repo.Close(); err != nil {
		c.logger.Warn("failed to close abandoned repository",
			zap.String("scope", repo.Scope()),
			zap.Error(err),
		)
	}
}
