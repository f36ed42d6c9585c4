package memory

import (
	"context"
	"strings"
	"sync"

	"maxnotes/domain/core/entities"
	pkgerrors "maxnotes/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type account struct {
	identity entities.Identity
	password string
}

// AuthService is the in-memory implementation of ports.AuthService.
// Accounts are created through SignUp and live only for the process
// lifetime.
type AuthService struct {
	logger *zap.Logger

	mu       sync.Mutex
	accounts map[string]account // keyed by email
	current  *entities.Identity
	watchers map[int]chan *entities.Identity
	nextID   int
}

// NewAuthService creates an auth service with no accounts and no session
func NewAuthService(logger *zap.Logger) *AuthService {
	return &AuthService{
		logger:   logger,
		accounts: make(map[string]account),
		watchers: make(map[int]chan *entities.Identity),
	}
}

// CurrentIdentity returns the identity observed last, or nil
func (s *AuthService) CurrentIdentity() *entities.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// IdentityStream subscribes to identity transitions. The current value is
// delivered immediately; later values displace undelivered ones.
func (s *AuthService) IdentityStream() (<-chan *entities.Identity, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan *entities.Identity, 1)
	s.watchers[id] = ch
	pushLatest(ch, s.current)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if watcher, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(watcher)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*entities.Identity, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[email]
	if !ok || acct.password != password {
		return nil, pkgerrors.NewUnauthorizedError("invalid email or password")
	}

	identity := acct.identity
	s.current = &identity
	s.broadcastLocked()
	return &identity, nil
}

// SignUp creates an account and starts a session for it
func (s *AuthService) SignUp(ctx context.Context, email, password, displayName string) (*entities.Identity, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.NewValidationError("email cannot be empty")
	}
	if password == "" {
		return nil, pkgerrors.NewValidationError("password cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[email]; exists {
		return nil, pkgerrors.NewValidationError("email already registered")
	}

	identity := entities.Identity{
		ID:          uuid.New().String(),
		DisplayName: displayName,
		Email:       email,
	}
	s.accounts[email] = account{identity: identity, password: password}
	s.current = &identity
	s.broadcastLocked()
	return &identity, nil
}

// Logout ends the current session
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	s.current = nil
	s.broadcastLocked()
	return nil
}

func (s *AuthService) broadcastLocked() {
	for _, ch := range s.watchers {
		pushLatest(ch, s.current)
	}
}

// pushLatest delivers with latest-value buffering of one
func pushLatest(ch chan *entities.Identity, identity *entities.Identity) {
	for {
		select {
		case ch <- identity:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
