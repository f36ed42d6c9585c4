package surreal

import (
	"context"
	"strings"
	"sync"

	"maxnotes/domain/core/entities"
	pkgerrors "maxnotes/pkg/errors"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"go.uber.org/zap"
)

// signupPayload matches the vars of the DEFINE ACCESS ... SIGNUP query.
// NS, DB and AC are required by the record access protocol.
type signupPayload struct {
	Namespace   string `json:"NS"`
	Database    string `json:"DB"`
	Access      string `json:"AC"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"name"`
}

type signinPayload struct {
	Namespace string `json:"NS"`
	Database  string `json:"DB"`
	Access    string `json:"AC"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// authUser is the account document selected via $auth after signin
type authUser struct {
	ID    any    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthService implements ports.AuthService on SurrealDB record access.
// The connection is shared with the note repository; signing in scopes it
// to the authenticated account.
type AuthService struct {
	db        *surrealdb.DB
	namespace string
	database  string
	access    string
	logger    *zap.Logger

	mu       sync.Mutex
	identity *entities.Identity
	watchers map[int]chan *entities.Identity
	nextID   int
}

// NewAuthService creates an auth service bound to one namespace, database
// and access method
func NewAuthService(db *surrealdb.DB, namespace, database, access string, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:        db,
		namespace: namespace,
		database:  database,
		access:    access,
		logger:    logger,
		watchers:  make(map[int]chan *entities.Identity),
	}
}

// CurrentIdentity returns the authenticated identity, or nil when logged out
func (s *AuthService) CurrentIdentity() *entities.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// IdentityStream returns a latest-wins channel of identity changes plus a
// cancel function. The current identity is delivered immediately.
func (s *AuthService) IdentityStream() (<-chan *entities.Identity, func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	ch := make(chan *entities.Identity, 1)
	ch <- s.identity
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if existing, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(existing)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Login authenticates against the record access method and loads the
// account document. Bad credentials map to an unauthorized error, never a
// transport one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entities.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, pkgerrors.NewValidationError("email and password are required")
	}

	if _, err := s.db.SignIn(ctx, signinPayload{
		Namespace: s.namespace,
		Database:  s.database,
		Access:    s.access,
		Email:     email,
		Password:  password,
	}); err != nil {
		s.logger.Info("signin rejected", zap.String("email", email), zap.Error(err))
		return nil, pkgerrors.NewUnauthorizedError("invalid email or password")
	}

	identity, err := s.loadAuthenticatedIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s.broadcast(identity)
	return identity, nil
}

// SignUp creates an account through the record access method and leaves
// the session authenticated as it.
func (s *AuthService) SignUp(ctx context.Context, email, password, displayName string) (*entities.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, pkgerrors.NewValidationError("email and password are required")
	}

	if _, err := s.db.SignUp(ctx, signupPayload{
		Namespace:   s.namespace,
		Database:    s.database,
		Access:      s.access,
		Email:       email,
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	}); err != nil {
		return nil, pkgerrors.NewValidationError("account creation failed").WithCause(err)
	}

	identity, err := s.loadAuthenticatedIdentity(ctx)
	if err != nil {
		return nil, err
	}
	s.broadcast(identity)
	return identity, nil
}

// Logout invalidates the session and broadcasts a nil identity
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.db.Invalidate(ctx); err != nil {
		return pkgerrors.NewTransportError("failed to invalidate session", err)
	}
	s.broadcast(nil)
	return nil
}

func (s *AuthService) loadAuthenticatedIdentity(ctx context.Context) (*entities.Identity, error) {
	results, err := surrealdb.Query[[]authUser](ctx, s.db,
		"SELECT * FROM $auth", nil,
	)
	if err != nil {
		return nil, pkgerrors.NewTransportError("failed to load account", err)
	}
	users := (*results)[0].Result
	if len(users) == 0 {
		return nil, pkgerrors.NewInternalError("authenticated session has no account document")
	}
	return &entities.Identity{
		ID:          recordIDString(users[0].ID),
		DisplayName: users[0].Name,
		Email:       users[0].Email,
	}, nil
}

func (s *AuthService) broadcast(identity *entities.Identity) {
	s.mu.Lock()
	s.identity = identity
	for _, ch := range s.watchers {
		pushLatestIdentity(ch, identity)
	}
	s.mu.Unlock()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
