package di

import (
	"context"
	"fmt"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	domaincfg "maxnotes/domain/config"
	"maxnotes/domain/core/valueobjects"
	"maxnotes/infrastructure/blob/fs"
	blobmemory "maxnotes/infrastructure/blob/memory"
	"maxnotes/infrastructure/config"
	"maxnotes/infrastructure/imaging"
	"maxnotes/infrastructure/location"
	"maxnotes/infrastructure/persistence/memory"
	"maxnotes/infrastructure/persistence/surreal"
	"maxnotes/pkg/auth"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"go.uber.org/zap"
)

// ProvideLogger creates the logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// ProvideDomainConfig supplies the business rule configuration
func ProvideDomainConfig() *domaincfg.DomainConfig {
	return domaincfg.DefaultDomainConfig()
}

// Backend bundles the storage-dependent pieces so the surreal/memory
// choice is made in exactly one place
type Backend struct {
	DB      *surrealdb.DB // nil for the memory backend
	Auth    ports.AuthService
	Factory ports.NoteRepositoryFactory
}

// Close releases the backend's connection if it holds one
func (b *Backend) Close(ctx context.Context) {
	if b.DB != nil {
		b.DB.Close(ctx) //nolint:errcheck
	}
}

// ProvideBackend selects the storage backend from configuration
func ProvideBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	switch cfg.StorageBackend {
	case "memory":
		authService := memory.NewAuthService(logger)
		factory := func(ctx context.Context, scope string) (ports.NoteRepository, error) {
			return memory.NewNoteRepository(scope, logger), nil
		}
		return &Backend{Auth: authService, Factory: factory}, nil

	case "surreal":
		db, err := surreal.Connect(ctx, cfg.SurrealURL, cfg.SurrealNamespace, cfg.SurrealDatabase)
		if err != nil {
			return nil, err
		}
		authService := surreal.NewAuthService(db, cfg.SurrealNamespace, cfg.SurrealDatabase, cfg.SurrealAccess, logger)
		factory := func(ctx context.Context, scope string) (ports.NoteRepository, error) {
			return surreal.NewNoteRepository(db, scope, logger), nil
		}
		return &Backend{DB: db, Auth: authService, Factory: factory}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// ProvideAuthService extracts the auth service from the backend
func ProvideAuthService(backend *Backend) ports.AuthService {
	return backend.Auth
}

// ProvideRepositoryFactory extracts the repository factory from the backend
func ProvideRepositoryFactory(backend *Backend) ports.NoteRepositoryFactory {
	return backend.Factory
}

// ProvideAttachmentStore creates the blob store. An empty attachment
// directory selects the in-memory store.
func ProvideAttachmentStore(cfg *config.Config, logger *zap.Logger) (ports.AttachmentStore, error) {
	if cfg.AttachmentDir == "" {
		return blobmemory.NewStore(), nil
	}
	return fs.NewStore(cfg.AttachmentDir, logger)
}

// ProvideAttachmentProcessor creates the image processor
func ProvideAttachmentProcessor() ports.AttachmentProcessor {
	return imaging.NewProcessor()
}

// ProvideLocationResolver creates the position resolver. Without an
// endpoint every note is tagged with the configured default position.
func ProvideLocationResolver(cfg *config.Config, logger *zap.Logger) (ports.LocationResolver, error) {
	if cfg.LocationEndpoint != "" {
		return location.NewHTTPResolver(cfg.LocationEndpoint, cfg.LocationTimeout, logger), nil
	}
	loc, err := valueobjects.NewLocation(cfg.DefaultLatitude, cfg.DefaultLongitude)
	if err != nil {
		return nil, err
	}
	return location.NewStaticResolver(loc), nil
}

// ProvideTokenService creates the session token service. Development
// falls back to a fixed secret so the daemon runs without configuration.
func ProvideTokenService(cfg *config.Config) (*auth.TokenService, error) {
	secret := cfg.JWTSecret
	if secret == "" && !cfg.IsProduction() {
		secret = "maxnotes-dev-secret"
	}
	return auth.NewTokenService(secret, cfg.JWTIssuer, cfg.JWTExpiry)
}

// ProvideSessionController creates the session controller
func ProvideSessionController(
	authService ports.AuthService,
	factory ports.NoteRepositoryFactory,
	logger *zap.Logger,
) *services.SessionController {
	return services.NewSessionController(authService, factory, logger)
}

// ProvideNoteFeed creates the note feed
func ProvideNoteFeed(logger *zap.Logger) *services.NoteFeed {
	return services.NewNoteFeed(logger)
}
