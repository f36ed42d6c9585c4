package di

import (
	"context"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	domaincfg "maxnotes/domain/config"
	"maxnotes/infrastructure/config"
	"maxnotes/pkg/auth"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	DomainConfig *domaincfg.DomainConfig
	Backend      *Backend
	AuthService  ports.AuthService
	RepoFactory  ports.NoteRepositoryFactory
	Attachments  ports.AttachmentStore
	Processor    ports.AttachmentProcessor
	Location     ports.LocationResolver
	Tokens       *auth.TokenService
	Session      *services.SessionController
	Feed         *services.NoteFeed
}

// Close releases held resources
func (c *Container) Close(ctx context.Context) {
	if c.Backend != nil {
		c.Backend.Close(ctx)
	}
}
