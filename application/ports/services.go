package ports

import (
	"context"

	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
)

// AttachmentStore is a content-addressed blob store. The store exclusively
// owns the bytes; notes only hold the returned ref.
type AttachmentStore interface {
	// Save writes the blob under key, overwriting any existing blob at
	// that key, and returns a locatable ref.
	Save(ctx context.Context, data []byte, key string) (string, error)

	// Load returns the blob bytes for ref. Fails with NotFound if absent.
	Load(ctx context.Context, ref string) ([]byte, error)

	// Delete removes the blob for ref. Deleting a ref that has no blob
	// succeeds; Delete is idempotent.
	Delete(ctx context.Context, ref string) error
}

// AttachmentProcessor normalizes raw attachment bytes. Pure function: no
// I/O, no shared state, safe to invoke concurrently.
type AttachmentProcessor interface {
	// Compress decodes the input image, downsizes it to a maximum bounding
	// dimension and re-encodes it at a fixed quality factor. Fails with
	// DecodeError if the input is not a decodable image.
	Compress(data []byte) ([]byte, error)
}

// LocationResolver performs a one-shot lookup of the current geographic
// position. Each call is a fresh lookup; results are never cached.
// Failure modes are PermissionDenied, Timeout and Cancelled.
type LocationResolver interface {
	Resolve(ctx context.Context) (valueobjects.Location, error)
}

// AuthService is the external authentication collaborator. Identity
// transitions drive session scoping.
type AuthService interface {
	// CurrentIdentity returns the identity observed last, or nil when no
	// session is active.
	CurrentIdentity() *entities.Identity

	// IdentityStream subscribes to identity transitions with latest-value
	// buffering of one. The returned cancel func releases the
	// subscription; the channel is closed after cancel.
	IdentityStream() (<-chan *entities.Identity, func())

	Login(ctx context.Context, email, password string) (*entities.Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (*entities.Identity, error)
	Logout(ctx context.Context) error
}
