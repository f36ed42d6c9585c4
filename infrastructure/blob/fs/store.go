// Package fs stores attachment blobs as files under a configured
// directory. The ref returned to callers is the bare key; the on-disk
// layout is an implementation detail.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "maxnotes/pkg/errors"

	"go.uber.org/zap"
)

// Store implements ports.AttachmentStore on the local filesystem
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the attachment directory if needed
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, pkgerrors.NewWriteError("create attachment directory", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the blob under the given key, replacing any previous blob
// with the same key. The write goes through a temp file and a rename so a
// crash never leaves a partial blob behind.
func (s *Store) Save(ctx context.Context, data []byte, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", pkgerrors.NewCancelledError("save attachment")
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return "", pkgerrors.NewWriteError("save attachment", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmpName)    //nolint:errcheck
		return "", pkgerrors.NewWriteError("save attachment", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", pkgerrors.NewWriteError("save attachment", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return "", pkgerrors.NewWriteError("save attachment", err)
	}

	s.logger.Debug("attachment saved",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return key, nil
}

// Load reads the blob for a ref. A missing blob is a not-found error, not
// a transport one.
func (s *Store) Load(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.NewCancelledError("load attachment")
	}
	if err := validateKey(ref); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.NewNotFoundError("attachment")
		}
		return nil, pkgerrors.NewWriteError("load attachment", err)
	}
	return data, nil
}

// Delete removes the blob for a ref. Deleting a missing blob succeeds.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return pkgerrors.NewCancelledError("delete attachment")
	}
	if err := validateKey(ref); err != nil {
		return err
	}

	if err := os.Remove(s.path(ref)); err != nil && !os.IsNotExist(err) {
		return pkgerrors.NewWriteError("delete attachment", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.jpg", key))
}

// validateKey rejects keys that would escape the attachment directory
func validateKey(key string) error {
	if key == "" {
		return pkgerrors.NewValidationError("attachment key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return pkgerrors.NewValidationError("attachment key contains invalid characters")
	}
	return nil
}
