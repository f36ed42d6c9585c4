package location

import (
	"context"

	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"
)

// StaticResolver returns a fixed position, or a fixed failure. Used when
// no position endpoint is configured, and in tests.
type StaticResolver struct {
	location valueobjects.Location
	err      error
}

// NewStaticResolver always resolves to the given position
func NewStaticResolver(location valueobjects.Location) *StaticResolver {
	return &StaticResolver{location: location}
}

// NewFailingResolver always fails with the given error
func NewFailingResolver(err error) *StaticResolver {
	return &StaticResolver{err: err}
}

// NewDeniedResolver always reports location access as denied
func NewDeniedResolver() *StaticResolver {
	return &StaticResolver{err: pkgerrors.NewPermissionDeniedError("location access denied")}
}

func (r *StaticResolver) Resolve(ctx context.Context) (valueobjects.Location, error) {
	if err := ctx.Err(); err != nil {
		return valueobjects.Location{}, pkgerrors.NewCancelledError("resolve location")
	}
	if r.err != nil {
		return valueobjects.Location{}, r.err
	}
	return r.location, nil
}
