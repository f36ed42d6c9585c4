// Package location resolves the device position for geotagged notes
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"

	"go.uber.org/zap"
)

// positionResponse is the payload of the position endpoint
type positionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HTTPResolver implements ports.LocationResolver against a local position
// endpoint (a companion agent exposing the host's location). Requests are
// bounded by a per-call timeout; exceeding it is a timeout error, caller
// cancellation is a cancelled error.
type HTTPResolver struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPResolver creates a resolver for the given endpoint
func NewHTTPResolver(endpoint string, timeout time.Duration, logger *zap.Logger) *HTTPResolver {
	return &HTTPResolver{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Resolve fetches the current position. A 403 from the endpoint means the
// host denied location access and maps to a permission error.
func (r *HTTPResolver) Resolve(ctx context.Context) (valueobjects.Location, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, r.endpoint, nil)
	if err != nil {
		return valueobjects.Location{}, pkgerrors.NewTransportError("failed to build position request", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return valueobjects.Location{}, r.mapRequestError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return valueobjects.Location{}, pkgerrors.NewPermissionDeniedError("location access denied")
	case resp.StatusCode != http.StatusOK:
		return valueobjects.Location{}, pkgerrors.NewTransportError(
			fmt.Sprintf("position endpoint returned status %d", resp.StatusCode), nil)
	}

	var payload positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return valueobjects.Location{}, pkgerrors.NewDecodeError("invalid position payload", err)
	}

	loc, err := valueobjects.NewLocation(payload.Latitude, payload.Longitude)
	if err != nil {
		return valueobjects.Location{}, pkgerrors.NewDecodeError("position out of range", err)
	}
	return loc, nil
}

// mapRequestError distinguishes the caller abandoning the request from the
// per-call deadline expiring
func (r *HTTPResolver) mapRequestError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return pkgerrors.NewCancelledError("resolve location")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError("resolve location")
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.NewTimeoutError("resolve location")
	}
	r.logger.Warn("position request failed", zap.Error(err))
	return pkgerrors.NewTransportError("position request failed", err)
}
