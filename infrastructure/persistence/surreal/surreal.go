// Package surreal provides the SurrealDB-backed implementations of the
// note repository and the auth service. Snapshot pushes are driven by
// live queries; accounts live behind a record access method.
package surreal

import (
	"context"
	"fmt"

	"maxnotes/domain/core/entities"
	pkgerrors "maxnotes/pkg/errors"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// Connect opens a websocket connection and selects the namespace and
// database. Live queries require the websocket transport.
func Connect(ctx context.Context, url, namespace, database string) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, url)
	if err != nil {
		return nil, pkgerrors.NewTransportError("failed to connect to surrealdb", err)
	}
	if err := db.Use(ctx, namespace, database); err != nil {
		db.Close(ctx) //nolint:errcheck
		return nil, pkgerrors.NewTransportError("failed to select namespace", err)
	}
	return db, nil
}

// pushLatestIdentity delivers on a capacity-1 channel, replacing any
// undelivered value so a slow consumer only ever sees the newest identity
func pushLatestIdentity(ch chan *entities.Identity, identity *entities.Identity) {
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

// recordIDString renders a record id from its CBOR-decoded form. Ids
// arrive as models.RecordID when decoded into a typed struct and as raw
// values otherwise.
func recordIDString(id any) string {
	switch v := id.(type) {
	case models.RecordID:
		return fmt.Sprintf("%v", v.ID)
	case *models.RecordID:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v.ID)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
