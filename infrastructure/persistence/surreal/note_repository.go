package surreal

import (
	"context"
	"fmt"
	"sync"

	"maxnotes/application/ports"
	"maxnotes/domain/core/entities"
	"maxnotes/domain/core/valueobjects"
	pkgerrors "maxnotes/pkg/errors"

	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"go.uber.org/zap"
)

const noteTable = "note"

// noteRecord is the SurrealDB document structure for a note. Field names
// are the logical schema existing stored data uses and must be preserved.
type noteRecord struct {
	ID            *models.RecordID       `json:"id,omitempty"`
	Owner         string                 `json:"owner"`
	Title         string                 `json:"title"`
	Body          string                 `json:"body"`
	Location      *locationRecord        `json:"location,omitempty"`
	AttachmentRef string                 `json:"attachment_ref,omitempty"`
	CreatedAt     models.CustomDateTime  `json:"created_at"`
	UpdatedAt     *models.CustomDateTime `json:"updated_at,omitempty"`
}

type locationRecord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NoteRepository implements ports.NoteRepository against SurrealDB. The
// snapshot stream is driven by a live query per subscription: every change
// notification triggers a re-query of the full collection for the scope,
// ordered by updated_at descending.
type NoteRepository struct {
	db     *surrealdb.DB
	scope  string
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]*ports.Subscription
	nextID int
	closed bool

	// lifetime of all stream goroutines; cancelled on Close
	streamCtx    context.Context
	streamCancel context.CancelFunc
}

// NewNoteRepository creates a repository bound to one user's scope
func NewNoteRepository(db *surrealdb.DB, scope string, logger *zap.Logger) *NoteRepository {
	ctx, cancel := context.WithCancel(context.Background())
	return &NoteRepository{
		db:           db,
		scope:        scope,
		logger:       logger,
		subs:         make(map[int]*ports.Subscription),
		streamCtx:    ctx,
		streamCancel: cancel,
	}
}

// Scope returns the user id this repository is bound to
func (r *NoteRepository) Scope() string {
	return r.scope
}

// Stream starts a live query for the scope and returns a subscription fed
// by it. Closing the subscription kills the live query; no listener
// outlives its consumer.
func (r *NoteRepository) Stream(ctx context.Context) (*ports.Subscription, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, pkgerrors.NewTransportError("repository is closed", nil)
	}
	id := r.nextID
	r.nextID++
	r.mu.Unlock()

	results, err := surrealdb.Query[models.UUID](ctx, r.db,
		"LIVE SELECT * FROM type::table($tb) WHERE owner = $owner",
		map[string]any{"tb": noteTable, "owner": r.scope},
	)
	if err != nil {
		return nil, pkgerrors.NewTransportError("failed to start live query", err)
	}
	liveID := (*results)[0].Result.String()

	notifications, err := r.db.LiveNotifications(liveID)
	if err != nil {
		r.killLiveQuery(liveID)
		return nil, pkgerrors.NewTransportError("failed to open live notification channel", err)
	}

	var releaseOnce sync.Once
	released := false
	sub := ports.NewSubscription(func() {
		releaseOnce.Do(func() {
			r.mu.Lock()
			released = true
			delete(r.subs, id)
			r.mu.Unlock()
			r.killLiveQuery(liveID)
		})
	})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		sub.Close() //nolint:errcheck
		return nil, pkgerrors.NewTransportError("repository is closed", nil)
	}
	r.subs[id] = sub
	r.mu.Unlock()

	go r.consume(sub, notifications, &released)
	return sub, nil
}

func (r *NoteRepository) consume(
	sub *ports.Subscription,
	notifications chan connection.Notification,
	released *bool,
) {
	// Initial snapshot, pushed as soon as available, even if empty.
	snapshot, err := r.fetchSnapshot(r.streamCtx)
	if err != nil {
		sub.Fail(err)
		return
	}
	sub.Publish(snapshot)

	for range notifications {
		// The notification carries a single changed record; the contract
		// is snapshot-on-change, so re-query the full collection.
		snapshot, err := r.fetchSnapshot(r.streamCtx)
		if err != nil {
			sub.Fail(err)
			return
		}
		sub.Publish(snapshot)
	}

	// Notification channel closed: graceful if the consumer released the
	// subscription (Kill closes the channel), fatal otherwise.
	r.mu.Lock()
	wasReleased := *released || r.closed
	r.mu.Unlock()
	if !wasReleased {
		sub.Fail(pkgerrors.NewTransportError("live query terminated unexpectedly", nil))
	}
}

// fetchSnapshot queries the full collection for the scope. A document that
// cannot be mapped to a note is logged and skipped; it never fails the
// snapshot.
func (r *NoteRepository) fetchSnapshot(ctx context.Context) (ports.Snapshot, error) {
	results, err := surrealdb.Query[[]noteRecord](ctx, r.db,
		"SELECT * FROM type::table($tb) WHERE owner = $owner ORDER BY updated_at DESC",
		map[string]any{"tb": noteTable, "owner": r.scope},
	)
	if err != nil {
		return nil, pkgerrors.NewTransportError("failed to query notes", err)
	}

	records := (*results)[0].Result
	snapshot := make(ports.Snapshot, 0, len(records))
	for i := range records {
		note, err := records[i].toEntity()
		if err != nil {
			r.logger.Error("skipping undecodable note document",
				zap.String("scope", r.scope),
				zap.Error(err),
			)
			continue
		}
		snapshot = append(snapshot, note)
	}
	return snapshot, nil
}

// Add persists a new note. The caller guarantees a fresh id; no merge with
// an existing document happens.
func (r *NoteRepository) Add(ctx context.Context, note *entities.Note) error {
	record := recordFromEntity(note, r.scope)
	if _, err := surrealdb.Create[noteRecord](ctx, r.db,
		models.NewRecordID(noteTable, note.ID().String()), record,
	); err != nil {
		return pkgerrors.NewWriteError("add note", err)
	}
	return nil
}

// Update upserts the note by id
func (r *NoteRepository) Update(ctx context.Context, note *entities.Note) error {
	record := recordFromEntity(note, r.scope)
	if _, err := surrealdb.Upsert[noteRecord](ctx, r.db,
		models.NewRecordID(noteTable, note.ID().String()), record,
	); err != nil {
		return pkgerrors.NewWriteError("update note", err)
	}
	return nil
}

// Delete removes the note by id. SurrealDB treats deleting a missing
// record as a no-op, which matches the idempotence contract.
func (r *NoteRepository) Delete(ctx context.Context, id valueobjects.NoteID) error {
	if _, err := surrealdb.Delete[noteRecord](ctx, r.db,
		models.NewRecordID(noteTable, id.String()),
	); err != nil {
		return pkgerrors.NewWriteError("delete note", err)
	}
	return nil
}

// Close abandons the repository: all live queries are killed and all
// subscriptions released. Buffered pushes are dropped.
func (r *NoteRepository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	subs := make([]*ports.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[int]*ports.Subscription)
	r.mu.Unlock()

	r.streamCancel()
	for _, sub := range subs {
		sub.Close() //nolint:errcheck
	}
	return nil
}

func (r *NoteRepository) killLiveQuery(liveID string) {
	if err := surrealdb.Kill(context.Background(), r.db, liveID); err != nil {
		r.logger.Warn("failed to kill live query",
			zap.String("liveID", liveID),
			zap.Error(err),
		)
		// Kill normally closes the notification channel server-side. When
		// it fails the consume goroutine would block on the channel
		// forever, so close it locally.
		if err := r.db.CloseLiveNotifications(liveID); err != nil {
			r.logger.Warn("failed to close live notification channel",
				zap.String("liveID", liveID),
				zap.Error(err),
			)
		}
	}
}

// recordFromEntity maps a domain note to its document form
func recordFromEntity(note *entities.Note, owner string) noteRecord {
	record := noteRecord{
		Owner:         owner,
		Title:         note.Title(),
		Body:          note.Body(),
		AttachmentRef: note.AttachmentRef(),
		CreatedAt:     models.CustomDateTime{Time: note.CreatedAt()},
		UpdatedAt:     &models.CustomDateTime{Time: note.UpdatedAt()},
	}
	if loc := note.Location(); loc != nil {
		record.Location = &locationRecord{
			Latitude:  loc.Latitude(),
			Longitude: loc.Longitude(),
		}
	}
	return record
}

// toEntity maps a document back to the domain, validating invariants
func (rec *noteRecord) toEntity() (*entities.Note, error) {
	if rec.ID == nil {
		return nil, fmt.Errorf("note document has no id")
	}
	idStr, ok := rec.ID.ID.(string)
	if !ok {
		idStr = fmt.Sprintf("%v", rec.ID.ID)
	}
	id, err := valueobjects.NewNoteIDFromString(idStr)
	if err != nil {
		return nil, err
	}

	var location *valueobjects.Location
	if rec.Location != nil {
		loc, err := valueobjects.NewLocation(rec.Location.Latitude, rec.Location.Longitude)
		if err != nil {
			return nil, err
		}
		location = &loc
	}

	updatedAt := rec.CreatedAt.Time
	if rec.UpdatedAt != nil {
		updatedAt = rec.UpdatedAt.Time
	}
	return entities.ReconstructNote(
		id,
		rec.Title,
		rec.Body,
		location,
		rec.AttachmentRef,
		rec.CreatedAt.Time,
		updatedAt,
	)
}
