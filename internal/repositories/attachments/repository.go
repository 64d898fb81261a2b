package attachments

import (
	"context"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
)

// Repository describes persistence for attachment records.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// CreateOrUpdate inserts the record or replaces the stored row with the
	// record's current state. Field updates under a transaction (upload
	// state, derived caches) go through this as well.
	CreateOrUpdate(ctx context.Context, rec *attachment.Record) error

	// MarkUploaded writes the server-assigned upload fields for one row,
	// leaving the local path and derived caches untouched. Returns
	// common.ErrNotFound when no row with the id exists.
	MarkUploaded(ctx context.Context, id string, f attachment.UploadFields) error

	// GetByID restores the record with the given id, including previously
	// cached derived values. Returns common.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*attachment.Record, error)

	// Delete removes the record row. The caller is responsible for keeping
	// the on-disk files consistent with the row (see store.DeleteRecord).
	Delete(ctx context.Context, id string) error

	// ListIDs returns the ids of all stored records.
	ListIDs(ctx context.Context) ([]string, error)
}
