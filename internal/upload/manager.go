// Package upload tracks server-side upload state for attachment records
// and prepares derived attachments (thumbnail clones) for upload.
package upload

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/cryptox"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/repositories/attachments"
	"github.com/dmitrijs2005/mediavault/internal/store"
	"github.com/dmitrijs2005/mediavault/internal/thumbnail"
)

// Manager applies upload results to records and persists them atomically.
type Manager struct {
	db     *sql.DB
	store  *store.Store
	thumbs *thumbnail.Service
	log    logging.Logger
}

func NewManager(db *sql.DB, st *store.Store, thumbs *thumbnail.Service, log logging.Logger) *Manager {
	return &Manager{db: db, store: st, thumbs: thumbs, log: log}
}

// PreparedUpload is the material a transport layer needs to encrypt and
// send an attachment: the record's key split into its cipher and mac
// subkeys, and the plaintext digest the server verifies after upload.
type PreparedUpload struct {
	Key       []byte
	CipherKey []byte
	MacKey    []byte
	Digest    []byte
	Size      uint32
}

// PrepareUpload readies a record for sending. Key material is generated and
// persisted when the record has none; the cipher/mac subkeys are derived
// from it, and the digest is computed over the backing file. The record's
// upload state is not changed; that happens in MarkUploaded once the
// transfer succeeds.
func (m *Manager) PrepareUpload(ctx context.Context, rec *attachment.Record) (*PreparedUpload, error) {
	key := rec.EncryptionKey()
	if len(key) == 0 {
		fresh, err := cryptox.NewAttachmentKey()
		if err != nil {
			return nil, fmt.Errorf("prepare upload %s: %w", rec.ID, err)
		}
		rec.SetEncryptionKey(fresh)
		if err := m.store.Persist(ctx, rec); err != nil {
			return nil, fmt.Errorf("prepare upload %s: %w", rec.ID, err)
		}
		key = fresh
	}

	cipherKey, macKey, err := cryptox.Subkeys(key)
	if err != nil {
		return nil, fmt.Errorf("prepare upload %s: %w", rec.ID, err)
	}

	r, err := m.store.OpenOriginal(rec)
	if err != nil {
		return nil, fmt.Errorf("prepare upload %s: %w", rec.ID, err)
	}
	defer r.Close()

	digest, err := cryptox.Digest(r)
	if err != nil {
		return nil, fmt.Errorf("prepare upload %s: %w", rec.ID, err)
	}

	return &PreparedUpload{
		Key:       key,
		CipherKey: cipherKey,
		MacKey:    macKey,
		Digest:    digest,
		Size:      rec.ByteCount,
	}, nil
}

// MarkUploaded records a completed upload: all server-assigned fields are
// applied to the record together and persisted in a single transaction.
// Calling it again for a re-upload overwrites the server identifiers; the
// local path and derived caches are untouched. An incomplete field set
// changes nothing.
func (m *Manager) MarkUploaded(ctx context.Context, rec *attachment.Record, fields attachment.UploadFields) error {
	if err := fields.Validate(); err != nil {
		return fmt.Errorf("mark uploaded %s: %w", rec.ID, err)
	}

	// Persist first. The in-memory record changes only once the row is
	// durable, so a failed transaction cannot leave a record that answers
	// uploaded while the database disagrees.
	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return attachments.NewSQLiteRepository(tx).MarkUploaded(ctx, rec.ID, fields)
	})
	if err != nil {
		return fmt.Errorf("mark uploaded %s: %w", rec.ID, err)
	}

	if err := rec.SetUploaded(fields); err != nil {
		return fmt.Errorf("mark uploaded %s: %w", rec.ID, err)
	}

	m.log.Info(ctx, "attachment marked uploaded",
		"attachment_id", rec.ID, "server_id", fields.ServerID, "cdn_number", fields.CdnNumber)
	return nil
}

// CloneAsThumbnail creates a new record whose backing file is the source
// record's small thumbnail rendition, re-encoded as JPEG. The clone gets
// its own identity and fresh key material; it shares no upload state with
// the source.
func (m *Manager) CloneAsThumbnail(ctx context.Context, rec *attachment.Record) (*attachment.Record, error) {
	img, err := m.thumbs.SmallSync(rec)
	if err != nil {
		return nil, fmt.Errorf("clone as thumbnail %s: %w", rec.ID, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("clone as thumbnail %s: encode: %w", rec.ID, err)
	}

	clone := attachment.New(attachment.MIMEJPEG, uint32(buf.Len()), rec.SourceFilename, rec.Caption, rec.AlbumGroupID)

	key, err := cryptox.NewAttachmentKey()
	if err != nil {
		return nil, fmt.Errorf("clone as thumbnail %s: %w", rec.ID, err)
	}
	clone.SetEncryptionKey(key)

	if err := m.store.WriteData(ctx, clone, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("clone as thumbnail %s: %w", rec.ID, err)
	}

	m.log.Debug(ctx, "thumbnail clone created",
		"source_id", rec.ID, "clone_id", clone.ID, "byte_count", clone.ByteCount)
	return clone, nil
}
