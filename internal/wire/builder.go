package wire

import (
	"fmt"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
)

// Builder turns uploaded records into pointer messages. It is stateless
// and performs no I/O: width and height come only from the record's caches.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// Build returns the pointer for an uploaded record, or nil with an error
// when the record is not uploaded or the server-assigned field set is
// incomplete. Dimensions are included only when already cached; Build never
// triggers validation or decoding.
func (b *Builder) Build(rec *attachment.Record) (*AttachmentPointer, error) {
	if !rec.IsUploaded() {
		return nil, fmt.Errorf("build pointer %s: %w", rec.ID, common.ErrNotUploaded)
	}

	fields := attachment.UploadFields{
		EncryptionKey:   rec.EncryptionKey(),
		Digest:          rec.Digest(),
		ServerID:        rec.ServerID(),
		CdnKey:          rec.CdnKey(),
		CdnNumber:       rec.CdnNumber(),
		UploadTimestamp: rec.UploadTimestamp(),
	}
	if err := fields.Validate(); err != nil {
		return nil, fmt.Errorf("build pointer %s: %w", rec.ID, err)
	}

	p := &AttachmentPointer{
		CdnID:           fields.ServerID,
		CdnKey:          fields.CdnKey,
		CdnNumber:       fields.CdnNumber,
		ContentType:     rec.ContentType,
		Key:             fields.EncryptionKey,
		Size:            rec.ByteCount,
		Digest:          fields.Digest,
		FileName:        rec.SourceFilename,
		Caption:         rec.Caption,
		BlurHash:        rec.BlurHash,
		UploadTimestamp: fields.UploadTimestamp,
	}

	if rec.AttachmentType == attachment.TypeVoiceMessage {
		p.Flags |= FlagVoiceMessage
	}

	if w, h, ok := rec.ImageSize(); ok {
		p.Width = w
		p.Height = h
	}

	return p, nil
}
