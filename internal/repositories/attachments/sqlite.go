// Package attachments provides the SQLite-backed persistence layer for
// attachment records. Each record is one row; tri-state classification
// caches map to nullable integer columns (NULL means "not yet computed").
package attachments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func flagToNull(f attachment.Flag) sql.NullInt64 {
	if !f.Known() {
		return sql.NullInt64{}
	}
	v := int64(0)
	if f.Bool() {
		v = 1
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullToFlag(n sql.NullInt64) attachment.Flag {
	if !n.Valid {
		return attachment.FlagUnknown
	}
	return attachment.FlagOf(n.Int64 != 0)
}

func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, rec *attachment.Record) error {
	s := rec.Snapshot()

	var width, height sql.NullInt64
	if s.ImageWidth != nil {
		width = sql.NullInt64{Int64: int64(*s.ImageWidth), Valid: true}
	}
	if s.ImageHeight != nil {
		height = sql.NullInt64{Int64: int64(*s.ImageHeight), Valid: true}
	}
	var duration sql.NullFloat64
	if s.AudioDurationSeconds != nil {
		duration = sql.NullFloat64{Float64: *s.AudioDurationSeconds, Valid: true}
	}

	query := `INSERT INTO attachments (
			id, content_type, byte_count, source_filename, caption, album_group_id,
			blur_hash, attachment_type, creation_timestamp, local_relative_file_path,
			encryption_key, digest, server_id, cdn_key, cdn_number, upload_timestamp,
			is_uploaded, is_valid_image, is_valid_video, is_animated,
			image_width, image_height, audio_duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			local_relative_file_path = excluded.local_relative_file_path,
			encryption_key = excluded.encryption_key,
			digest = excluded.digest,
			server_id = excluded.server_id,
			cdn_key = excluded.cdn_key,
			cdn_number = excluded.cdn_number,
			upload_timestamp = excluded.upload_timestamp,
			is_uploaded = excluded.is_uploaded,
			is_valid_image = excluded.is_valid_image,
			is_valid_video = excluded.is_valid_video,
			is_animated = excluded.is_animated,
			image_width = excluded.image_width,
			image_height = excluded.image_height,
			audio_duration_seconds = excluded.audio_duration_seconds
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ContentType, s.ByteCount, s.SourceFilename, s.Caption, s.AlbumGroupID,
		s.BlurHash, int(s.AttachmentType), s.CreationTimestamp.UnixMilli(), s.LocalRelativeFilePath,
		s.EncryptionKey, s.Digest, int64(s.ServerID), s.CdnKey, s.CdnNumber, int64(s.UploadTimestamp),
		s.IsUploaded, flagToNull(s.IsValidImage), flagToNull(s.IsValidVideo), flagToNull(s.IsAnimated),
		width, height, duration,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment: %w", err)
	}
	return nil
}

// MarkUploaded writes the server-assigned upload fields for one row. All
// six fields and the uploaded flag change together; the record's local path
// and derived caches are not touched.
func (r *SQLiteRepository) MarkUploaded(ctx context.Context, id string, f attachment.UploadFields) error {
	query := `UPDATE attachments SET
			encryption_key = ?,
			digest = ?,
			server_id = ?,
			cdn_key = ?,
			cdn_number = ?,
			upload_timestamp = ?,
			is_uploaded = 1
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		f.EncryptionKey, f.Digest, int64(f.ServerID), f.CdnKey, f.CdnNumber, int64(f.UploadTimestamp), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark attachment uploaded: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark attachment uploaded: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*attachment.Record, error) {
	query := `SELECT id, content_type, byte_count, source_filename, caption, album_group_id,
			blur_hash, attachment_type, creation_timestamp, local_relative_file_path,
			encryption_key, digest, server_id, cdn_key, cdn_number, upload_timestamp,
			is_uploaded, is_valid_image, is_valid_video, is_animated,
			image_width, image_height, audio_duration_seconds
		FROM attachments WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var (
		s                        attachment.Snapshot
		attachmentType           int
		createdMillis            int64
		serverID, uploadTS       int64
		validImg, validVid, anim sql.NullInt64
		width, height            sql.NullInt64
		duration                 sql.NullFloat64
	)
	err := row.Scan(
		&s.ID, &s.ContentType, &s.ByteCount, &s.SourceFilename, &s.Caption, &s.AlbumGroupID,
		&s.BlurHash, &attachmentType, &createdMillis, &s.LocalRelativeFilePath,
		&s.EncryptionKey, &s.Digest, &serverID, &s.CdnKey, &s.CdnNumber, &uploadTS,
		&s.IsUploaded, &validImg, &validVid, &anim,
		&width, &height, &duration,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment %s: %w", id, err)
	}

	s.AttachmentType = attachment.Type(attachmentType)
	s.CreationTimestamp = time.UnixMilli(createdMillis).UTC()
	s.ServerID = uint64(serverID)
	s.UploadTimestamp = uint64(uploadTS)
	s.IsValidImage = nullToFlag(validImg)
	s.IsValidVideo = nullToFlag(validVid)
	s.IsAnimated = nullToFlag(anim)
	if width.Valid {
		w := uint32(width.Int64)
		s.ImageWidth = &w
	}
	if height.Valid {
		h := uint32(height.Int64)
		s.ImageHeight = &h
	}
	if duration.Valid {
		d := duration.Float64
		s.AudioDurationSeconds = &d
	}

	return attachment.Restore(s), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete attachment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM attachments ORDER BY creation_timestamp`)
	if err != nil {
		return nil, fmt.Errorf("error selecting attachments: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
