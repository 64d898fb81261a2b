package store

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/attachment"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/filex"
	"github.com/dmitrijs2005/mediavault/internal/logging"
	"github.com/dmitrijs2005/mediavault/internal/repositories/attachments"
)

// Store places attachment bytes on disk and keeps the metadata row in step
// with the filesystem.
type Store struct {
	resolver *Resolver
	repo     attachments.Repository
	log      logging.Logger
}

func New(resolver *Resolver, repo attachments.Repository, log logging.Logger) *Store {
	return &Store{resolver: resolver, repo: repo, log: log}
}

func (s *Store) Resolver() *Resolver { return s.resolver }

// WriteCopying duplicates the source bytes into the record's backing file,
// leaving the source usable afterwards. The record's relative path is set
// exactly once; writing to a record that already has a backing file returns
// ErrAlreadyWritten.
func (s *Store) WriteCopying(ctx context.Context, rec *attachment.Record, src DataSource) error {
	return s.write(ctx, rec, src, false)
}

// WriteConsuming relocates the source's backing storage into place when it
// is file-backed, which avoids copying the bytes. The source must not be
// used after a successful call.
func (s *Store) WriteConsuming(ctx context.Context, rec *attachment.Record, src DataSource) error {
	return s.write(ctx, rec, src, true)
}

// WriteData is a convenience wrapper placing an in-memory buffer.
func (s *Store) WriteData(ctx context.Context, rec *attachment.Record, data []byte) error {
	return s.write(ctx, rec, NewBytesSource(data), false)
}

func (s *Store) write(ctx context.Context, rec *attachment.Record, src DataSource, consume bool) error {
	if _, ok := rec.LocalRelativeFilePath(); ok {
		return common.ErrAlreadyWritten
	}
	if _, err := s.resolver.Root(); err != nil {
		return err
	}

	rel := s.resolver.RelativePath(rec.ID, rec.ContentType)
	dst := s.resolver.AbsolutePathFor(rel)
	if filex.Exists(dst) {
		return fmt.Errorf("%w: %s", common.ErrPathCollision, dst)
	}

	// Claim the path before touching the filesystem. Concurrent writers for
	// the same record resolve the same dst, so the loser must fail here,
	// before any bytes land at a location both writers share.
	if err := rec.SetLocalRelativeFilePath(rel); err != nil {
		return err
	}

	if err := s.place(dst, src, consume); err != nil {
		return err
	}

	if err := s.repo.CreateOrUpdate(ctx, rec); err != nil {
		return err
	}

	s.log.Debug(ctx, "attachment written", "attachment_id", rec.ID, "path", rel, "consumed", consume)
	return nil
}

func (s *Store) place(dst string, src DataSource, consume bool) error {
	if consume {
		if fb, ok := src.(interface{ FilePath() string }); ok {
			if !filex.Exists(fb.FilePath()) {
				return fmt.Errorf("%w: %s", common.ErrSourceMissing, fb.FilePath())
			}
			if err := filex.Move(fb.FilePath(), dst); err != nil {
				return fmt.Errorf("%w: %w", common.ErrStorage, err)
			}
			return nil
		}
		// Nothing to relocate for non-file sources; fall through to a copy.
	}

	r, err := src.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	if err := filex.WriteAtomic(dst, r); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return nil
}

// Persist writes the record's current metadata (including derived caches)
// to the repository.
func (s *Store) Persist(ctx context.Context, rec *attachment.Record) error {
	return s.repo.CreateOrUpdate(ctx, rec)
}

// ReadData returns the full content of the record's backing file.
func (s *Store) ReadData(rec *attachment.Record) ([]byte, error) {
	abs, err := s.resolver.AbsolutePath(rec)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrStorage, abs, err)
	}
	return data, nil
}

// OpenOriginal returns a reader over the backing file.
func (s *Store) OpenOriginal(rec *attachment.Record) (io.ReadCloser, error) {
	abs, err := s.resolver.AbsolutePath(rec)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorage, abs, err)
	}
	return f, nil
}

// OriginalFilePath returns the absolute path of the backing file, or
// ErrNoBackingFile when the record has not been written yet.
func (s *Store) OriginalFilePath(rec *attachment.Record) (string, error) {
	return s.resolver.AbsolutePath(rec)
}
